package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/qgr-lab/qgr/internal/config"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Get or set configuration values",
	Long: `Get or set workspace configuration values.

Usage:
  qgr config                      # Show all config
  qgr config collection           # Get specific value
  qgr config collection mypapers  # Set value

Keys:
  tei-dir        TEI-XML input tree
  converted-dir  Converted document JSON tree
  failed-dir     Quarantine for failed ingestions
  pdf-dir        PDFs awaiting GROBID conversion
  collection     Vector store collection name
  partition      Default ingest partition
  max-per-run    Ingest bound per run
  flush-every    Insertions between durability flushes
  chunk-size     Chunk size in characters
  chunk-overlap  Chunk overlap in characters
  on-collision   Converted-name collision policy (overwrite, error)`,
	Args: cobra.MaximumNArgs(2),
	RunE: runConfig,
}

func runConfig(cmd *cobra.Command, args []string) error {
	root := mustFindWorkspace()
	cfg := mustLoadConfig(root)

	// No args: show all config
	if len(args) == 0 {
		if humanOutput {
			for _, kv := range configEntries(cfg) {
				fmt.Printf("%-14s %s\n", kv[0]+":", kv[1])
			}
		} else {
			outputJSON(cfg)
		}
		return nil
	}

	key := normalizeKey(args[0])

	// One arg: get specific value
	if len(args) == 1 {
		value, ok := getConfigValue(cfg, key)
		if !ok {
			exitWithError(ExitError, "unknown configuration key: %s", args[0])
		}
		if humanOutput {
			fmt.Println(value)
		} else {
			outputJSON(map[string]string{key: value})
		}
		return nil
	}

	// Two args: set value
	value := args[1]
	if err := setConfigValue(cfg, key, value); err != nil {
		exitWithError(ExitError, "%v", err)
	}

	if err := cfg.Save(root); err != nil {
		exitWithError(ExitError, "saving config: %v", err)
	}

	if humanOutput {
		fmt.Printf("Updated %s to %s\n", key, value)
	} else {
		outputJSON(UpdateResponse{
			Status: "updated",
			Key:    key,
			Value:  value,
		})
	}

	return nil
}

// configEntries returns the config as ordered key/value pairs for display.
func configEntries(cfg *config.Config) [][2]string {
	return [][2]string{
		{"tei-dir", cfg.TEIDir},
		{"converted-dir", cfg.ConvertedDir},
		{"failed-dir", cfg.FailedDir},
		{"pdf-dir", cfg.PDFDir},
		{"collection", cfg.Collection},
		{"partition", cfg.Partition},
		{"max-per-run", strconv.Itoa(cfg.MaxPerRun)},
		{"flush-every", strconv.Itoa(cfg.FlushEvery)},
		{"chunk-size", strconv.Itoa(cfg.ChunkSize)},
		{"chunk-overlap", strconv.Itoa(cfg.ChunkOverlap)},
		{"on-collision", cfg.OnCollision},
	}
}

// getConfigValue returns the value for a normalized key.
func getConfigValue(cfg *config.Config, key string) (string, bool) {
	for _, kv := range configEntries(cfg) {
		if kv[0] == key {
			return kv[1], true
		}
	}
	return "", false
}

// setConfigValue sets a normalized key to a value, validating it.
func setConfigValue(cfg *config.Config, key, value string) error {
	switch key {
	case "tei-dir":
		cfg.TEIDir = config.ExpandPath(value)
	case "converted-dir":
		cfg.ConvertedDir = config.ExpandPath(value)
	case "failed-dir":
		cfg.FailedDir = config.ExpandPath(value)
	case "pdf-dir":
		cfg.PDFDir = config.ExpandPath(value)
	case "collection":
		if value == "" {
			return fmt.Errorf("collection cannot be empty")
		}
		cfg.Collection = value
	case "partition":
		cfg.Partition = value
	case "max-per-run":
		return setIntValue(&cfg.MaxPerRun, key, value)
	case "flush-every":
		return setIntValue(&cfg.FlushEvery, key, value)
	case "chunk-size":
		return setIntValue(&cfg.ChunkSize, key, value)
	case "chunk-overlap":
		return setIntValue(&cfg.ChunkOverlap, key, value)
	case "on-collision":
		if err := config.ValidateCollisionPolicy(value); err != nil {
			return err
		}
		cfg.OnCollision = value
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}

// setIntValue parses and assigns a non-negative integer config value.
func setIntValue(dst *int, key, value string) error {
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return fmt.Errorf("invalid %s: %s (must be a non-negative integer)", key, value)
	}
	*dst = n
	return nil
}

// normalizeKey converts key formats (chunk-size, chunk_size) to a consistent format.
func normalizeKey(key string) string {
	key = strings.ToLower(key)
	key = strings.ReplaceAll(key, "_", "-")
	return key
}
