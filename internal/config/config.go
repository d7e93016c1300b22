// Package config handles workspace configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config represents workspace configuration stored in .qgr/config.json.
type Config struct {
	TEIDir       string `json:"tei_dir"`       // TEI-XML input tree
	ConvertedDir string `json:"converted_dir"` // converted document JSON tree
	FailedDir    string `json:"failed_dir"`    // quarantine for failed ingestions
	PDFDir       string `json:"pdf_dir"`       // PDFs awaiting GROBID conversion

	Collection string `json:"collection"`
	Partition  string `json:"partition"`

	MaxPerRun    int `json:"max_per_run"`
	FlushEvery   int `json:"flush_every"`
	ChunkSize    int `json:"chunk_size"`
	ChunkOverlap int `json:"chunk_overlap"`

	OnCollision string `json:"on_collision,omitempty"` // overwrite or error
}

const (
	QgrDir         = ".qgr"
	ConfigFile     = "config.json"
	CheckpointFile = "processed_files.json"
	ChannelsFile   = "channels.json"
	APIDataFile    = "yt_api_data.json"
	VideoListDir   = "video_lists"
	CacheDir       = "cache"
	CatalogFile    = "catalog.db"
)

// ValidCollisionPolicies lists the supported on_collision values.
var ValidCollisionPolicies = []string{"overwrite", "error"}

// Default returns a configuration with the standard folder layout and
// pipeline tuning.
func Default() *Config {
	return &Config{
		TEIDir:       "tei",
		ConvertedDir: "converted",
		FailedDir:    "not_processed",
		PDFDir:       "pdfs",
		Collection:   "mypapers",
		Partition:    "papers",
		MaxPerRun:    100,
		FlushEvery:   20,
		ChunkSize:    512,
		ChunkOverlap: 20,
		OnCollision:  "overwrite",
	}
}

// QgrPath returns the path to the .qgr directory from a root path.
func QgrPath(root string) string {
	return filepath.Join(root, QgrDir)
}

// ConfigPath returns the path to config.json from a root path.
func ConfigPath(root string) string {
	return filepath.Join(root, QgrDir, ConfigFile)
}

// CheckpointPath returns the path to the ingest checkpoint from a root path.
func CheckpointPath(root string) string {
	return filepath.Join(root, QgrDir, CheckpointFile)
}

// ChannelsPath returns the path to the channel checkpoint file.
func ChannelsPath(root string) string {
	return filepath.Join(root, QgrDir, ChannelsFile)
}

// APIDataPath returns the path to the aggregated YouTube data file.
func APIDataPath(root string) string {
	return filepath.Join(root, QgrDir, APIDataFile)
}

// VideoListPath returns the directory holding per-channel video checkpoints.
func VideoListPath(root string) string {
	return filepath.Join(root, QgrDir, VideoListDir)
}

// CachePath returns the path to the cache directory from a root path.
func CachePath(root string) string {
	return filepath.Join(root, QgrDir, CacheDir)
}

// CatalogPath returns the path to the catalog database from a root path.
func CatalogPath(root string) string {
	return filepath.Join(root, QgrDir, CacheDir, CatalogFile)
}

// IsWorkspace checks if the given path contains a qgr workspace.
func IsWorkspace(root string) bool {
	info, err := os.Stat(QgrPath(root))
	return err == nil && info.IsDir()
}

// FindWorkspace walks up from the given path to find a qgr workspace.
// Returns the workspace root path or an error if not found.
func FindWorkspace(start string) (string, error) {
	abs, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	for {
		if IsWorkspace(abs) {
			return abs, nil
		}

		parent := filepath.Dir(abs)
		if parent == abs {
			return "", fmt.Errorf("not in a qgr workspace (no .qgr directory found)")
		}
		abs = parent
	}
}

// Load reads configuration from the workspace at the given root.
func Load(root string) (*Config, error) {
	data, err := os.ReadFile(ConfigPath(root))
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return &cfg, nil
}

// Save writes configuration to the workspace at the given root.
func (c *Config) Save(root string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(ConfigPath(root), data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// ResolveDir resolves a configured folder against the workspace root.
// Absolute paths are returned unchanged.
func (c *Config) ResolveDir(root, dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(root, dir)
}

// ValidateCollisionPolicy checks that the on_collision value is valid.
func ValidateCollisionPolicy(policy string) error {
	if policy == "" {
		return nil // Empty defaults to "overwrite"
	}

	for _, valid := range ValidCollisionPolicies {
		if policy == valid {
			return nil
		}
	}

	return fmt.Errorf("invalid on_collision: %s (valid: %v)", policy, ValidCollisionPolicies)
}

// ExpandPath expands ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path // Return original if we can't get home directory
	}

	return filepath.Join(home, path[1:])
}
