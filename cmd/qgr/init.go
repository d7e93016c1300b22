package main

import (
	"fmt"
	"os"

	"github.com/qgr-lab/qgr/internal/config"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new qgr workspace",
	Long: `Initialize a new qgr workspace in the current directory.

Creates:
  .qgr/
  ├── config.json     # Default config
  ├── video_lists/    # Per-channel video checkpoints
  └── cache/          # Catalog database (gitignored)
  tei/                # TEI-XML input tree
  converted/          # Converted document JSON tree
  not_processed/      # Quarantine for failed ingestions
  pdfs/               # PDFs awaiting GROBID conversion`,
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	root, exitCode := getStartingDirectory()
	if exitCode != 0 {
		os.Exit(exitCode)
	}

	if config.IsWorkspace(root) {
		exitWithError(ExitError, "directory already contains a qgr workspace")
	}

	cfg := config.Default()

	dirs := []string{
		config.QgrPath(root),
		config.CachePath(root),
		config.VideoListPath(root),
		cfg.ResolveDir(root, cfg.TEIDir),
		cfg.ResolveDir(root, cfg.ConvertedDir),
		cfg.ResolveDir(root, cfg.FailedDir),
		cfg.ResolveDir(root, cfg.PDFDir),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			exitWithError(ExitError, "creating %s: %v", dir, err)
		}
	}

	if err := cfg.Save(root); err != nil {
		exitWithError(ExitError, "creating config.json: %v", err)
	}

	if humanOutput {
		fmt.Printf("Initialized qgr workspace in %s\n", root)
	} else {
		outputJSON(StatusResponse{
			Status: "initialized",
			Path:   root,
		})
	}

	return nil
}
