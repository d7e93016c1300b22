package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/qgr-lab/qgr/internal/config"
	"github.com/qgr-lab/qgr/internal/ingest"
	"github.com/spf13/cobra"
)

var (
	ingestMax       int
	ingestPartition string
	ingestSource    string
)

func init() {
	rootCmd.AddCommand(ingestCmd)

	ingestCmd.Flags().IntVar(&ingestMax, "max", 0, "Ingest at most this many files (default from config)")
	ingestCmd.Flags().StringVar(&ingestPartition, "partition", "", "Target partition (default from config)")
	ingestCmd.Flags().StringVar(&ingestSource, "source", "", "Source folder of document JSON files (default from config)")
}

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest converted documents into the vector store",
	Long: `Chunk, embed, and insert converted document JSON files into the
vector store.

Files already listed in the checkpoint are skipped. A file that fails
processing is moved to the quarantine folder and the batch continues.
Successfully ingested files are removed from the source folder; the
checkpoint and the store are flushed periodically so an interrupted run
resumes where it left off.`,
	RunE: runIngest,
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	root := mustFindWorkspace()
	cfg := mustLoadConfig(root)

	provider := mustProvider(ctx)
	store := mustConnectStore(ctx, cfg)
	defer store.Close()

	opts := ingest.Options{
		SourceDir:      cfg.ResolveDir(root, cfg.ConvertedDir),
		FailedDir:      cfg.ResolveDir(root, cfg.FailedDir),
		CheckpointPath: config.CheckpointPath(root),
		Partition:      cfg.Partition,
		MaxFiles:       cfg.MaxPerRun,
		FlushEvery:     cfg.FlushEvery,
		ChunkSize:      cfg.ChunkSize,
		ChunkOverlap:   cfg.ChunkOverlap,
	}
	if ingestSource != "" {
		opts.SourceDir = ingestSource
	}
	if ingestPartition != "" {
		opts.Partition = ingestPartition
	}
	if ingestMax > 0 {
		opts.MaxFiles = ingestMax
	}

	if opts.Partition != "" {
		if err := store.EnsurePartition(ctx, opts.Partition); err != nil {
			exitWithError(ExitError, "creating partition %s: %v", opts.Partition, err)
		}
	}

	ing := ingest.New(store, provider, opts)
	if humanOutput {
		ing.SetProgress(func(current, total int, path string) {
			fmt.Fprintf(os.Stderr, "[%d/%d] %s\n", current, total, filepath.Base(path))
		})
	}

	stats, err := ing.Run(ctx)
	if err != nil {
		exitWithError(ExitError, "ingesting: %v", err)
	}

	if humanOutput {
		fmt.Printf("Ingested %d documents (%d chunks), %d failed, %d skipped, %d remaining\n",
			stats.Ingested, stats.Chunks, stats.Failed, stats.Skipped, stats.Remaining)
		for _, f := range stats.Failures {
			fmt.Printf("  failed %s: %s\n", f.Path, f.Err)
		}
	} else {
		outputJSON(stats)
	}

	return nil
}
