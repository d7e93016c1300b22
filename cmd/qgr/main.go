// Package main provides the qgr CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/qgr-lab/qgr/internal/config"
	"github.com/qgr-lab/qgr/internal/embedding"
	"github.com/qgr-lab/qgr/internal/vectordb"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

// humanOutput controls whether to use human-readable output
var humanOutput bool

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "qgr",
	Short: "Paper corpus and YouTube data pipeline",
	Long: `qgr manages a corpus of scientific papers and related YouTube data.

It converts GROBID TEI-XML into document JSON, ingests documents into a
Milvus vector store with Ollama embeddings, answers semantic queries over
the corpus, and collects YouTube channel and video statistics into flat
xlsx tables. All commands output JSON by default for easy integration
with other tools.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.Version = Version
}

// getStartingDirectory returns the directory to search for a workspace from.
// Checks the QGR_ROOT environment variable first, then the working directory.
func getStartingDirectory() (string, int) {
	if root := os.Getenv("QGR_ROOT"); root != "" {
		return root, 0
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", outputError(ExitError, "getting current directory: %v", err)
	}
	return cwd, 0
}

// mustFindWorkspace finds and validates the workspace, exits on error.
// Returns the workspace root path.
func mustFindWorkspace() string {
	start, exitCode := getStartingDirectory()
	if exitCode != 0 {
		os.Exit(exitCode)
	}

	root, err := config.FindWorkspace(start)
	if err != nil {
		exitWithError(ExitConfigError, "%v\n\nRun 'qgr init' to create one.", err)
	}
	return root
}

// mustLoadConfig loads workspace configuration, exits on error.
func mustLoadConfig(root string) *config.Config {
	cfg, err := config.Load(root)
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	return cfg
}

// milvusAddress returns the configured Milvus address or the default.
func milvusAddress() string {
	if addr := config.GetMilvusAddress(); addr != "" {
		return addr
	}
	return vectordb.DefaultAddress
}

// embedDimensions returns the configured embedding width or the default.
func embedDimensions() int {
	if dims := config.GetEmbedDimensions(); dims > 0 {
		return dims
	}
	return embedding.DefaultDimensions
}

// mustConnectStore connects to the vector store for the workspace's
// collection, exits on error. The caller is responsible for Close().
func mustConnectStore(ctx context.Context, cfg *config.Config) *vectordb.Store {
	store, err := vectordb.Connect(ctx, milvusAddress(),
		vectordb.WithCollection(cfg.Collection),
		vectordb.WithDim(embedDimensions()))
	if err != nil {
		msg := fmt.Sprintf("connecting to Milvus at %s: %v", milvusAddress(), err)
		if config.GetMilvusAddress() == "" {
			msg += "\n\n" + config.HelpfulConfigMessage()
		}
		exitWithError(ExitServiceError, "%s", msg)
	}
	return store
}

// newProvider builds the embedding provider from global configuration.
func newProvider() *embedding.OllamaProvider {
	var opts []embedding.OllamaOption
	if url := config.GetOllamaURL(); url != "" {
		opts = append(opts, embedding.WithBaseURL(url))
	}
	if model := config.GetEmbedModel(); model != "" {
		opts = append(opts, embedding.WithModel(model))
	}
	if dims := config.GetEmbedDimensions(); dims > 0 {
		opts = append(opts, embedding.WithDimensions(dims))
	}
	return embedding.NewOllamaProvider(opts...)
}

// mustProvider builds the embedding provider and verifies Ollama is
// reachable and the model is pulled, exits on error.
func mustProvider(ctx context.Context) *embedding.OllamaProvider {
	provider := newProvider()
	if err := provider.IsAvailable(ctx); err != nil {
		msg := "Ollama is not running\n\nStart Ollama with 'ollama serve' or install from https://ollama.ai"
		if config.GetOllamaURL() == "" {
			msg += "\n\n" + config.HelpfulConfigMessage()
		}
		exitWithError(ExitServiceError, "%s", msg)
	}
	hasModel, err := provider.HasModel(ctx)
	if err != nil {
		exitWithError(ExitServiceError, "checking embedding model: %v", err)
	}
	if !hasModel {
		exitWithError(ExitModelNotFound, "embedding model %q not found\n\nPull it with 'ollama pull %s'", provider.ModelName(), provider.ModelName())
	}
	return provider
}
