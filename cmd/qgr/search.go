package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/qgr-lab/qgr/internal/embedding"
	"github.com/qgr-lab/qgr/internal/vectordb"
	"github.com/spf13/cobra"
)

var (
	searchLimit      int
	searchPartitions []string
	searchExpr       string
	searchNprobe     int
	searchChunks     bool
)

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().IntVarP(&searchLimit, "limit", "l", DefaultSearchLimit, "Maximum number of chunk hits")
	searchCmd.Flags().StringSliceVar(&searchPartitions, "partition", nil, "Partitions to search (repeatable; default all)")
	searchCmd.Flags().StringVar(&searchExpr, "expr", "", "Boolean filter expression (e.g. category == \"ml\")")
	searchCmd.Flags().IntVar(&searchNprobe, "nprobe", vectordb.DefaultNprobe, "IVF clusters probed at search time")
	searchCmd.Flags().BoolVar(&searchChunks, "chunks", false, "Output raw chunk hits instead of grouped documents")
}

// SearchResponse is the response for the search command.
type SearchResponse struct {
	Query     string                  `json:"query"`
	Documents []vectordb.DocumentHits `json:"documents,omitempty"`
	Chunks    []vectordb.Hit          `json:"chunks,omitempty"`
	Total     int                     `json:"total"`
	Model     string                  `json:"model"`
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the corpus by semantic similarity",
	Long: `Search stored document chunks by semantic similarity to the query.

The query is embedded with the same model used at ingestion and matched
against chunk embeddings by inner product. By default chunk hits are
grouped into one result per document, collecting every matching chunk's
content; --chunks outputs the raw chunk hits instead.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	query := strings.TrimSpace(args[0])

	if query == "" {
		exitWithError(ExitError, "search query cannot be empty")
	}

	root := mustFindWorkspace()
	cfg := mustLoadConfig(root)

	provider := mustProvider(ctx)
	store := mustConnectStore(ctx, cfg)
	defer store.Close()

	queryEmb, err := embedding.EmbedNormalized(ctx, provider, query)
	if err != nil {
		exitWithError(ExitError, "embedding query: %v", err)
	}

	hits, err := store.Search(ctx, queryEmb.Vector, vectordb.SearchOptions{
		Partitions: searchPartitions,
		Expr:       searchExpr,
		Limit:      searchLimit,
		Nprobe:     searchNprobe,
	})
	if err != nil {
		exitWithError(ExitError, "searching: %v", err)
	}

	if searchChunks {
		if humanOutput {
			printChunkHits(query, hits)
		} else {
			outputJSON(SearchResponse{
				Query:  query,
				Chunks: hits,
				Total:  len(hits),
				Model:  provider.ModelName(),
			})
		}
		return nil
	}

	docs := vectordb.GroupByDocument(hits)
	if humanOutput {
		fmt.Printf("Search: %q\n", query)
		fmt.Printf("Found %d documents (%d chunks)\n\n", len(docs), len(hits))
		for i, d := range docs {
			fmt.Printf("%d. [%.3f] %s\n", i+1, d.Score, truncateString(d.Title, SearchTitleMaxLen))
			fmt.Printf("   %s (%s)\n", d.Authors, d.Date)
			fmt.Printf("   %d matching chunks\n\n", len(d.Contents))
		}
	} else {
		outputJSON(SearchResponse{
			Query:     query,
			Documents: docs,
			Total:     len(docs),
			Model:     provider.ModelName(),
		})
	}

	return nil
}

// printChunkHits prints raw chunk hits in human-readable format.
func printChunkHits(query string, hits []vectordb.Hit) {
	fmt.Printf("Search: %q\n", query)
	fmt.Printf("Found %d chunks\n\n", len(hits))
	for i, h := range hits {
		fmt.Printf("%d. [%.3f] %s\n", i+1, h.Score, truncateString(h.Title, SearchTitleMaxLen))
		fmt.Printf("   %s\n\n", truncateString(h.Content, 2*SearchTitleMaxLen))
	}
}
