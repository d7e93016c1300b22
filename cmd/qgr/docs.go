package main

import (
	"fmt"

	"github.com/qgr-lab/qgr/internal/catalog"
	"github.com/qgr-lab/qgr/internal/config"
	"github.com/spf13/cobra"
)

var docsLimit int

func init() {
	rootCmd.AddCommand(docsCmd)
	docsCmd.AddCommand(docsRebuildCmd)
	docsCmd.AddCommand(docsListCmd)
	docsCmd.AddCommand(docsSearchCmd)
	docsCmd.AddCommand(docsGetCmd)

	docsCmd.PersistentFlags().IntVarP(&docsLimit, "limit", "l", 50, "Maximum number of results")
}

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Browse the converted document catalog",
	Long: `Browse converted documents through a local catalog.

The catalog is an ephemeral SQLite cache built from the converted JSON
tree; the JSON files remain the source of truth. Rebuild it after a
conversion run with 'qgr docs rebuild'.`,
}

// mustOpenCatalog opens the catalog database, exits on error.
// The caller is responsible for calling Close() on the returned DB.
func mustOpenCatalog(root string) *catalog.DB {
	db, err := catalog.Open(config.CatalogPath(root))
	if err != nil {
		exitWithError(ExitError, "opening catalog: %v", err)
	}
	return db
}

// RebuildResponse is the response for docs rebuild.
type RebuildResponse struct {
	Status    string `json:"status"`
	Documents int    `json:"documents"`
}

var docsRebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the catalog from the converted tree",
	RunE:  runDocsRebuild,
}

func runDocsRebuild(cmd *cobra.Command, args []string) error {
	root := mustFindWorkspace()
	cfg := mustLoadConfig(root)

	db := mustOpenCatalog(root)
	defer db.Close()

	n, err := db.Rebuild(cfg.ResolveDir(root, cfg.ConvertedDir))
	if err != nil {
		exitWithError(ExitError, "rebuilding catalog: %v", err)
	}

	if humanOutput {
		fmt.Printf("Catalog rebuilt with %d documents\n", n)
	} else {
		outputJSON(RebuildResponse{Status: "rebuilt", Documents: n})
	}
	return nil
}

// DocsListResponse is the response for docs list and docs search.
type DocsListResponse struct {
	Documents []catalog.Entry `json:"documents"`
	Total     int             `json:"total"`
}

var docsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cataloged documents",
	RunE:  runDocsList,
}

func runDocsList(cmd *cobra.Command, args []string) error {
	root := mustFindWorkspace()
	db := mustOpenCatalog(root)
	defer db.Close()

	entries, err := db.List(docsLimit)
	if err != nil {
		exitWithError(ExitError, "listing documents: %v", err)
	}

	printEntries(entries)
	return nil
}

var docsSearchCmd = &cobra.Command{
	Use:   "search <term>",
	Short: "Search cataloged documents by title or abstract",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocsSearch,
}

func runDocsSearch(cmd *cobra.Command, args []string) error {
	root := mustFindWorkspace()
	db := mustOpenCatalog(root)
	defer db.Close()

	entries, err := db.Search(args[0], docsLimit)
	if err != nil {
		exitWithError(ExitError, "searching documents: %v", err)
	}

	printEntries(entries)
	return nil
}

var docsGetCmd = &cobra.Command{
	Use:   "get <document-id>",
	Short: "Show one cataloged document",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocsGet,
}

func runDocsGet(cmd *cobra.Command, args []string) error {
	root := mustFindWorkspace()
	db := mustOpenCatalog(root)
	defer db.Close()

	entry, err := db.GetByDocumentID(args[0])
	if err != nil {
		exitWithError(ExitError, "reading document: %v", err)
	}
	if entry == nil {
		exitWithError(ExitDataError, "document not found: %s", args[0])
	}

	if humanOutput {
		fmt.Printf("Title:    %s\n", entry.Title)
		fmt.Printf("Authors:  %v\n", entry.Authors)
		fmt.Printf("Date:     %s\n", entry.Date)
		fmt.Printf("Category: %s\n", entry.Category)
		fmt.Printf("Path:     %s\n", entry.Path)
		if entry.Abstract != "" {
			fmt.Printf("\n%s\n", entry.Abstract)
		}
	} else {
		outputJSON(entry)
	}
	return nil
}

// printEntries prints catalog entries in the selected format.
func printEntries(entries []catalog.Entry) {
	if humanOutput {
		for i, e := range entries {
			fmt.Printf("%d. %s\n", i+1, truncateString(e.Title, ListTitleMaxLen))
			fmt.Printf("   %s [%s] %s\n", e.DocumentID[:12], e.Category, e.Date)
		}
		return
	}
	outputJSON(DocsListResponse{Documents: entries, Total: len(entries)})
}
