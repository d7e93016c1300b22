package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/qgr-lab/qgr/internal/vectordb"
	"github.com/spf13/cobra"
)

var (
	storeNlist         int
	storePartitions    []string
	storeDeleteExecute bool
)

func init() {
	rootCmd.AddCommand(storeCmd)
	storeCmd.AddCommand(storeInitCmd)
	storeCmd.AddCommand(storeInfoCmd)
	storeCmd.AddCommand(storeDeleteCmd)

	storeInitCmd.Flags().IntVar(&storeNlist, "nlist", vectordb.DefaultNlist, "IVF cluster count for the vector index")
	storeInitCmd.Flags().StringSliceVar(&storePartitions, "partition", nil, "Partitions to create (repeatable)")
	storeDeleteCmd.Flags().BoolVar(&storeDeleteExecute, "execute", false, "Actually delete; without this flag the candidates are only listed")
}

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage the vector store collection",
}

// StoreInitResponse is the response for store init.
type StoreInitResponse struct {
	Status     string   `json:"status"`
	Collection string   `json:"collection"`
	Dimensions int      `json:"dimensions"`
	Partitions []string `json:"partitions,omitempty"`
}

var storeInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the collection, partitions, and vector index",
	Long: `Create the workspace's collection in the vector store if it does not
exist, create any requested partitions, and build the inner-product IVF
index on the embedding field. Safe to re-run.`,
	RunE: runStoreInit,
}

func runStoreInit(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	root := mustFindWorkspace()
	cfg := mustLoadConfig(root)

	store := mustConnectStore(ctx, cfg)
	defer store.Close()

	if err := store.EnsureCollection(ctx); err != nil {
		exitWithError(ExitError, "creating collection: %v", err)
	}

	partitions := storePartitions
	if len(partitions) == 0 && cfg.Partition != "" {
		partitions = []string{cfg.Partition}
	}
	for _, p := range partitions {
		if err := store.EnsurePartition(ctx, p); err != nil {
			exitWithError(ExitError, "creating partition %s: %v", p, err)
		}
	}

	if err := store.CreateVectorIndex(ctx, storeNlist); err != nil {
		exitWithError(ExitError, "creating vector index: %v", err)
	}

	if humanOutput {
		fmt.Printf("Collection %s ready (%d dimensions)\n", store.Collection(), store.Dim())
	} else {
		outputJSON(StoreInitResponse{
			Status:     "ready",
			Collection: store.Collection(),
			Dimensions: store.Dim(),
			Partitions: partitions,
		})
	}

	return nil
}

// StoreInfoResponse is the response for store info.
type StoreInfoResponse struct {
	Address     string   `json:"address"`
	Collection  string   `json:"collection"`
	Collections []string `json:"collections"`
	Rows        int64    `json:"rows"`
}

var storeInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show collection statistics",
	RunE:  runStoreInfo,
}

func runStoreInfo(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	root := mustFindWorkspace()
	cfg := mustLoadConfig(root)

	store := mustConnectStore(ctx, cfg)
	defer store.Close()

	collections, err := store.ListCollections(ctx)
	if err != nil {
		exitWithError(ExitError, "listing collections: %v", err)
	}

	rows, err := store.RowCount(ctx)
	if errors.Is(err, vectordb.ErrCollectionNotFound) {
		exitWithError(ExitDataError, "collection %s does not exist; run 'qgr store init' to create it", store.Collection())
	}
	if err != nil {
		exitWithError(ExitError, "reading row count: %v", err)
	}

	if humanOutput {
		fmt.Printf("Address:    %s\n", milvusAddress())
		fmt.Printf("Collection: %s\n", store.Collection())
		fmt.Printf("Rows:       %d\n", rows)
		fmt.Printf("All collections: %v\n", collections)
	} else {
		outputJSON(StoreInfoResponse{
			Address:     milvusAddress(),
			Collection:  store.Collection(),
			Collections: collections,
			Rows:        rows,
		})
	}

	return nil
}

// StoreDeleteResponse is the response for store delete.
type StoreDeleteResponse struct {
	Status     string `json:"status"`
	DocumentID string `json:"documentId"`
	Chunks     int    `json:"chunks"`
	Expr       string `json:"expr,omitempty"`
}

var storeDeleteCmd = &cobra.Command{
	Use:   "delete <document-id>",
	Short: "Delete all chunks of a document",
	Long: `Delete every chunk belonging to a document from the collection.

Without --execute this is a dry run: the matching chunks are counted and
the delete expression is shown, but nothing is removed.`,
	Args: cobra.ExactArgs(1),
	RunE: runStoreDelete,
}

func runStoreDelete(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	root := mustFindWorkspace()
	cfg := mustLoadConfig(root)
	documentID := args[0]

	store := mustConnectStore(ctx, cfg)
	defer store.Close()

	ids, expr, err := store.DeleteCandidates(ctx, documentID)
	if err != nil {
		exitWithError(ExitError, "finding chunks: %v", err)
	}

	if len(ids) == 0 {
		if humanOutput {
			fmt.Printf("No chunks found for document %s\n", documentID)
		} else {
			outputJSON(StoreDeleteResponse{
				Status:     "not_found",
				DocumentID: documentID,
			})
		}
		return nil
	}

	if !storeDeleteExecute {
		if humanOutput {
			fmt.Printf("Would delete %d chunks for document %s\n", len(ids), documentID)
			fmt.Printf("Re-run with --execute to delete.\n")
		} else {
			outputJSON(StoreDeleteResponse{
				Status:     "dry_run",
				DocumentID: documentID,
				Chunks:     len(ids),
				Expr:       expr,
			})
		}
		return nil
	}

	if err := store.Delete(ctx, expr); err != nil {
		exitWithError(ExitError, "deleting chunks: %v", err)
	}
	if err := store.Flush(ctx); err != nil {
		exitWithError(ExitError, "flushing: %v", err)
	}

	if humanOutput {
		fmt.Printf("Deleted %d chunks for document %s\n", len(ids), documentID)
	} else {
		outputJSON(StoreDeleteResponse{
			Status:     "deleted",
			DocumentID: documentID,
			Chunks:     len(ids),
		})
	}

	return nil
}
