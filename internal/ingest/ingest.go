// Package ingest runs the checkpointed embed-and-insert pipeline: it pulls
// converted documents from a source folder, chunks and embeds their content,
// inserts the rows into the vector store, and records progress so a crashed
// or quota-bounded run can resume where it left off.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/qgr-lab/qgr/internal/checkpoint"
	"github.com/qgr-lab/qgr/internal/document"
	"github.com/qgr-lab/qgr/internal/embedding"
	"github.com/qgr-lab/qgr/internal/vectordb"
)

const (
	// DefaultFlushEvery is the number of successful insertions between
	// durability flushes. Bounds data loss on crash to at most
	// DefaultFlushEvery-1 unflushed insertions.
	DefaultFlushEvery = 20

	// NotesPartition gets prose cleaning instead of LaTeX cleaning.
	NotesPartition = "notes"
)

// Store is the slice of the vector store the ingestor needs.
type Store interface {
	Insert(ctx context.Context, partition string, rows []vectordb.Row) error
	Flush(ctx context.Context) error
}

// Options configure an ingest run.
type Options struct {
	SourceDir      string // folder of converted document JSON files
	FailedDir      string // quarantine folder for files that fail processing
	CheckpointPath string // processed-file list location
	Partition      string
	MaxFiles       int // stop after this many successful ingestions; 0 = no bound
	FlushEvery     int // 0 = DefaultFlushEvery
	ChunkSize      int // 0 = document.DefaultChunkSize
	ChunkOverlap   int // 0 = document.DefaultChunkOverlap
}

// Failure records one quarantined file.
type Failure struct {
	Path string `json:"path"`
	Err  string `json:"error"`
}

// Stats summarizes an ingest run.
type Stats struct {
	Ingested  int       `json:"ingested"`
	Chunks    int       `json:"chunks"`
	Failed    int       `json:"failed"`
	Skipped   int       `json:"skipped"` // already in the checkpoint
	Failures  []Failure `json:"failures,omitempty"`
	Remaining int       `json:"remaining"` // unprocessed files left in the source folder
}

// ProgressFunc receives per-file progress during a run.
type ProgressFunc func(current, total int, path string)

// Ingestor executes the pipeline. One file is processed at a time; a bad
// file is quarantined and never aborts the batch.
type Ingestor struct {
	store    Store
	provider embedding.Provider
	opts     Options
	progress ProgressFunc
}

// New creates an ingestor.
func New(store Store, provider embedding.Provider, opts Options) *Ingestor {
	if opts.FlushEvery <= 0 {
		opts.FlushEvery = DefaultFlushEvery
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = document.DefaultChunkSize
	}
	if opts.ChunkOverlap <= 0 {
		opts.ChunkOverlap = document.DefaultChunkOverlap
	}
	return &Ingestor{store: store, provider: provider, opts: opts}
}

// SetProgress sets a progress callback.
func (ing *Ingestor) SetProgress(fn ProgressFunc) {
	ing.progress = fn
}

// Run executes one ingest pass. A final flush and checkpoint save always
// happen at loop exit, whatever the exit reason.
func (ing *Ingestor) Run(ctx context.Context) (*Stats, error) {
	processed, err := checkpoint.LoadProcessedFiles(ing.opts.CheckpointPath)
	if err != nil {
		return nil, err
	}

	processedSet := make(map[string]bool, len(processed))
	for _, p := range processed {
		processedSet[p] = true
	}

	files, err := ing.listSourceFiles()
	if err != nil {
		return nil, err
	}

	stats := &Stats{}
	loopErr := ing.loop(ctx, files, processedSet, &processed, stats)

	// Flush and checkpoint unconditionally before reporting any loop error.
	finishErr := errors.Join(
		ing.store.Flush(ctx),
		checkpoint.SaveProcessedFiles(ing.opts.CheckpointPath, processed),
	)

	if err := errors.Join(loopErr, finishErr); err != nil {
		return stats, err
	}

	remaining, err := ing.listSourceFiles()
	if err == nil {
		stats.Remaining = len(remaining)
	}
	return stats, nil
}

// loop processes files one at a time until the source is exhausted, the
// per-run bound is reached, or the context is canceled.
func (ing *Ingestor) loop(ctx context.Context, files []string, processedSet map[string]bool, processed *[]string, stats *Stats) error {
	sinceFlush := 0
	total := len(files)

	for i, path := range files {
		if ing.opts.MaxFiles > 0 && stats.Ingested >= ing.opts.MaxFiles {
			break
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if processedSet[path] {
			stats.Skipped++
			continue
		}

		if ing.progress != nil {
			ing.progress(i+1, total, path)
		}

		rows, err := ing.processFile(ctx, path)
		if err == nil {
			err = ing.store.Insert(ctx, ing.opts.Partition, rows)
		}
		if err != nil {
			ing.quarantine(path, err, stats)
			continue
		}

		if err := os.Remove(path); err != nil {
			return fmt.Errorf("removing ingested file %s: %w", path, err)
		}

		*processed = append(*processed, path)
		stats.Ingested++
		stats.Chunks += len(rows)
		sinceFlush++

		if sinceFlush >= ing.opts.FlushEvery {
			if err := ing.store.Flush(ctx); err != nil {
				return fmt.Errorf("flushing after %d insertions: %w", stats.Ingested, err)
			}
			if err := checkpoint.SaveProcessedFiles(ing.opts.CheckpointPath, *processed); err != nil {
				return err
			}
			sinceFlush = 0
		}
	}

	return nil
}

// listSourceFiles enumerates the unprocessed .json files under the source
// folder in walk order.
func (ing *Ingestor) listSourceFiles() ([]string, error) {
	var files []string
	err := filepath.WalkDir(ing.opts.SourceDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), document.FileSuffix) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking source folder: %w", err)
	}
	return files, nil
}

// processFile turns one converted document into vector-store rows: bound
// metadata fields, cleaned content, one row per chunk with its normalized
// embedding.
func (ing *Ingestor) processFile(ctx context.Context, path string) ([]vectordb.Row, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading document: %w", err)
	}

	var doc document.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing document: %w", err)
	}
	if doc.Title == "" {
		return nil, fmt.Errorf("document has empty title")
	}

	title := document.BoundField(doc.Title, document.MaxTitleLen)
	date := document.BoundField(doc.Date, document.MaxDateLen)
	authors := document.BoundField(document.JoinAuthors(doc.Authors), document.MaxAuthorsLen)
	abstract := document.BoundField(doc.Abstract, document.MaxAbstractLen)
	keywords := document.BoundField(strings.Join(doc.Keywords, ", "), document.MaxKeywordsLen)
	category := document.BoundField(ing.category(path), document.MaxCategoryLen)
	docID := document.ID(title, authors, date)

	chunks := ing.chunk(doc.LatexDoc)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("document has no content")
	}

	rows := make([]vectordb.Row, 0, len(chunks))
	for _, chunk := range chunks {
		embedText := chunk
		if len(embedText) > embedding.MaxEmbedChars {
			embedText = document.CleanDescription(embedText)
		}

		emb, err := embedding.EmbedNormalized(ctx, ing.provider, embedText)
		if err != nil {
			return nil, fmt.Errorf("embedding chunk: %w", err)
		}

		rows = append(rows, vectordb.Row{
			DocumentID: docID,
			Title:      title,
			Date:       date,
			Authors:    authors,
			Abstract:   abstract,
			Keywords:   keywords,
			Category:   category,
			Content:    document.Truncate(chunk, document.MaxChunkLen),
			Vector:     emb.Vector,
		})
	}

	return rows, nil
}

// chunk cleans and splits document content. The notes partition holds prose;
// everything else is LaTeX.
func (ing *Ingestor) chunk(content string) []string {
	var sp *document.Splitter
	if ing.opts.Partition == NotesPartition {
		content = document.CleanDescription(content)
		sp = document.NewPlainSplitter(ing.opts.ChunkSize, ing.opts.ChunkOverlap)
	} else {
		content = document.CleanLatex(content)
		sp = document.NewLatexSplitter(ing.opts.ChunkSize, ing.opts.ChunkOverlap)
	}
	return sp.Split(content)
}

// category derives the partition-local category label from the file's
// relative folder path.
func (ing *Ingestor) category(path string) string {
	rel, err := filepath.Rel(ing.opts.SourceDir, filepath.Dir(path))
	if err != nil || rel == "." {
		return filepath.Base(ing.opts.SourceDir)
	}
	return strings.ReplaceAll(rel, string(filepath.Separator), "_")
}

// quarantine moves a failed file aside so the batch can continue, recording
// the failure for the run report.
func (ing *Ingestor) quarantine(path string, cause error, stats *Stats) {
	stats.Failed++
	stats.Failures = append(stats.Failures, Failure{Path: path, Err: cause.Error()})

	if ing.opts.FailedDir == "" {
		return
	}
	if err := os.MkdirAll(ing.opts.FailedDir, 0755); err != nil {
		return
	}
	dest := filepath.Join(ing.opts.FailedDir, filepath.Base(path))
	os.Rename(path, dest)
}
