package ingest

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/qgr-lab/qgr/internal/checkpoint"
	"github.com/qgr-lab/qgr/internal/document"
	"github.com/qgr-lab/qgr/internal/embedding"
	"github.com/qgr-lab/qgr/internal/vectordb"
)

// fakeStore records inserts and flushes in memory.
type fakeStore struct {
	rows      []vectordb.Row
	inserts   int
	flushes   int
	insertErr error
}

func (s *fakeStore) Insert(ctx context.Context, partition string, rows []vectordb.Row) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	s.rows = append(s.rows, rows...)
	s.inserts++
	return nil
}

func (s *fakeStore) Flush(ctx context.Context) error {
	s.flushes++
	return nil
}

// fakeProvider returns a constant unit vector.
type fakeProvider struct {
	calls int
}

func (p *fakeProvider) Embed(ctx context.Context, text string) (embedding.Embedding, error) {
	p.calls++
	v := make([]float32, 4)
	v[0] = 1
	return embedding.Embedding{Vector: v}, nil
}

func (p *fakeProvider) ModelName() string { return "fake" }
func (p *fakeProvider) Dimensions() int   { return 4 }

// writeDoc writes a converted document JSON file.
func writeDoc(t *testing.T, path string, doc document.Document) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
}

func testDoc(title string) document.Document {
	return document.Document{
		Title:    title,
		Date:     "2023-01-01",
		Authors:  []string{"Ada Lovelace"},
		Abstract: "An abstract.",
		LatexDoc: "\\title{" + title + "}\nSome body content here.",
	}
}

func newTestIngestor(t *testing.T, store Store, opts Options) (*Ingestor, Options) {
	t.Helper()
	if opts.SourceDir == "" {
		opts.SourceDir = t.TempDir()
	}
	if opts.FailedDir == "" {
		opts.FailedDir = t.TempDir()
	}
	if opts.CheckpointPath == "" {
		opts.CheckpointPath = filepath.Join(t.TempDir(), "processed_files.json")
	}
	return New(store, &fakeProvider{}, opts), opts
}

func TestRunIngestsDocuments(t *testing.T) {
	store := &fakeStore{}
	ing, opts := newTestIngestor(t, store, Options{})

	writeDoc(t, filepath.Join(opts.SourceDir, "a.json"), testDoc("Paper A"))
	writeDoc(t, filepath.Join(opts.SourceDir, "b.json"), testDoc("Paper B"))

	stats, err := ing.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if stats.Ingested != 2 {
		t.Errorf("Ingested = %d, want 2", stats.Ingested)
	}
	if stats.Chunks == 0 || len(store.rows) != stats.Chunks {
		t.Errorf("Chunks = %d, store holds %d rows", stats.Chunks, len(store.rows))
	}
	if stats.Remaining != 0 {
		t.Errorf("Remaining = %d, want 0", stats.Remaining)
	}

	// Ingested files are removed from the source folder.
	if _, err := os.Stat(filepath.Join(opts.SourceDir, "a.json")); !os.IsNotExist(err) {
		t.Error("ingested file still present in source folder")
	}

	// The checkpoint lists both files.
	processed, err := checkpoint.LoadProcessedFiles(opts.CheckpointPath)
	if err != nil {
		t.Fatal(err)
	}
	if len(processed) != 2 {
		t.Errorf("checkpoint holds %d entries, want 2", len(processed))
	}

	// Every row carries bounded metadata and the shared document ID.
	for _, row := range store.rows {
		if row.DocumentID == "" || row.Title == "" {
			t.Errorf("row missing identity fields: %+v", row)
		}
		if len(row.Content) > document.MaxChunkLen {
			t.Errorf("row content exceeds cap: %d bytes", len(row.Content))
		}
	}
}

func TestRunSkipsCheckpointedFiles(t *testing.T) {
	store := &fakeStore{}
	ing, opts := newTestIngestor(t, store, Options{})

	path := filepath.Join(opts.SourceDir, "a.json")
	writeDoc(t, path, testDoc("Paper A"))
	if err := checkpoint.SaveProcessedFiles(opts.CheckpointPath, []string{path}); err != nil {
		t.Fatal(err)
	}

	stats, err := ing.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if stats.Skipped != 1 || stats.Ingested != 0 {
		t.Errorf("stats = %+v, want 1 skipped and 0 ingested", stats)
	}
	if store.inserts != 0 {
		t.Errorf("store received %d inserts for a skipped file", store.inserts)
	}
	// Skipped files stay in the source folder.
	if _, err := os.Stat(path); err != nil {
		t.Error("skipped file was removed from source folder")
	}
}

func TestRunQuarantinesBadFiles(t *testing.T) {
	store := &fakeStore{}
	ing, opts := newTestIngestor(t, store, Options{})

	writeDoc(t, filepath.Join(opts.SourceDir, "good.json"), testDoc("Good Paper"))
	badPath := filepath.Join(opts.SourceDir, "bad.json")
	if err := os.WriteFile(badPath, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	stats, err := ing.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if stats.Ingested != 1 || stats.Failed != 1 {
		t.Errorf("stats = %+v, want 1 ingested and 1 failed", stats)
	}
	if len(stats.Failures) != 1 || stats.Failures[0].Err == "" {
		t.Errorf("Failures = %+v", stats.Failures)
	}

	// The bad file moved to quarantine, not deleted.
	if _, err := os.Stat(badPath); !os.IsNotExist(err) {
		t.Error("bad file still in source folder")
	}
	if _, err := os.Stat(filepath.Join(opts.FailedDir, "bad.json")); err != nil {
		t.Error("bad file not found in quarantine folder")
	}
}

func TestRunHonorsMaxFiles(t *testing.T) {
	store := &fakeStore{}
	ing, opts := newTestIngestor(t, store, Options{MaxFiles: 2})

	for _, name := range []string{"a.json", "b.json", "c.json"} {
		writeDoc(t, filepath.Join(opts.SourceDir, name), testDoc("Paper "+name))
	}

	stats, err := ing.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if stats.Ingested != 2 {
		t.Errorf("Ingested = %d, want 2", stats.Ingested)
	}
	if stats.Remaining != 1 {
		t.Errorf("Remaining = %d, want 1", stats.Remaining)
	}
}

func TestRunFlushesPeriodically(t *testing.T) {
	store := &fakeStore{}
	ing, opts := newTestIngestor(t, store, Options{FlushEvery: 2})

	for _, name := range []string{"a.json", "b.json", "c.json", "d.json", "e.json"} {
		writeDoc(t, filepath.Join(opts.SourceDir, name), testDoc("Paper "+name))
	}

	if _, err := ing.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	// Two periodic flushes after files 2 and 4, plus the final flush.
	if store.flushes != 3 {
		t.Errorf("flushes = %d, want 3", store.flushes)
	}
}

func TestRunFinalFlushOnInsertFailure(t *testing.T) {
	store := &fakeStore{insertErr: os.ErrPermission}
	ing, opts := newTestIngestor(t, store, Options{})

	writeDoc(t, filepath.Join(opts.SourceDir, "a.json"), testDoc("Paper A"))

	stats, err := ing.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	// Insert failures quarantine the file rather than aborting the run,
	// and the final flush still happens.
	if stats.Failed != 1 {
		t.Errorf("Failed = %d, want 1", stats.Failed)
	}
	if store.flushes == 0 {
		t.Error("no final flush on a failing run")
	}
}

func TestCategoryFromRelativeDir(t *testing.T) {
	store := &fakeStore{}
	ing, opts := newTestIngestor(t, store, Options{})

	writeDoc(t, filepath.Join(opts.SourceDir, "ml", "vision", "a.json"), testDoc("Nested Paper"))

	if _, err := ing.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(store.rows) == 0 {
		t.Fatal("no rows inserted")
	}
	if got := store.rows[0].Category; got != "ml_vision" {
		t.Errorf("Category = %q, want ml_vision", got)
	}
}

func TestCategoryAtSourceRoot(t *testing.T) {
	store := &fakeStore{}
	ing, opts := newTestIngestor(t, store, Options{})

	writeDoc(t, filepath.Join(opts.SourceDir, "a.json"), testDoc("Root Paper"))

	if _, err := ing.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(store.rows) == 0 {
		t.Fatal("no rows inserted")
	}
	if got := store.rows[0].Category; got != filepath.Base(opts.SourceDir) {
		t.Errorf("Category = %q, want source folder name", got)
	}
}
