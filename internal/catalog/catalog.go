// Package catalog maintains an ephemeral SQLite index over the converted
// document tree for fast local listing and search. The converted JSON files
// are the source of truth; the catalog can be dropped and rebuilt at any
// time.
package catalog

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/qgr-lab/qgr/internal/document"
	_ "modernc.org/sqlite"
)

// DB wraps the catalog database connection.
type DB struct {
	db *sql.DB
}

// Entry is one cataloged document.
type Entry struct {
	DocumentID string   `json:"documentId"`
	Path       string   `json:"path"`
	Title      string   `json:"title"`
	Date       string   `json:"date,omitempty"`
	Authors    []string `json:"authors,omitempty"`
	Abstract   string   `json:"abstract,omitempty"`
	Keywords   []string `json:"keywords,omitempty"`
	Category   string   `json:"category,omitempty"`
}

// Open opens or creates the catalog database at path.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating catalog directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}

	// SQLite doesn't support concurrent writes
	db.SetMaxOpenConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating catalog schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// createSchema creates the catalog schema if it doesn't exist.
func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS documents (
			path TEXT PRIMARY KEY,
			document_id TEXT NOT NULL,
			title TEXT NOT NULL,
			date TEXT,
			authors_json TEXT NOT NULL,
			abstract TEXT,
			keywords_json TEXT NOT NULL,
			category TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_documents_document_id ON documents(document_id);
	`
	_, err := db.Exec(schema)
	return err
}

// Rebuild clears the catalog and repopulates it from the converted tree.
// Returns the number of documents cataloged.
func (d *DB) Rebuild(convertedRoot string) (int, error) {
	tx, err := d.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("starting rebuild: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM documents"); err != nil {
		return 0, fmt.Errorf("clearing catalog: %w", err)
	}

	count := 0
	err = filepath.WalkDir(convertedRoot, func(path string, de fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if de.IsDir() || !strings.HasSuffix(de.Name(), document.FileSuffix) {
			return nil
		}

		entry, err := entryFromFile(convertedRoot, path)
		if err != nil {
			// A malformed file is skipped, not fatal: the converted tree
			// may contain partial output from an interrupted run.
			return nil
		}

		if err := insertEntry(tx, entry); err != nil {
			return fmt.Errorf("cataloging %s: %w", path, err)
		}
		count++
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("walking converted tree: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing rebuild: %w", err)
	}
	return count, nil
}

// entryFromFile reads one converted document into a catalog entry.
func entryFromFile(root, path string) (*Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var doc document.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Title == "" {
		return nil, fmt.Errorf("empty title")
	}

	category := ""
	if rel, err := filepath.Rel(root, filepath.Dir(path)); err == nil && rel != "." {
		category = strings.ReplaceAll(rel, string(filepath.Separator), "_")
	}

	authors := document.JoinAuthors(doc.Authors)
	return &Entry{
		DocumentID: document.ID(doc.Title, authors, doc.Date),
		Path:       path,
		Title:      doc.Title,
		Date:       doc.Date,
		Authors:    doc.Authors,
		Abstract:   doc.Abstract,
		Keywords:   doc.Keywords,
		Category:   category,
	}, nil
}

// insertEntry writes one entry within a transaction.
func insertEntry(tx *sql.Tx, e *Entry) error {
	authorsJSON, err := json.Marshal(e.Authors)
	if err != nil {
		return err
	}
	keywordsJSON, err := json.Marshal(e.Keywords)
	if err != nil {
		return err
	}

	_, err = tx.Exec(`
		INSERT OR REPLACE INTO documents
			(path, document_id, title, date, authors_json, abstract, keywords_json, category)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Path, e.DocumentID, e.Title, e.Date, string(authorsJSON), e.Abstract, string(keywordsJSON), e.Category)
	return err
}

// List returns up to limit entries ordered by title. limit <= 0 returns all.
func (d *DB) List(limit int) ([]Entry, error) {
	query := "SELECT " + selectFields + " FROM documents ORDER BY title"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	return d.queryEntries(query)
}

// Search returns entries whose title or abstract contains the term.
func (d *DB) Search(term string, limit int) ([]Entry, error) {
	query := "SELECT " + selectFields + ` FROM documents
		WHERE title LIKE ? OR abstract LIKE ?
		ORDER BY title`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	like := "%" + term + "%"
	return d.queryEntries(query, like, like)
}

// GetByDocumentID returns the entry for a document identifier, or nil.
func (d *DB) GetByDocumentID(id string) (*Entry, error) {
	entries, err := d.queryEntries(
		"SELECT "+selectFields+" FROM documents WHERE document_id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}
	return &entries[0], nil
}

// Count returns the number of cataloged documents.
func (d *DB) Count() (int, error) {
	var n int
	if err := d.db.QueryRow("SELECT COUNT(*) FROM documents").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting documents: %w", err)
	}
	return n, nil
}

const selectFields = "path, document_id, title, date, authors_json, abstract, keywords_json, category"

// queryEntries runs a SELECT over the documents table and scans entries.
func (d *DB) queryEntries(query string, args ...any) ([]Entry, error) {
	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying catalog: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var date, abstract, category sql.NullString
		var authorsJSON, keywordsJSON string

		if err := rows.Scan(&e.Path, &e.DocumentID, &e.Title, &date, &authorsJSON, &abstract, &keywordsJSON, &category); err != nil {
			return nil, fmt.Errorf("scanning catalog row: %w", err)
		}
		e.Date = date.String
		e.Abstract = abstract.String
		e.Category = category.String

		if err := json.Unmarshal([]byte(authorsJSON), &e.Authors); err != nil {
			return nil, fmt.Errorf("parsing authors for %s: %w", e.Path, err)
		}
		if err := json.Unmarshal([]byte(keywordsJSON), &e.Keywords); err != nil {
			return nil, fmt.Errorf("parsing keywords for %s: %w", e.Path, err)
		}

		entries = append(entries, e)
	}
	return entries, rows.Err()
}
