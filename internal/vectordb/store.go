// Package vectordb wraps the Milvus vector store behind an explicit session
// with collection, partition, and index lifecycle management.
package vectordb

import (
	"context"
	"errors"
	"fmt"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
)

const (
	// DefaultAddress is the default Milvus endpoint.
	DefaultAddress = "localhost:19530"

	// DefaultCollection is the default collection name.
	DefaultCollection = "mypapers"

	// VectorField is the name of the embedding field.
	VectorField = "content_vector"

	// DefaultDim is the embedding width the collection schema is created
	// with. Must match the embedding model's output.
	DefaultDim = 384

	// DefaultNlist is the IVF cluster count used when building the index.
	DefaultNlist = 1024

	// DefaultNprobe is the cluster probe count used at search time.
	DefaultNprobe = 1000
)

// VarChar field capacities in the collection schema.
const (
	documentIDMaxLen = 256
	titleMaxLen      = 1024
	dateMaxLen       = 256
	authorsMaxLen    = 1024
	abstractMaxLen   = 4096
	keywordsMaxLen   = 1024
	categoryMaxLen   = 256
	contentMaxLen    = 1024
)

// Errors returned by store operations.
var (
	ErrCollectionNotFound = errors.New("collection not found")
	ErrDimensionMismatch  = errors.New("vector dimension mismatch")
)

// missingCollection wraps ErrCollectionNotFound with the collection name so
// callers can both match the sentinel and name the collection.
func missingCollection(name string) error {
	return fmt.Errorf("%w: %s", ErrCollectionNotFound, name)
}

// outputFields are the scalar fields returned by searches and queries.
var outputFields = []string{
	"documentId", "title", "date", "authors", "abstract", "keywords", "category", "content",
}

// Store is a session against one Milvus collection. Open it at startup and
// close it at shutdown; every component that talks to the vector store holds
// a *Store rather than ambient connection state.
type Store struct {
	c          client.Client
	collection string
	dim        int
}

// Option configures a Store.
type Option func(*Store)

// WithCollection sets the collection name.
func WithCollection(name string) Option {
	return func(s *Store) {
		s.collection = name
	}
}

// WithDim sets the embedding width used for schema creation and insert
// validation.
func WithDim(dim int) Option {
	return func(s *Store) {
		s.dim = dim
	}
}

// Connect opens a session to the Milvus service at addr.
func Connect(ctx context.Context, addr string, opts ...Option) (*Store, error) {
	s := &Store{
		collection: DefaultCollection,
		dim:        DefaultDim,
	}
	for _, opt := range opts {
		opt(s)
	}

	c, err := client.NewClient(ctx, client.Config{Address: addr})
	if err != nil {
		return nil, fmt.Errorf("connecting to milvus at %s: %w", addr, err)
	}
	s.c = c
	return s, nil
}

// Close terminates the session.
func (s *Store) Close() error {
	return s.c.Close()
}

// Collection returns the collection name this session operates on.
func (s *Store) Collection() string {
	return s.collection
}

// Dim returns the configured embedding width.
func (s *Store) Dim() int {
	return s.dim
}

// ListCollections returns the names of all collections in the store.
func (s *Store) ListCollections(ctx context.Context) ([]string, error) {
	colls, err := s.c.ListCollections(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing collections: %w", err)
	}

	names := make([]string, 0, len(colls))
	for _, coll := range colls {
		names = append(names, coll.Name)
	}
	return names, nil
}

// EnsureCollection creates the paper collection with the fixed schema if it
// does not already exist.
func (s *Store) EnsureCollection(ctx context.Context) error {
	has, err := s.c.HasCollection(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("checking collection %s: %w", s.collection, err)
	}
	if has {
		return nil
	}

	schema := s.schema()
	if err := s.c.CreateCollection(ctx, schema, entity.DefaultShardNumber); err != nil {
		return fmt.Errorf("creating collection %s: %w", s.collection, err)
	}
	return nil
}

// schema builds the collection schema: an auto-generated primary key, the
// document metadata fields, one content chunk, and its embedding vector.
func (s *Store) schema() *entity.Schema {
	varchar := func(name string, maxLen int) *entity.Field {
		return entity.NewField().
			WithName(name).
			WithDataType(entity.FieldTypeVarChar).
			WithMaxLength(int64(maxLen))
	}

	return &entity.Schema{
		CollectionName: s.collection,
		Description:    "scientific papers, one row per content chunk",
		AutoID:         true,
		Fields: []*entity.Field{
			entity.NewField().
				WithName("id").
				WithDataType(entity.FieldTypeInt64).
				WithIsPrimaryKey(true).
				WithIsAutoID(true),
			varchar("documentId", documentIDMaxLen),
			varchar("title", titleMaxLen),
			varchar("date", dateMaxLen),
			varchar("authors", authorsMaxLen),
			varchar("abstract", abstractMaxLen),
			varchar("keywords", keywordsMaxLen),
			varchar("category", categoryMaxLen),
			varchar("content", contentMaxLen),
			entity.NewField().
				WithName(VectorField).
				WithDataType(entity.FieldTypeFloatVector).
				WithDim(int64(s.dim)),
		},
	}
}

// EnsurePartition creates the named partition if missing. The default
// partition always exists and needs no creation.
func (s *Store) EnsurePartition(ctx context.Context, name string) error {
	if name == "" || name == "_default" {
		return nil
	}

	has, err := s.c.HasPartition(ctx, s.collection, name)
	if err != nil {
		return fmt.Errorf("checking partition %s: %w", name, err)
	}
	if has {
		return nil
	}

	if err := s.c.CreatePartition(ctx, s.collection, name); err != nil {
		return fmt.Errorf("creating partition %s: %w", name, err)
	}
	return nil
}

// CreateVectorIndex builds an IVF_FLAT inner-product index over the
// embedding field. nlist trades build time against search accuracy.
func (s *Store) CreateVectorIndex(ctx context.Context, nlist int) error {
	if nlist <= 0 {
		nlist = DefaultNlist
	}

	idx, err := entity.NewIndexIvfFlat(entity.IP, nlist)
	if err != nil {
		return fmt.Errorf("building index definition: %w", err)
	}

	if err := s.c.CreateIndex(ctx, s.collection, VectorField, idx, false); err != nil {
		return fmt.Errorf("creating vector index: %w", err)
	}
	return nil
}

// RowCount returns the number of rows in the collection. A missing
// collection reports ErrCollectionNotFound rather than a driver error.
func (s *Store) RowCount(ctx context.Context) (int64, error) {
	has, err := s.c.HasCollection(ctx, s.collection)
	if err != nil {
		return 0, fmt.Errorf("checking collection %s: %w", s.collection, err)
	}
	if !has {
		return 0, missingCollection(s.collection)
	}

	stats, err := s.c.GetCollectionStatistics(ctx, s.collection)
	if err != nil {
		return 0, fmt.Errorf("reading collection statistics: %w", err)
	}

	var count int64
	fmt.Sscanf(stats["row_count"], "%d", &count)
	return count, nil
}

// Insert writes rows into the named partition, one vector-store row per
// content chunk. All rows are validated against the configured dimension
// before anything is sent.
func (s *Store) Insert(ctx context.Context, partition string, rows []Row) error {
	if len(rows) == 0 {
		return nil
	}

	n := len(rows)
	docIDs := make([]string, n)
	titles := make([]string, n)
	dates := make([]string, n)
	authors := make([]string, n)
	abstracts := make([]string, n)
	keywords := make([]string, n)
	categories := make([]string, n)
	contents := make([]string, n)
	vectors := make([][]float32, n)

	for i, row := range rows {
		if len(row.Vector) != s.dim {
			return fmt.Errorf("%w: row %d has %d dimensions, collection expects %d",
				ErrDimensionMismatch, i, len(row.Vector), s.dim)
		}
		docIDs[i] = row.DocumentID
		titles[i] = row.Title
		dates[i] = row.Date
		authors[i] = row.Authors
		abstracts[i] = row.Abstract
		keywords[i] = row.Keywords
		categories[i] = row.Category
		contents[i] = row.Content
		vectors[i] = row.Vector
	}

	_, err := s.c.Insert(ctx, s.collection, partition,
		entity.NewColumnVarChar("documentId", docIDs),
		entity.NewColumnVarChar("title", titles),
		entity.NewColumnVarChar("date", dates),
		entity.NewColumnVarChar("authors", authors),
		entity.NewColumnVarChar("abstract", abstracts),
		entity.NewColumnVarChar("keywords", keywords),
		entity.NewColumnVarChar("category", categories),
		entity.NewColumnVarChar("content", contents),
		entity.NewColumnFloatVector(VectorField, s.dim, vectors),
	)
	if err != nil {
		return fmt.Errorf("inserting %d rows: %w", n, err)
	}
	return nil
}

// Flush forces inserted rows to durable storage. Called every flush interval
// by the ingestor and once at loop exit.
func (s *Store) Flush(ctx context.Context) error {
	if err := s.c.Flush(ctx, s.collection, false); err != nil {
		return fmt.Errorf("flushing collection %s: %w", s.collection, err)
	}
	return nil
}

// Row is one vector-store row: a single content chunk with its document's
// metadata and the chunk's embedding.
type Row struct {
	DocumentID string
	Title      string
	Date       string
	Authors    string
	Abstract   string
	Keywords   string
	Category   string
	Content    string
	Vector     []float32
}
