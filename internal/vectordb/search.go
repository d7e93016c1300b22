package vectordb

import (
	"context"
	"fmt"
	"strings"

	"github.com/milvus-io/milvus-sdk-go/v2/entity"
)

// Hit is one chunk-level search result.
type Hit struct {
	Score      float32 `json:"score"`
	DocumentID string  `json:"documentId"`
	Title      string  `json:"title"`
	Date       string  `json:"date"`
	Authors    string  `json:"authors"`
	Abstract   string  `json:"abstract"`
	Keywords   string  `json:"keywords"`
	Category   string  `json:"category"`
	Content    string  `json:"content"`
}

// SearchOptions control a similarity search.
type SearchOptions struct {
	Partitions []string // empty searches the whole collection
	Expr       string   // optional boolean filter expression
	Limit      int
	Nprobe     int
}

// Search embeds nothing: it takes an already-normalized query vector and
// returns up to Limit hits ordered by descending inner-product score.
func (s *Store) Search(ctx context.Context, vector []float32, opts SearchOptions) ([]Hit, error) {
	if len(vector) != s.dim {
		return nil, fmt.Errorf("%w: query has %d dimensions, collection expects %d",
			ErrDimensionMismatch, len(vector), s.dim)
	}
	if opts.Limit <= 0 {
		opts.Limit = 10
	}
	if opts.Nprobe <= 0 {
		opts.Nprobe = DefaultNprobe
	}

	if err := s.c.LoadCollection(ctx, s.collection, false); err != nil {
		return nil, fmt.Errorf("loading collection: %w", err)
	}

	sp, err := entity.NewIndexIvfFlatSearchParam(opts.Nprobe)
	if err != nil {
		return nil, fmt.Errorf("building search params: %w", err)
	}

	results, err := s.c.Search(ctx, s.collection, opts.Partitions, opts.Expr,
		outputFields, []entity.Vector{entity.FloatVector(vector)},
		VectorField, entity.IP, opts.Limit, sp)
	if err != nil {
		return nil, fmt.Errorf("searching: %w", err)
	}

	var hits []Hit
	for _, result := range results {
		for i := 0; i < result.ResultCount; i++ {
			hit := Hit{Score: result.Scores[i]}
			hit.DocumentID = columnString(result.Fields, "documentId", i)
			hit.Title = columnString(result.Fields, "title", i)
			hit.Date = columnString(result.Fields, "date", i)
			hit.Authors = columnString(result.Fields, "authors", i)
			hit.Abstract = columnString(result.Fields, "abstract", i)
			hit.Keywords = columnString(result.Fields, "keywords", i)
			hit.Category = columnString(result.Fields, "category", i)
			hit.Content = columnString(result.Fields, "content", i)
			hits = append(hits, hit)
		}
	}

	// Milvus returns hits ordered per query vector; with a single query the
	// order is already descending by score.
	return hits, nil
}

// columnGetter is the subset of the result-set API used to read values.
type columnGetter interface {
	GetColumn(name string) entity.Column
}

// columnString reads a varchar value from a result set, returning "" for a
// missing column or out-of-range index.
func columnString(rs columnGetter, name string, idx int) string {
	col := rs.GetColumn(name)
	if col == nil {
		return ""
	}
	v, err := col.GetAsString(idx)
	if err != nil {
		return ""
	}
	return v
}

// DeleteCandidates queries the primary keys of all rows belonging to a
// document and returns them with the delete expression that would remove
// them. It does not delete anything.
func (s *Store) DeleteCandidates(ctx context.Context, documentID string) ([]int64, string, error) {
	if err := s.c.LoadCollection(ctx, s.collection, false); err != nil {
		return nil, "", fmt.Errorf("loading collection: %w", err)
	}

	expr := fmt.Sprintf("documentId == %q", documentID)
	rs, err := s.c.Query(ctx, s.collection, nil, expr, []string{"id"})
	if err != nil {
		return nil, "", fmt.Errorf("querying candidates: %w", err)
	}

	idCol := rs.GetColumn("id")
	if idCol == nil {
		return nil, "", nil
	}

	ids := make([]int64, 0, idCol.Len())
	for i := 0; i < idCol.Len(); i++ {
		id, err := idCol.GetAsInt64(i)
		if err != nil {
			return nil, "", fmt.Errorf("reading candidate id: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, deleteExpr(ids), nil
}

// Delete removes rows matching the expression. Callers are expected to pass
// an expression computed by DeleteCandidates.
func (s *Store) Delete(ctx context.Context, expr string) error {
	if expr == "" {
		return nil
	}
	if err := s.c.Delete(ctx, s.collection, "", expr); err != nil {
		return fmt.Errorf("deleting rows: %w", err)
	}
	return nil
}

// deleteExpr renders a primary-key IN expression for the given ids.
func deleteExpr(ids []int64) string {
	if len(ids) == 0 {
		return ""
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return fmt.Sprintf("id in [%s]", strings.Join(parts, ", "))
}
