package vectordb

// DocumentHits aggregates the chunk-level hits of one logical document.
type DocumentHits struct {
	DocumentID string   `json:"documentId"`
	Title      string   `json:"title"`
	Date       string   `json:"date"`
	Authors    string   `json:"authors"`
	Abstract   string   `json:"abstract"`
	Keywords   string   `json:"keywords"`
	Category   string   `json:"category"`
	Contents   []string `json:"contents"`
	Score      float32  `json:"score"`
}

// GroupByDocument collapses chunk-level hits into one entry per documentId,
// preserving first-seen order. Each entry collects every matching chunk's
// content; the score is the first-seen (highest, given descending input)
// score for that document.
func GroupByDocument(hits []Hit) []DocumentHits {
	var order []string
	byID := make(map[string]*DocumentHits)

	for _, hit := range hits {
		group, ok := byID[hit.DocumentID]
		if !ok {
			group = &DocumentHits{
				DocumentID: hit.DocumentID,
				Title:      hit.Title,
				Date:       hit.Date,
				Authors:    hit.Authors,
				Abstract:   hit.Abstract,
				Keywords:   hit.Keywords,
				Category:   hit.Category,
				Score:      hit.Score,
			}
			byID[hit.DocumentID] = group
			order = append(order, hit.DocumentID)
		}
		group.Contents = append(group.Contents, hit.Content)
		if hit.Score > group.Score {
			group.Score = hit.Score
		}
	}

	out := make([]DocumentHits, 0, len(order))
	for _, id := range order {
		out = append(out, *byID[id])
	}
	return out
}
