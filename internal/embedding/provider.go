package embedding

import (
	"context"

	"github.com/qgr-lab/qgr/internal/document"
)

// MaxEmbedChars is the character window passed to the embedding model. Text
// beyond this length contributes nothing to the sentence-level embedding, so
// inputs are truncated before the model call.
const MaxEmbedChars = 512

// Provider generates embeddings from text.
type Provider interface {
	// Embed generates an embedding for the given text.
	Embed(ctx context.Context, text string) (Embedding, error)

	// ModelName returns the name of the embedding model.
	ModelName() string

	// Dimensions returns the expected vector dimensions.
	Dimensions() int
}

// EmbedNormalized truncates text to at most MaxEmbedChars bytes on a rune
// boundary, generates its embedding, and normalizes the result to unit
// length. Both ingestion and query paths must go through this so stored and
// query vectors share one geometry.
func EmbedNormalized(ctx context.Context, p Provider, text string) (Embedding, error) {
	text = document.Truncate(text, MaxEmbedChars)
	emb, err := p.Embed(ctx, text)
	if err != nil {
		return Embedding{}, err
	}
	emb.Normalize()
	return emb, nil
}
