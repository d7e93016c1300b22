// Package embedding provides vector embedding generation for text.
package embedding

import "math"

// Embedding represents a vector embedding of text.
type Embedding struct {
	Vector []float32 // The embedding vector (e.g., 384 dimensions for all-minilm)
}

// Dimensions returns the dimensionality of the embedding.
func (e Embedding) Dimensions() int {
	return len(e.Vector)
}

// Normalize scales the vector to unit L2 norm in place. Inner-product
// similarity over normalized vectors is equivalent to cosine similarity,
// the metric the vector store index is built with. A zero vector is left
// unchanged.
func (e Embedding) Normalize() {
	var sum float64
	for _, v := range e.Vector {
		sum += float64(v) * float64(v)
	}
	norm := math.Sqrt(sum)
	if norm == 0 {
		return
	}
	for i := range e.Vector {
		e.Vector[i] = float32(float64(e.Vector[i]) / norm)
	}
}
