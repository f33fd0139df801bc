// Package embedding provides text embedding for document indexing and search.
package embedding

import "context"

// Embedder produces vector embeddings for text. The same embedder must be
// used at ingestion and query time for scores to be comparable.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}
