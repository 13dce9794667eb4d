package embedding

import (
	"context"
	"fmt"
)

type Embedder interface {
	BatchSize() int
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Embeddable is a document that carries its own vector.
type Embeddable interface {
	GetEmbeddingString() string
	SetEmbedding(embedding []float32)
}

// EmbedDocuments fills the vectors of docs in batches of e.BatchSize().
func EmbedDocuments[T Embeddable](ctx context.Context, e Embedder, docs []T) error {
	size := max(e.BatchSize(), 1)
	for start := 0; start < len(docs); start += size {
		batch := docs[start:min(start+size, len(docs))]
		texts := make([]string, len(batch))
		for i, d := range batch {
			texts[i] = d.GetEmbeddingString()
		}
		vectors, err := e.Embed(ctx, texts)
		if err != nil {
			return fmt.Errorf("failed to embed batch at %d: %w", start, err)
		}
		if len(vectors) != len(batch) {
			return fmt.Errorf("embedder returned %d vectors for %d texts", len(vectors), len(batch))
		}
		for i, d := range batch {
			d.SetEmbedding(vectors[i])
		}
	}
	return nil
}
