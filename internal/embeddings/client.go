// Package embeddings defines the embedding client interface consumed by the
// vector store and job pipeline, plus a deterministic mock for tests.
package embeddings

import "context"

// Client generates embedding vectors for text.
// Implemented by provider-specific clients (e.g. the OpenAI SDK wrapper).
type Client interface {
	// CreateEmbedding generates an embedding vector for the given text.
	CreateEmbedding(ctx context.Context, input string) ([]float32, error)

	// CreateEmbeddings generates embedding vectors for multiple texts in a
	// batch, in input order. More efficient than repeated CreateEmbedding calls.
	CreateEmbeddings(ctx context.Context, inputs []string) ([][]float32, error)
}
