package embeddings

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math"
)

// MockClient implements the Client interface for testing purposes.
// It generates deterministic embeddings based on the input text hash, so the
// same text always maps to the same unit vector and different texts rarely
// collide.
type MockClient struct {
	dimensions int
}

// NewMockClient creates a new mock embedding client.
// Default dimensions is 1536 to match OpenAI's text-embedding-3-small.
func NewMockClient() *MockClient {
	return &MockClient{dimensions: 1536}
}

// NewMockClientWithDimensions creates a mock client with custom dimensions.
func NewMockClientWithDimensions(dimensions int) *MockClient {
	return &MockClient{dimensions: dimensions}
}

// CreateEmbedding generates a deterministic embedding based on the text hash.
func (c *MockClient) CreateEmbedding(ctx context.Context, input string) ([]float32, error) {
	if input == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}

	return c.deterministicEmbedding(input), nil
}

// CreateEmbeddings generates embeddings for multiple texts.
// Returns an error if any text is empty.
func (c *MockClient) CreateEmbeddings(ctx context.Context, inputs []string) ([][]float32, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("texts cannot be empty")
	}

	out := make([][]float32, len(inputs))
	for i, text := range inputs {
		if text == "" {
			return nil, fmt.Errorf("text at index %d cannot be empty", i)
		}

		out[i] = c.deterministicEmbedding(text)
	}

	return out, nil
}

// deterministicEmbedding creates a normalized embedding vector from the text hash.
func (c *MockClient) deterministicEmbedding(text string) []float32 {
	hash := sha256.Sum256([]byte(text))
	embedding := make([]float32, c.dimensions)

	// Stretch the 32 hash bytes across the vector by re-hashing with a counter.
	seed := hash
	for i := 0; i < c.dimensions; i++ {
		if i > 0 && i%len(seed) == 0 {
			var counter [8]byte
			binary.BigEndian.PutUint64(counter[:], uint64(i))
			seed = sha256.Sum256(append(seed[:], counter[:]...))
		}

		b := seed[i%len(seed)]
		embedding[i] = (float32(b) / 127.5) - 1.0
	}

	return normalize(embedding)
}

// normalize returns a unit-length copy of the vector.
func normalize(v []float32) []float32 {
	var sum float64
	for _, val := range v {
		sum += float64(val) * float64(val)
	}

	magnitude := float32(math.Sqrt(sum))
	if magnitude == 0 {
		return v
	}

	normalized := make([]float32, len(v))
	for i, val := range v {
		normalized[i] = val / magnitude
	}

	return normalized
}

// Ensure MockClient implements Client interface
var _ Client = (*MockClient)(nil)
