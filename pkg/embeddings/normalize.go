// Package embeddings provides utilities for embedding vectors (e.g. L2 normalization).
package embeddings

import (
	"math"
)

// NormalizeL2 normalizes an embedding vector to unit length in-place. Vectors
// are normalized before upsert so cosine scores stay in a stable range even
// when a precomputed hybrid embedding comes from a different producer.
func NormalizeL2(vector []float32) {
	var sumSquares float64

	for _, v := range vector {
		sumSquares += float64(v) * float64(v)
	}

	// A zero vector stays zero; dividing by zero magnitude would poison the index.
	if sumSquares == 0 {
		return
	}

	magnitude := math.Sqrt(sumSquares)

	for i := range vector {
		vector[i] = float32(float64(vector[i]) / magnitude)
	}
}
