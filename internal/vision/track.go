package vision

import "math"

// CosineSimilarity computes cosine similarity between two normalized
// embedding vectors. Callers are expected to pass L2-normalized vectors
// (Embedder already normalizes its output), so the result only needs
// clamping against floating-point drift.
func CosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return float32(math.Min(1.0, math.Max(-1.0, dot)))
}
