// Package vector provides the embedding math used by placement and
// clustering: cosine similarity and running-mean centroid updates.
package vector

import "math"

// Zero returns an all-zero vector of the given dimensionality. Used as
// the placeholder embedding for a meeting's synthetic root node.
func Zero(dim int) []float64 {
	return make([]float64, dim)
}

// CosineSimilarity calculates cosine similarity between two vectors.
// Returns 0.0 when either vector has zero magnitude or the dimensions
// disagree, so a comparison against the root's placeholder embedding
// never wins a ranking.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0.0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0.0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// UpdateCentroid computes the running mean after a new member joins a
// cluster: (old*(n-1) + added) / n, where n is the member count after
// the addition. The input slices are not modified.
func UpdateCentroid(old, added []float64, n int) []float64 {
	if n <= 0 || len(old) != len(added) {
		out := make([]float64, len(old))
		copy(out, old)
		return out
	}

	out := make([]float64, len(old))
	for i := range old {
		out[i] = (old[i]*float64(n-1) + added[i]) / float64(n)
	}
	return out
}

// Clone returns a defensive copy of an embedding.
func Clone(v []float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)
	return out
}
