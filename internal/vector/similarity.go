// Package vector provides cosine similarity search over candidate chunks.
package vector

import (
	"math"

	"github.com/thaidocs/sarabun/pkg/utils"
)

// CosineSimilarity returns the cosine similarity of a and b in [-1, 1].
// Mismatched or empty vectors score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	normA := utils.Dot(a, a)
	normB := utils.Dot(b, b)
	if normA == 0 || normB == 0 {
		return 0
	}
	return utils.Dot(a, b) / (math.Sqrt(normA) * math.Sqrt(normB))
}
