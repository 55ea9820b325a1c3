// ABOUTME: Cosine similarity and ranking helpers for brute-force backends
// ABOUTME: Shared by the SQLite and Charm KV collection engines
package storage

import (
	"math"
	"sort"

	"github.com/harper/docqa/internal/models"
)

// CosineSimilarity calculates cosine similarity between two vectors
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0.0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dotProduct += x * y
		normA += x * x
		normB += y * y
	}

	if normA == 0 || normB == 0 {
		return 0.0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

// RankTopK sorts results by score descending, ties broken by id, and keeps the first k
func RankTopK(results []models.QueryResult, k int) []models.QueryResult {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})

	if k >= 0 && len(results) > k {
		results = results[:k]
	}
	return results
}
