// Package services holds the engine's core behaviors: similarity
// search, idea placement, incremental clustering, and tree queries.
package services

import (
	"context"
	"sort"

	"meetmap-backend/application/ports"
	"meetmap-backend/domain/graph"
	"meetmap-backend/domain/vector"
)

// SimilaritySearch ranks a meeting's non-root nodes against a query
// embedding.
type SimilaritySearch struct {
	graph ports.GraphStore
}

// NewSimilaritySearch creates the search service.
func NewSimilaritySearch(graphStore ports.GraphStore) *SimilaritySearch {
	return &SimilaritySearch{graph: graphStore}
}

// TopK returns the k most similar non-root nodes, similarity
// descending. Ties keep node creation order: the store returns nodes
// in creation order and the sort is stable. k is clamped to the
// available node count. minSimilarity filters candidates when filter
// is set; placement calls this unfiltered.
func (s *SimilaritySearch) TopK(ctx context.Context, meetingID string, embedding []float64, k int, minSimilarity float64, filter bool) ([]ports.RankedCandidate, error) {
	nodes, err := s.graph.GetAllNodes(ctx, meetingID)
	if err != nil {
		return nil, err
	}

	ranked := make([]ports.RankedCandidate, 0, len(nodes))
	for _, n := range nodes {
		if n.ID == graph.RootNodeID {
			continue
		}
		sim := vector.CosineSimilarity(embedding, n.Embedding)
		if filter && sim < minSimilarity {
			continue
		}
		ranked = append(ranked, ports.RankedCandidate{Node: n, Similarity: sim})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Similarity > ranked[j].Similarity
	})

	if k > len(ranked) {
		k = len(ranked)
	}
	return ranked[:k], nil
}
