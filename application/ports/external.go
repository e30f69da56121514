package ports

import (
	"context"

	"meetmap-backend/domain/graph"
)

// Embedder turns text into a fixed-length vector. Deterministic for
// identical input and free of side effects visible to the engine.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)

	// Dimension reports the fixed vector length the embedder produces.
	Dimension() int
}

// IdeaExtractor pulls short self-contained idea strings out of a
// transcript chunk. An empty result means no work for the chunk.
type IdeaExtractor interface {
	ExtractIdeas(ctx context.Context, chunkText string, recentContext []string) ([]string, error)
}

// Relation classifies how a new idea relates to an existing node.
type Relation string

const (
	// RelationContinuation extends the target's line of thought; the
	// new node becomes a child of the target.
	RelationContinuation Relation = "continuation"

	// RelationBranch diverges from the target; the new node becomes a
	// sibling of the target.
	RelationBranch Relation = "branch"

	// RelationResolution closes out the target; treated like a
	// continuation for attachment.
	RelationResolution Relation = "resolution"
)

// Valid reports whether the relation is one the engine understands.
func (r Relation) Valid() bool {
	switch r {
	case RelationContinuation, RelationBranch, RelationResolution:
		return true
	}
	return false
}

// RankedCandidate is one entry of the similarity-ranked search result
// handed to the placement oracle.
type RankedCandidate struct {
	Node       *graph.Node
	Similarity float64
}

// Classification is the oracle's decision about the new idea.
type Classification struct {
	Relation  Relation
	TargetID  string
	Reasoning string
}

// PlacementOracle is the external decision dependency consulted to
// classify the relationship between a new idea and its best-matching
// candidates. Treated as untrusted: callers validate TargetID against
// the candidate set and absorb every failure via fallback.
type PlacementOracle interface {
	Classify(ctx context.Context, ideaText string, candidates []RankedCandidate) (*Classification, error)
}
