package services

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"meetmap-backend/application/ports"
	"meetmap-backend/domain/graph"
	"meetmap-backend/pkg/observability"
)

// Placement decision paths, used as the metric label and in logs so a
// fallback decision is distinguishable from a primary one.
const (
	DecisionEmptyGraph        = "empty_graph"
	DecisionOracle            = "oracle"
	DecisionOracleSubstituted = "oracle_substituted"
	DecisionFallbackParent    = "fallback_parent"
	DecisionFallbackRoot      = "fallback_root"
)

// PlacementDecision is the outcome of choosing a parent for a new idea.
type PlacementDecision struct {
	ParentID      string
	Path          string
	Relation      ports.Relation
	TargetID      string
	TopSimilarity float64
	Reasoning     string
}

// PlacementEngine decides where a new idea attaches. It ranks every
// non-root node by similarity, asks the oracle to classify the
// relationship against the best targets, and resolves the parent from
// the classification. Every failure along the way degrades through the
// fallback chain; the engine always produces a valid, existing parent.
type PlacementEngine struct {
	graph   ports.GraphStore
	search  *SimilaritySearch
	oracle  ports.PlacementOracle
	logger  *zap.Logger
	metrics *observability.Collector

	mu sync.RWMutex
	// candidate search knobs, swappable at runtime
	topK          int
	minSimilarity float64
	filter        bool
}

// NewPlacementEngine creates the placement engine. metrics may be nil.
func NewPlacementEngine(graphStore ports.GraphStore, search *SimilaritySearch, oracle ports.PlacementOracle, topK int, logger *zap.Logger, metrics *observability.Collector) *PlacementEngine {
	return &PlacementEngine{
		graph:   graphStore,
		search:  search,
		oracle:  oracle,
		logger:  logger,
		metrics: metrics,
		topK:    topK,
	}
}

// SetTopK updates the candidate count at runtime.
func (e *PlacementEngine) SetTopK(k int) {
	if k <= 0 {
		return
	}
	e.mu.Lock()
	e.topK = k
	e.mu.Unlock()
}

// SetPlacementThreshold updates the candidate similarity floor. The
// floor only applies when the candidate filter is enabled.
func (e *PlacementEngine) SetPlacementThreshold(threshold float64) {
	if threshold < 0 || threshold > 1 {
		return
	}
	e.mu.Lock()
	e.minSimilarity = threshold
	e.mu.Unlock()
}

// SetCandidateFilter toggles similarity filtering of candidates.
// Disabled by default: every non-root node competes regardless of how
// weak the match is.
func (e *PlacementEngine) SetCandidateFilter(on bool) {
	e.mu.Lock()
	e.filter = on
	e.mu.Unlock()
}

func (e *PlacementEngine) searchParams() (k int, minSimilarity float64, filter bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.topK, e.minSimilarity, e.filter
}

// DetermineParent returns the parent id for a new idea. The meeting
// root is created lazily as a side effect, so the returned parent
// always exists.
func (e *PlacementEngine) DetermineParent(ctx context.Context, meetingID, ideaText string, embedding []float64) (*PlacementDecision, error) {
	if _, err := e.graph.GetRoot(ctx, meetingID); err != nil {
		return nil, err
	}

	k, minSimilarity, filter := e.searchParams()
	candidates, err := e.search.TopK(ctx, meetingID, embedding, k, minSimilarity, filter)
	if err != nil {
		return nil, err
	}

	// No candidates, either the first idea in the meeting or everything
	// filtered below the floor; attach directly under the root.
	if len(candidates) == 0 {
		return e.record(meetingID, &PlacementDecision{
			ParentID: graph.RootNodeID,
			Path:     DecisionEmptyGraph,
		}), nil
	}

	top := candidates[0]
	classification, err := e.oracle.Classify(ctx, ideaText, candidates)
	if err != nil || classification == nil || !classification.Relation.Valid() {
		if e.metrics != nil {
			e.metrics.OracleFailures.Inc()
		}
		e.logger.Warn("placement oracle failed, attaching under top candidate's parent",
			zap.String("meetingID", meetingID),
			zap.String("topCandidate", top.Node.ID),
			zap.Error(err),
		)
		return e.resolveParent(ctx, meetingID, top.Node.ParentID, top, &PlacementDecision{
			Path:          DecisionFallbackParent,
			TargetID:      top.Node.ID,
			TopSimilarity: top.Similarity,
		}), nil
	}

	// The oracle's target must come from the candidate set; anything
	// else is replaced by the top-ranked candidate.
	target := top
	path := DecisionOracleSubstituted
	for _, c := range candidates {
		if c.Node.ID == classification.TargetID {
			target = c
			path = DecisionOracle
			break
		}
	}

	parentID := target.Node.ID
	if classification.Relation == ports.RelationBranch {
		// A branch diverges from the target, so the new idea becomes
		// the target's sibling.
		parentID = target.Node.ParentID
		if parentID == "" {
			parentID = graph.RootNodeID
		}
	}

	return e.resolveParent(ctx, meetingID, parentID, target, &PlacementDecision{
		Path:          path,
		Relation:      classification.Relation,
		TargetID:      target.Node.ID,
		TopSimilarity: top.Similarity,
		Reasoning:     classification.Reasoning,
	}), nil
}

// resolveParent validates the chosen parent against the store and
// degrades target parent -> root until an existing node is found.
func (e *PlacementEngine) resolveParent(ctx context.Context, meetingID, parentID string, target ports.RankedCandidate, decision *PlacementDecision) *PlacementDecision {
	if parentID != "" {
		if _, err := e.graph.GetNode(ctx, meetingID, parentID); err == nil {
			decision.ParentID = parentID
			return e.record(meetingID, decision)
		}
	}

	fallback := target.Node.ParentID
	if fallback != "" && fallback != parentID {
		if _, err := e.graph.GetNode(ctx, meetingID, fallback); err == nil {
			decision.ParentID = fallback
			decision.Path = DecisionFallbackParent
			return e.record(meetingID, decision)
		}
	}

	decision.ParentID = graph.RootNodeID
	decision.Path = DecisionFallbackRoot
	return e.record(meetingID, decision)
}

func (e *PlacementEngine) record(meetingID string, decision *PlacementDecision) *PlacementDecision {
	if e.metrics != nil {
		e.metrics.PlacementDecisions.WithLabelValues(decision.Path).Inc()
	}
	e.logger.Debug("placement decided",
		zap.String("meetingID", meetingID),
		zap.String("parentID", decision.ParentID),
		zap.String("path", decision.Path),
		zap.String("targetID", decision.TargetID),
		zap.Float64("topSimilarity", decision.TopSimilarity),
	)
	return decision
}
