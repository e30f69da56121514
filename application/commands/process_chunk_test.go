package commands

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"meetmap-backend/application/ports"
	"meetmap-backend/application/services"
	"meetmap-backend/domain/graph"
	"meetmap-backend/infrastructure/locking"
	"meetmap-backend/infrastructure/persistence/memory"
)

type stubEmbedder struct {
	vectors map[string][]float64
	err     error
}

func (e *stubEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if e.err != nil {
		return nil, e.err
	}
	v, ok := e.vectors[text]
	if !ok {
		return []float64{0, 0, 0, 1}, nil
	}
	return v, nil
}

func (e *stubEmbedder) Dimension() int { return 4 }

type stubExtractor struct {
	ideas      []string
	err        error
	gotContext []string
}

func (x *stubExtractor) ExtractIdeas(ctx context.Context, chunkText string, recentContext []string) ([]string, error) {
	x.gotContext = recentContext
	if x.err != nil {
		return nil, x.err
	}
	return x.ideas, nil
}

// funcOracle classifies using the live candidate set.
type funcOracle struct {
	fn func(ideaText string, candidates []ports.RankedCandidate) (*ports.Classification, error)
}

func (o *funcOracle) Classify(ctx context.Context, ideaText string, candidates []ports.RankedCandidate) (*ports.Classification, error) {
	return o.fn(ideaText, candidates)
}

func newHandler(store *memory.Store, embedder ports.Embedder, extractor ports.IdeaExtractor, oracle ports.PlacementOracle) *ProcessChunkHandler {
	logger := zap.NewNop()
	search := services.NewSimilaritySearch(store)
	placement := services.NewPlacementEngine(store, search, oracle, 5, logger, nil)
	assigner := services.NewClusterAssigner(store, store, 0.65, logger, nil)
	return NewProcessChunkHandler(locking.NewTenantLocker(), store, embedder, extractor, placement, assigner, logger, nil)
}

func TestProcessChunkValidation(t *testing.T) {
	h := newHandler(memory.NewStore(4), &stubEmbedder{}, &stubExtractor{}, &funcOracle{})

	_, err := h.Handle(context.Background(), ProcessChunkCommand{Text: "hello"})
	assert.Error(t, err, "missing meeting id must fail")

	_, err = h.Handle(context.Background(), ProcessChunkCommand{MeetingID: "m1"})
	assert.Error(t, err, "missing text must fail")
}

func TestProcessChunkPipeline(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore(4)

	embedder := &stubEmbedder{vectors: map[string][]float64{
		"Adopt budget for Q3":           {1, 0, 0, 0},
		"Increase the Q3 budget by 10%": {0.95, 0.05, 0, 0},
		"Plan the holiday party":        {0, 0, 1, 0},
	}}

	// continuation against the most similar candidate
	oracle := &funcOracle{fn: func(ideaText string, candidates []ports.RankedCandidate) (*ports.Classification, error) {
		if ideaText == "Plan the holiday party" {
			return &ports.Classification{
				Relation: ports.RelationBranch,
				TargetID: candidates[0].Node.ID,
			}, nil
		}
		return &ports.Classification{
			Relation: ports.RelationContinuation,
			TargetID: candidates[0].Node.ID,
		}, nil
	}}

	extractor := &stubExtractor{ideas: []string{"Adopt budget for Q3"}}
	h := newHandler(store, embedder, extractor, oracle)

	// first chunk: one idea attaches under the root
	res1, err := h.Handle(ctx, ProcessChunkCommand{
		MeetingID: "m1", ChunkID: "c1", Text: "let's talk budget", Speaker: "alice", StartTime: 1, EndTime: 5,
	})
	require.NoError(t, err)
	require.Len(t, res1.Nodes, 2, "root plus the first idea")
	assert.Equal(t, graph.RootNodeID, res1.Nodes[0].ID)
	assert.True(t, res1.Nodes[0].Metadata["is_root"].(bool))

	first := res1.Nodes[1]
	assert.Equal(t, "Adopt budget for Q3", first.Text)
	assert.Equal(t, 1, first.Metadata["depth"])
	assert.Equal(t, "alice", first.Speaker)

	require.Len(t, res1.Edges, 1)
	assert.Equal(t, graph.RootNodeID, res1.Edges[0].FromNode)
	assert.Equal(t, "root", res1.Edges[0].Type)

	// second chunk: a continuation goes deeper, a branch lands beside
	extractor.ideas = []string{"Increase the Q3 budget by 10%", "Plan the holiday party"}
	res2, err := h.Handle(ctx, ProcessChunkCommand{
		MeetingID: "m1", ChunkID: "c2", Text: "more discussion", StartTime: 6, EndTime: 10,
	})
	require.NoError(t, err)
	require.Len(t, res2.Nodes, 2, "root is sent only once")

	deeper := res2.Nodes[0]
	assert.Equal(t, "Increase the Q3 budget by 10%", deeper.Text)
	assert.Equal(t, 2, deeper.Metadata["depth"])
	assert.Equal(t, first.ID, deeper.Metadata["parent_id"])

	sibling := res2.Nodes[1]
	assert.Equal(t, "Plan the holiday party", sibling.Text)
	assert.Equal(t, 1, sibling.Metadata["depth"])
	assert.Equal(t, graph.RootNodeID, sibling.Metadata["parent_id"])

	require.Len(t, res2.Edges, 2)
	assert.Equal(t, "extends", res2.Edges[0].Type)
	assert.Equal(t, "root", res2.Edges[1].Type)

	// the similar idea shares the first node's cluster, the dissimilar
	// idea got its own
	assert.Equal(t, first.Metadata["cluster_id"], deeper.Metadata["cluster_id"])
	assert.NotEqual(t, first.Metadata["cluster_id"], sibling.Metadata["cluster_id"])

	clusters, err := store.GetClusters(ctx, "m1")
	require.NoError(t, err)
	assert.Len(t, clusters, 2)
}

func TestRecentContextCoversLastChunksGrouped(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore(4)

	// six chunks' worth of prior ideas; chunk c1 has two
	_, err := store.GetRoot(ctx, "m1")
	require.NoError(t, err)
	prior := []struct{ id, chunk string }{
		{"a1", "c1"}, {"a2", "c1"},
		{"b1", "c2"}, {"c1n", "c3"}, {"d1", "c4"}, {"e1", "c5"}, {"f1", "c6"},
	}
	for _, p := range prior {
		_, err := store.AddNode(ctx, "m1", ports.NewNodeParams{
			NodeID:   p.id,
			ParentID: graph.RootNodeID,
			Summary:  "idea " + p.id,
			Metadata: graph.Metadata{ChunkID: p.chunk},
		})
		require.NoError(t, err)
	}

	extractor := &stubExtractor{}
	h := newHandler(store, &stubEmbedder{}, extractor, &funcOracle{})

	_, err = h.Handle(ctx, ProcessChunkCommand{MeetingID: "m1", ChunkID: "c7", Text: "more"})
	require.NoError(t, err)

	// only the last five chunks remain, in chronological order; c1's
	// two ideas fell out together
	assert.Equal(t, []string{
		"idea b1", "idea c1n", "idea d1", "idea e1", "idea f1",
	}, extractor.gotContext)
}

func TestProcessChunkNoIdeasIsNoWork(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore(4)
	h := newHandler(store, &stubEmbedder{}, &stubExtractor{ideas: []string{}}, &funcOracle{})

	res, err := h.Handle(ctx, ProcessChunkCommand{MeetingID: "m1", ChunkID: "c1", Text: "um, hello"})
	require.NoError(t, err)
	assert.Empty(t, res.Nodes)
	assert.Empty(t, res.Edges)
	assert.Equal(t, 0, res.IdeasExtracted)
}

func TestProcessChunkExtractionFailureIsAbsorbed(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore(4)
	h := newHandler(store, &stubEmbedder{}, &stubExtractor{err: errors.New("upstream down")}, &funcOracle{})

	res, err := h.Handle(ctx, ProcessChunkCommand{MeetingID: "m1", ChunkID: "c1", Text: "text"})
	require.NoError(t, err, "extraction failures never fail the chunk")
	assert.Empty(t, res.Nodes)
}

func TestProcessChunkEmbeddingFailureSkipsIdea(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore(4)
	h := newHandler(store, &stubEmbedder{err: errors.New("no embeddings")},
		&stubExtractor{ideas: []string{"an idea"}}, &funcOracle{})

	res, err := h.Handle(ctx, ProcessChunkCommand{MeetingID: "m1", ChunkID: "c1", Text: "text"})
	require.NoError(t, err)
	assert.Empty(t, res.Nodes)
	assert.Equal(t, 1, res.IdeasExtracted)
}

func TestResetMeeting(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore(4)
	locker := locking.NewTenantLocker()

	_, err := store.GetRoot(ctx, "m1")
	require.NoError(t, err)
	_, err = store.AddNode(ctx, "m1", ports.NewNodeParams{
		NodeID: "a", ParentID: graph.RootNodeID, Summary: "idea",
	})
	require.NoError(t, err)

	h := NewResetMeetingHandler(locker, store, zap.NewNop())
	require.NoError(t, h.Handle(ctx, ResetMeetingCommand{MeetingID: "m1"}))

	nodes, err := store.GetAllNodes(ctx, "m1")
	require.NoError(t, err)
	assert.Empty(t, nodes)

	assert.Error(t, h.Handle(ctx, ResetMeetingCommand{}))
}
