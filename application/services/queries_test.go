package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meetmap-backend/domain/graph"
	"meetmap-backend/infrastructure/persistence/memory"
	apperrors "meetmap-backend/pkg/errors"
)

// buildTree creates:
//
//	root -> a -> b -> d
//	          -> c
//	root -> e
func buildTree(t *testing.T) *memory.Store {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore(4)
	_, err := store.GetRoot(ctx, "m1")
	require.NoError(t, err)

	emb := []float64{1, 0, 0, 0}
	addNode(t, store, "m1", "a", graph.RootNodeID, emb)
	addNode(t, store, "m1", "b", "a", emb)
	addNode(t, store, "m1", "c", "a", emb)
	addNode(t, store, "m1", "d", "b", emb)
	addNode(t, store, "m1", "e", graph.RootNodeID, emb)
	return store
}

func TestPathToRoot(t *testing.T) {
	ctx := context.Background()
	q := NewQueryEngine(buildTree(t))

	res, err := q.PathToRoot(ctx, "m1", "d")
	require.NoError(t, err)
	assert.Equal(t, []string{graph.RootNodeID, "a", "b", "d"}, res.Path)
}

func TestPathToRootOnRoot(t *testing.T) {
	ctx := context.Background()
	q := NewQueryEngine(buildTree(t))

	res, err := q.PathToRoot(ctx, "m1", graph.RootNodeID)
	require.NoError(t, err)
	assert.Equal(t, []string{graph.RootNodeID}, res.Path)
}

func TestPathToRootMissingNode(t *testing.T) {
	ctx := context.Background()
	q := NewQueryEngine(buildTree(t))

	_, err := q.PathToRoot(ctx, "m1", "ghost")
	require.Error(t, err)
	assert.True(t, apperrors.IsNodeNotFound(err))
}

func TestDownwardPathsFromRoot(t *testing.T) {
	ctx := context.Background()
	q := NewQueryEngine(buildTree(t))

	res, err := q.DownwardPaths(ctx, "m1", graph.RootNodeID)
	require.NoError(t, err)

	// one path per leaf reachable from root
	assert.Equal(t, [][]string{
		{graph.RootNodeID, "a", "b", "d"},
		{graph.RootNodeID, "a", "c"},
		{graph.RootNodeID, "e"},
	}, res.Paths)
	assert.ElementsMatch(t, []string{"d", "c", "e"}, res.LeafNodes)

	// union of all path node-sets is the full reachable subtree
	assert.ElementsMatch(t, []string{graph.RootNodeID, "a", "b", "c", "d", "e"}, res.AllNodes)
}

func TestDownwardPathsFromLeaf(t *testing.T) {
	ctx := context.Background()
	q := NewQueryEngine(buildTree(t))

	res, err := q.DownwardPaths(ctx, "m1", "d")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"d"}}, res.Paths)
	assert.Equal(t, []string{"d"}, res.LeafNodes)
}

func TestDownwardPathsMissingNode(t *testing.T) {
	ctx := context.Background()
	q := NewQueryEngine(buildTree(t))

	res, err := q.DownwardPaths(ctx, "m1", "ghost")
	require.NoError(t, err)
	assert.Empty(t, res.Paths)
	assert.Empty(t, res.LeafNodes)
}

// maturityTree builds a node with depth 2, 3 direct children, and 5
// total descendants:
//
//	root -> x -> y -> c1 -> g1
//	                     -> g2
//	             -> c2
//	             -> c3
func maturityTree(t *testing.T) *memory.Store {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore(4)
	_, err := store.GetRoot(ctx, "m1")
	require.NoError(t, err)

	emb := []float64{1, 0, 0, 0}
	addNode(t, store, "m1", "x", graph.RootNodeID, emb)
	addNode(t, store, "m1", "y", "x", emb)
	addNode(t, store, "m1", "c1", "y", emb)
	addNode(t, store, "m1", "c2", "y", emb)
	addNode(t, store, "m1", "c3", "y", emb)
	addNode(t, store, "m1", "g1", "c1", emb)
	addNode(t, store, "m1", "g2", "c1", emb)
	return store
}

func TestMaturityWeightedScore(t *testing.T) {
	ctx := context.Background()
	q := NewQueryEngine(maturityTree(t))

	res, err := q.Maturity(ctx, "m1", "y")
	require.NoError(t, err)

	assert.Equal(t, 20.0, res.Breakdown.DepthScore)
	assert.Equal(t, 15.0, res.Breakdown.ChildrenScore)
	assert.Equal(t, 10.0, res.Breakdown.DescendantsScore)
	assert.Equal(t, 45.0, res.Score)
}

func TestMaturityCaps(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore(4)
	_, err := store.GetRoot(ctx, "m1")
	require.NoError(t, err)

	// a deep chain saturates the depth component at 50
	emb := []float64{1, 0, 0, 0}
	parent := graph.RootNodeID
	for _, id := range []string{"l1", "l2", "l3", "l4", "l5", "l6", "l7"} {
		addNode(t, store, "m1", id, parent, emb)
		parent = id
	}

	q := NewQueryEngine(store)
	res, err := q.Maturity(ctx, "m1", "l7")
	require.NoError(t, err)
	assert.Equal(t, 50.0, res.Breakdown.DepthScore)
	assert.Equal(t, 0.0, res.Breakdown.ChildrenScore)
}

func TestMaturityMissingNodeIsZeroResult(t *testing.T) {
	ctx := context.Background()
	q := NewQueryEngine(buildTree(t))

	res, err := q.Maturity(ctx, "m1", "ghost")
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.Score)
}

func TestInfluence(t *testing.T) {
	ctx := context.Background()
	q := NewQueryEngine(maturityTree(t))

	res, err := q.Influence(ctx, "m1", "y")
	require.NoError(t, err)
	assert.Equal(t, 3, res.Direct)
	assert.Equal(t, 2, res.Indirect)
	assert.Equal(t, 5, res.Score)
}

func TestInfluenceLeaf(t *testing.T) {
	ctx := context.Background()
	q := NewQueryEngine(buildTree(t))

	res, err := q.Influence(ctx, "m1", "d")
	require.NoError(t, err)
	assert.Equal(t, 0, res.Score)
}

func TestInfluenceMissingNodeIsZeroResult(t *testing.T) {
	ctx := context.Background()
	q := NewQueryEngine(buildTree(t))

	res, err := q.Influence(ctx, "m1", "ghost")
	require.NoError(t, err)
	assert.Equal(t, 0, res.Score)
}
