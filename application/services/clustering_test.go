package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"meetmap-backend/domain/graph"
	"meetmap-backend/infrastructure/persistence/memory"
)

func newAssigner(store *memory.Store) *ClusterAssigner {
	return NewClusterAssigner(store, store, 0.65, zap.NewNop(), nil)
}

func TestAssignFirstNodeCreatesClusterZero(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore(4)
	_, err := store.GetRoot(ctx, "m1")
	require.NoError(t, err)
	addNode(t, store, "m1", "n1", graph.RootNodeID, []float64{1, 0, 0, 0})

	a := newAssigner(store)
	id, err := a.Assign(ctx, "m1", "n1", []float64{1, 0, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, 0, id)

	clusters, err := store.GetClusters(ctx, "m1")
	require.NoError(t, err)
	require.Len(t, clusters, 1)
	assert.Equal(t, 0, clusters[0].ID)
	assert.Equal(t, 1, clusters[0].MemberCount)
	assert.Equal(t, []float64{1, 0, 0, 0}, clusters[0].Centroid)

	n, err := store.GetNode(ctx, "m1", "n1")
	require.NoError(t, err)
	require.NotNil(t, n.ClusterID)
	assert.Equal(t, 0, *n.ClusterID)
}

func TestAssignSimilarNodeJoinsAndUpdatesCentroid(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore(4)
	_, err := store.GetRoot(ctx, "m1")
	require.NoError(t, err)
	addNode(t, store, "m1", "n1", graph.RootNodeID, []float64{1, 0, 0, 0})
	addNode(t, store, "m1", "n2", graph.RootNodeID, []float64{0.8, 0.2, 0, 0})

	a := newAssigner(store)
	_, err = a.Assign(ctx, "m1", "n1", []float64{1, 0, 0, 0})
	require.NoError(t, err)

	id, err := a.Assign(ctx, "m1", "n2", []float64{0.8, 0.2, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, 0, id)

	clusters, err := store.GetClusters(ctx, "m1")
	require.NoError(t, err)
	require.Len(t, clusters, 1)
	assert.Equal(t, 2, clusters[0].MemberCount)

	// centroid equals the arithmetic mean of both embeddings
	expected := []float64{0.9, 0.1, 0, 0}
	for i, v := range clusters[0].Centroid {
		assert.InDelta(t, expected[i], v, 1e-9)
	}

	members, err := store.GetMembers(ctx, "m1", 0)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"n1", "n2"}, members)
}

func TestAssignDissimilarNodeCreatesNewCluster(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore(4)
	_, err := store.GetRoot(ctx, "m1")
	require.NoError(t, err)
	addNode(t, store, "m1", "n1", graph.RootNodeID, []float64{1, 0, 0, 0})
	addNode(t, store, "m1", "n2", graph.RootNodeID, []float64{0, 0, 1, 0})

	a := newAssigner(store)
	_, err = a.Assign(ctx, "m1", "n1", []float64{1, 0, 0, 0})
	require.NoError(t, err)

	id, err := a.Assign(ctx, "m1", "n2", []float64{0, 0, 1, 0})
	require.NoError(t, err)
	assert.Equal(t, 1, id)

	clusters, err := store.GetClusters(ctx, "m1")
	require.NoError(t, err)
	assert.Len(t, clusters, 2)
}

func TestClustersPartitionNonRootNodes(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore(4)
	_, err := store.GetRoot(ctx, "m1")
	require.NoError(t, err)

	embeddings := map[string][]float64{
		"n1": {1, 0, 0, 0},
		"n2": {0.9, 0.1, 0, 0},
		"n3": {0, 0, 1, 0},
		"n4": {0, 0, 0.95, 0.05},
		"n5": {0, 1, 0, 0},
	}
	order := []string{"n1", "n2", "n3", "n4", "n5"}

	a := newAssigner(store)
	for _, id := range order {
		addNode(t, store, "m1", id, graph.RootNodeID, embeddings[id])
		_, err := a.Assign(ctx, "m1", id, embeddings[id])
		require.NoError(t, err)
	}

	clusters, err := store.GetClusters(ctx, "m1")
	require.NoError(t, err)

	seen := map[string]int{}
	for _, c := range clusters {
		members, err := store.GetMembers(ctx, "m1", c.ID)
		require.NoError(t, err)
		assert.Equal(t, len(members), c.MemberCount)
		for _, m := range members {
			seen[m]++
		}
	}

	// every non-root node appears in exactly one cluster
	require.Len(t, seen, len(order))
	for _, id := range order {
		assert.Equal(t, 1, seen[id])
	}

	// node records agree with membership
	for _, id := range order {
		n, err := store.GetNode(ctx, "m1", id)
		require.NoError(t, err)
		assert.NotNil(t, n.ClusterID)
	}
}

func TestRunningMeanStaysExactOverManyJoins(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore(4)
	_, err := store.GetRoot(ctx, "m1")
	require.NoError(t, err)

	// near-identical embeddings all join cluster 0
	inputs := [][]float64{
		{1, 0, 0, 0},
		{0.9, 0.1, 0, 0},
		{0.95, 0.05, 0, 0},
		{0.85, 0.15, 0, 0},
	}

	a := newAssigner(store)
	sum := make([]float64, 4)
	for i, emb := range inputs {
		id := string(rune('a' + i))
		addNode(t, store, "m1", id, graph.RootNodeID, emb)
		_, err := a.Assign(ctx, "m1", id, emb)
		require.NoError(t, err)
		for j, v := range emb {
			sum[j] += v
		}
	}

	clusters, err := store.GetClusters(ctx, "m1")
	require.NoError(t, err)
	require.Len(t, clusters, 1)
	for j, v := range clusters[0].Centroid {
		assert.InDelta(t, sum[j]/float64(len(inputs)), v, 1e-9)
	}
}

func TestSetThresholdChangesJoinBehavior(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore(4)
	_, err := store.GetRoot(ctx, "m1")
	require.NoError(t, err)
	addNode(t, store, "m1", "n1", graph.RootNodeID, []float64{1, 0, 0, 0})
	addNode(t, store, "m1", "n2", graph.RootNodeID, []float64{0.7, 0.7, 0, 0})

	a := newAssigner(store)
	_, err = a.Assign(ctx, "m1", "n1", []float64{1, 0, 0, 0})
	require.NoError(t, err)

	// cos(~45 degrees) ~= 0.707: joins at a loose threshold
	a.SetThreshold(0.5)
	id, err := a.Assign(ctx, "m1", "n2", []float64{0.7, 0.7, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, 0, id)
}
