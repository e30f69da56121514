package queries

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"meetmap-backend/application/ports"
	"meetmap-backend/domain/graph"
	"meetmap-backend/infrastructure/persistence/memory"
)

func TestGetGraphDataEmptyMeeting(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore(4)
	h := NewGetGraphDataHandler(store, store, zap.NewNop())

	res, err := h.Handle(ctx, GetGraphDataQuery{MeetingID: "m1"})
	require.NoError(t, err)
	assert.Empty(t, res.Nodes)
	assert.Empty(t, res.Edges)
	assert.Equal(t, 0, res.Stats.NodeCount)

	// a read must not create the root as a side effect
	nodes, err := store.GetAllNodes(ctx, "m1")
	require.NoError(t, err)
	assert.Empty(t, nodes)
}

func TestGetGraphDataRequiresMeeting(t *testing.T) {
	h := NewGetGraphDataHandler(memory.NewStore(4), memory.NewStore(4), zap.NewNop())
	_, err := h.Handle(context.Background(), GetGraphDataQuery{})
	assert.Error(t, err)
}

func TestGetGraphDataAssemblesNodesEdgesAndStats(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore(4)
	_, err := store.GetRoot(ctx, "m1")
	require.NoError(t, err)

	emb := []float64{1, 0, 0, 0}
	_, err = store.AddNode(ctx, "m1", ports.NewNodeParams{NodeID: "a", ParentID: graph.RootNodeID, Summary: "first", Embedding: emb})
	require.NoError(t, err)
	_, err = store.AddNode(ctx, "m1", ports.NewNodeParams{NodeID: "b", ParentID: "a", Summary: "second", Embedding: emb})
	require.NoError(t, err)

	require.NoError(t, store.SaveCluster(ctx, "m1", &graph.Cluster{ID: 0, Centroid: emb, MemberCount: 2}))
	require.NoError(t, store.SetNodeCluster(ctx, "m1", "a", 0))
	require.NoError(t, store.SetNodeCluster(ctx, "m1", "b", 0))

	h := NewGetGraphDataHandler(store, store, zap.NewNop())
	res, err := h.Handle(ctx, GetGraphDataQuery{MeetingID: "m1"})
	require.NoError(t, err)

	require.Len(t, res.Nodes, 3)
	assert.Equal(t, graph.RootNodeID, res.Nodes[0].ID)
	assert.True(t, res.Nodes[0].IsRoot)
	assert.Equal(t, graph.UnclusteredColor, res.Nodes[0].ClusterColor)

	assert.Equal(t, graph.ClusterColor(0), res.Nodes[1].ClusterColor)
	assert.Equal(t, 2, res.Nodes[2].Depth)

	require.Len(t, res.Edges, 2)
	assert.Equal(t, "root", res.Edges[0].Type)
	assert.Equal(t, "extends", res.Edges[1].Type)

	assert.Equal(t, 3, res.Stats.NodeCount)
	assert.Equal(t, 2, res.Stats.EdgeCount)
	assert.Equal(t, 1, res.Stats.ClusterCount)
	assert.Equal(t, 2, res.Stats.MaxDepth)
}
