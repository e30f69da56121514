package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meetmap-backend/application/ports"
	"meetmap-backend/domain/graph"
	apperrors "meetmap-backend/pkg/errors"
)

func newTestStore() *Store {
	return NewStore(4)
}

func TestGetRootLazyCreation(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	root, err := s.GetRoot(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, graph.RootNodeID, root.ID)
	assert.Equal(t, graph.RootSummary, root.Summary)
	assert.Equal(t, 0, root.Depth)
	require.Len(t, root.Embedding, 4)

	again, err := s.GetRoot(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, root.CreatedAt, again.CreatedAt)

	nodes, err := s.GetAllNodes(ctx, "m1")
	require.NoError(t, err)
	assert.Len(t, nodes, 1)
}

func TestGetRootConcurrent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.GetRoot(ctx, "m1")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	nodes, err := s.GetAllNodes(ctx, "m1")
	require.NoError(t, err)
	assert.Len(t, nodes, 1)
}

func TestAddNodeDepthAndOrder(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	_, err := s.GetRoot(ctx, "m1")
	require.NoError(t, err)

	a, err := s.AddNode(ctx, "m1", ports.NewNodeParams{
		NodeID: "a", ParentID: graph.RootNodeID, Summary: "first",
		Embedding: []float64{1, 0, 0, 0},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, a.Depth)

	b, err := s.AddNode(ctx, "m1", ports.NewNodeParams{
		NodeID: "b", ParentID: "a", Summary: "second",
		Embedding: []float64{0, 1, 0, 0},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, b.Depth)

	c, err := s.AddNode(ctx, "m1", ports.NewNodeParams{
		NodeID: "c", ParentID: graph.RootNodeID, Summary: "third",
		Embedding: []float64{0, 0, 1, 0},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, c.Depth)

	children, err := s.GetChildren(ctx, "m1", graph.RootNodeID)
	require.NoError(t, err)
	require.Len(t, children, 2)
	assert.Equal(t, "a", children[0].ID)
	assert.Equal(t, "c", children[1].ID)
}

func TestAddNodeParentNotFound(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	_, err := s.GetRoot(ctx, "m1")
	require.NoError(t, err)

	_, err = s.AddNode(ctx, "m1", ports.NewNodeParams{
		NodeID: "orphan", ParentID: "ghost", Summary: "x",
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsParentNotFound(err))

	nodes, err := s.GetAllNodes(ctx, "m1")
	require.NoError(t, err)
	assert.Len(t, nodes, 1)
}

func TestGetNodeNotFound(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	_, err := s.GetNode(ctx, "m1", "nope")
	require.Error(t, err)
	assert.True(t, apperrors.IsNodeNotFound(err))
}

func TestTenantRequired(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	_, err := s.GetRoot(ctx, "")
	assert.True(t, apperrors.IsTenantRequired(err))

	_, err = s.AddNode(ctx, "", ports.NewNodeParams{NodeID: "a", ParentID: graph.RootNodeID})
	assert.True(t, apperrors.IsTenantRequired(err))

	_, err = s.NextClusterID(ctx, "")
	assert.True(t, apperrors.IsTenantRequired(err))
}

func TestTenantIsolation(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	_, err := s.GetRoot(ctx, "m1")
	require.NoError(t, err)
	_, err = s.AddNode(ctx, "m1", ports.NewNodeParams{
		NodeID: "a", ParentID: graph.RootNodeID, Summary: "only in m1",
	})
	require.NoError(t, err)

	_, err = s.GetRoot(ctx, "m2")
	require.NoError(t, err)

	m2Nodes, err := s.GetAllNodes(ctx, "m2")
	require.NoError(t, err)
	assert.Len(t, m2Nodes, 1)

	_, err = s.GetNode(ctx, "m2", "a")
	assert.True(t, apperrors.IsNodeNotFound(err))

	// identical node ids in different meetings never collide
	_, err = s.AddNode(ctx, "m2", ports.NewNodeParams{
		NodeID: "a", ParentID: graph.RootNodeID, Summary: "only in m2",
	})
	require.NoError(t, err)

	n1, err := s.GetNode(ctx, "m1", "a")
	require.NoError(t, err)
	n2, err := s.GetNode(ctx, "m2", "a")
	require.NoError(t, err)
	assert.NotEqual(t, n1.Summary, n2.Summary)
}

func TestSetNodeCluster(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	_, err := s.GetRoot(ctx, "m1")
	require.NoError(t, err)
	_, err = s.AddNode(ctx, "m1", ports.NewNodeParams{
		NodeID: "a", ParentID: graph.RootNodeID,
	})
	require.NoError(t, err)

	require.NoError(t, s.SetNodeCluster(ctx, "m1", "a", 3))

	n, err := s.GetNode(ctx, "m1", "a")
	require.NoError(t, err)
	require.NotNil(t, n.ClusterID)
	assert.Equal(t, 3, *n.ClusterID)

	err = s.SetNodeCluster(ctx, "m1", "ghost", 1)
	assert.True(t, apperrors.IsNodeNotFound(err))
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	_, err := s.GetRoot(ctx, "m1")
	require.NoError(t, err)
	_, err = s.AddNode(ctx, "m1", ports.NewNodeParams{NodeID: "a", ParentID: graph.RootNodeID})
	require.NoError(t, err)
	require.NoError(t, s.SaveCluster(ctx, "m1", &graph.Cluster{ID: 0, Centroid: []float64{1, 0, 0, 0}, MemberCount: 1}))

	require.NoError(t, s.Reset(ctx, "m1"))

	nodes, err := s.GetAllNodes(ctx, "m1")
	require.NoError(t, err)
	assert.Empty(t, nodes)

	clusters, err := s.GetClusters(ctx, "m1")
	require.NoError(t, err)
	assert.Empty(t, clusters)

	// a fresh root appears on the next touch
	root, err := s.GetRoot(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, graph.RootNodeID, root.ID)
}

func TestNextClusterID(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	id, err := s.NextClusterID(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, 0, id)

	require.NoError(t, s.SaveCluster(ctx, "m1", &graph.Cluster{ID: 0, Centroid: []float64{1, 0, 0, 0}, MemberCount: 1}))
	require.NoError(t, s.SaveCluster(ctx, "m1", &graph.Cluster{ID: 1, Centroid: []float64{0, 1, 0, 0}, MemberCount: 1}))

	id, err = s.NextClusterID(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, 2, id)

	// ids derive from stored state, not a process counter
	other, err := s.NextClusterID(ctx, "m2")
	require.NoError(t, err)
	assert.Equal(t, 0, other)
}

func TestClusterMembers(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	require.NoError(t, s.AddMember(ctx, "m1", 0, "a"))
	require.NoError(t, s.AddMember(ctx, "m1", 0, "b"))
	require.NoError(t, s.AddMember(ctx, "m1", 0, "a"))

	members, err := s.GetMembers(ctx, "m1", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, members)
}

func TestStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	_, err := s.GetRoot(ctx, "m1")
	require.NoError(t, err)
	_, err = s.AddNode(ctx, "m1", ports.NewNodeParams{
		NodeID: "a", ParentID: graph.RootNodeID, Embedding: []float64{1, 2, 3, 4},
	})
	require.NoError(t, err)

	n, err := s.GetNode(ctx, "m1", "a")
	require.NoError(t, err)
	n.Embedding[0] = 99
	n.Summary = "mutated"

	fresh, err := s.GetNode(ctx, "m1", "a")
	require.NoError(t, err)
	assert.Equal(t, 1.0, fresh.Embedding[0])
	assert.NotEqual(t, "mutated", fresh.Summary)
}
