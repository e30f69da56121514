// Package memory provides an in-memory GraphStore/ClusterStore used by
// tests and local development. All state is guarded by a single RWMutex
// and partitioned by meeting id.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"meetmap-backend/application/ports"
	"meetmap-backend/domain/graph"
	"meetmap-backend/domain/vector"
	apperrors "meetmap-backend/pkg/errors"
)

type tenantState struct {
	nodes     map[string]*graph.Node
	nodeOrder []string
	clusters  map[int]*graph.Cluster
	members   map[int][]string
}

func newTenantState() *tenantState {
	return &tenantState{
		nodes:    make(map[string]*graph.Node),
		clusters: make(map[int]*graph.Cluster),
		members:  make(map[int][]string),
	}
}

// Store is the in-memory implementation of both GraphStore and
// ClusterStore.
type Store struct {
	mu           sync.RWMutex
	embeddingDim int
	tenants      map[string]*tenantState
}

var (
	_ ports.GraphStore   = (*Store)(nil)
	_ ports.ClusterStore = (*Store)(nil)
)

// NewStore creates an empty store. embeddingDim sizes the root's
// placeholder embedding.
func NewStore(embeddingDim int) *Store {
	return &Store{
		embeddingDim: embeddingDim,
		tenants:      make(map[string]*tenantState),
	}
}

func (s *Store) tenant(meetingID string) *tenantState {
	t, ok := s.tenants[meetingID]
	if !ok {
		t = newTenantState()
		s.tenants[meetingID] = t
	}
	return t
}

// GetNode returns the node or a NodeNotFound error.
func (s *Store) GetNode(ctx context.Context, meetingID, nodeID string) (*graph.Node, error) {
	if meetingID == "" {
		return nil, apperrors.NewTenantRequired("GetNode")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tenants[meetingID]
	if !ok {
		return nil, apperrors.NewNodeNotFound(nodeID, meetingID)
	}
	n, ok := t.nodes[nodeID]
	if !ok {
		return nil, apperrors.NewNodeNotFound(nodeID, meetingID)
	}
	return n.Clone(), nil
}

// GetRoot returns the meeting's root, creating it lazily. Creation and
// lookup share the write lock, so two concurrent callers observe
// exactly one root.
func (s *Store) GetRoot(ctx context.Context, meetingID string) (*graph.Node, error) {
	if meetingID == "" {
		return nil, apperrors.NewTenantRequired("GetRoot")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.tenant(meetingID)
	if root, ok := t.nodes[graph.RootNodeID]; ok {
		return root.Clone(), nil
	}

	root := graph.NewRootNode(meetingID, s.embeddingDim, time.Now())
	t.nodes[root.ID] = root
	t.nodeOrder = append(t.nodeOrder, root.ID)
	return root.Clone(), nil
}

// GetChildren returns direct children in creation order.
func (s *Store) GetChildren(ctx context.Context, meetingID, nodeID string) ([]*graph.Node, error) {
	if meetingID == "" {
		return nil, apperrors.NewTenantRequired("GetChildren")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	children := []*graph.Node{}
	t, ok := s.tenants[meetingID]
	if !ok {
		return children, nil
	}
	for _, id := range t.nodeOrder {
		n := t.nodes[id]
		if n.ParentID == nodeID {
			children = append(children, n.Clone())
		}
	}
	return children, nil
}

// GetAllNodes returns every node in creation order, root included.
func (s *Store) GetAllNodes(ctx context.Context, meetingID string) ([]*graph.Node, error) {
	if meetingID == "" {
		return nil, apperrors.NewTenantRequired("GetAllNodes")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	nodes := []*graph.Node{}
	t, ok := s.tenants[meetingID]
	if !ok {
		return nodes, nil
	}
	for _, id := range t.nodeOrder {
		nodes = append(nodes, t.nodes[id].Clone())
	}
	return nodes, nil
}

// AddNode attaches a new node under an existing parent.
func (s *Store) AddNode(ctx context.Context, meetingID string, params ports.NewNodeParams) (*graph.Node, error) {
	if meetingID == "" {
		return nil, apperrors.NewTenantRequired("AddNode")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.tenant(meetingID)
	parent, ok := t.nodes[params.ParentID]
	if !ok {
		return nil, apperrors.NewParentNotFound(params.ParentID, meetingID)
	}
	if _, exists := t.nodes[params.NodeID]; exists {
		return nil, apperrors.NewConflictError("node id already exists: " + params.NodeID)
	}

	now := time.Now()
	node := &graph.Node{
		ID:          params.NodeID,
		MeetingID:   meetingID,
		Embedding:   vector.Clone(params.Embedding),
		Summary:     params.Summary,
		ParentID:    parent.ID,
		Depth:       parent.Depth + 1,
		CreatedAt:   now,
		LastUpdated: now,
		Metadata:    params.Metadata,
	}

	t.nodes[node.ID] = node
	t.nodeOrder = append(t.nodeOrder, node.ID)
	return node.Clone(), nil
}

// SetNodeCluster records the cluster assignment on a placed node.
func (s *Store) SetNodeCluster(ctx context.Context, meetingID, nodeID string, clusterID int) error {
	if meetingID == "" {
		return apperrors.NewTenantRequired("SetNodeCluster")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tenants[meetingID]
	if !ok {
		return apperrors.NewNodeNotFound(nodeID, meetingID)
	}
	n, ok := t.nodes[nodeID]
	if !ok {
		return apperrors.NewNodeNotFound(nodeID, meetingID)
	}

	n.ClusterID = &clusterID
	n.LastUpdated = time.Now()
	return nil
}

// Reset purges the meeting's entire state.
func (s *Store) Reset(ctx context.Context, meetingID string) error {
	if meetingID == "" {
		return apperrors.NewTenantRequired("Reset")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.tenants, meetingID)
	return nil
}

// GetClusters returns the meeting's clusters ordered by id.
func (s *Store) GetClusters(ctx context.Context, meetingID string) ([]*graph.Cluster, error) {
	if meetingID == "" {
		return nil, apperrors.NewTenantRequired("GetClusters")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	clusters := []*graph.Cluster{}
	t, ok := s.tenants[meetingID]
	if !ok {
		return clusters, nil
	}
	for _, c := range t.clusters {
		copied := *c
		copied.Centroid = vector.Clone(c.Centroid)
		clusters = append(clusters, &copied)
	}
	sort.Slice(clusters, func(i, j int) bool { return clusters[i].ID < clusters[j].ID })
	return clusters, nil
}

// SaveCluster creates or overwrites a cluster.
func (s *Store) SaveCluster(ctx context.Context, meetingID string, cluster *graph.Cluster) error {
	if meetingID == "" {
		return apperrors.NewTenantRequired("SaveCluster")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.tenant(meetingID)
	copied := *cluster
	copied.MeetingID = meetingID
	copied.Centroid = vector.Clone(cluster.Centroid)
	copied.UpdatedAt = time.Now()
	t.clusters[cluster.ID] = &copied
	return nil
}

// AddMember records cluster membership for a node.
func (s *Store) AddMember(ctx context.Context, meetingID string, clusterID int, nodeID string) error {
	if meetingID == "" {
		return apperrors.NewTenantRequired("AddMember")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.tenant(meetingID)
	for _, existing := range t.members[clusterID] {
		if existing == nodeID {
			return nil
		}
	}
	t.members[clusterID] = append(t.members[clusterID], nodeID)
	return nil
}

// GetMembers returns the node ids belonging to a cluster.
func (s *Store) GetMembers(ctx context.Context, meetingID string, clusterID int) ([]string, error) {
	if meetingID == "" {
		return nil, apperrors.NewTenantRequired("GetMembers")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tenants[meetingID]
	if !ok {
		return []string{}, nil
	}
	members := make([]string, len(t.members[clusterID]))
	copy(members, t.members[clusterID])
	return members, nil
}

// NextClusterID derives max(cluster_id)+1 from stored clusters.
func (s *Store) NextClusterID(ctx context.Context, meetingID string) (int, error) {
	if meetingID == "" {
		return 0, apperrors.NewTenantRequired("NextClusterID")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tenants[meetingID]
	if !ok {
		return 0, nil
	}
	next := 0
	for id := range t.clusters {
		if id >= next {
			next = id + 1
		}
	}
	return next, nil
}
