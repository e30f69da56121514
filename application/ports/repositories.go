// Package ports defines the interfaces the application layer depends
// on: tenant-scoped graph storage and the external AI capabilities.
package ports

import (
	"context"

	"meetmap-backend/domain/graph"
)

// NewNodeParams carries everything needed to attach a new idea node.
// Depth and timestamps are computed by the store from the parent.
type NewNodeParams struct {
	NodeID    string
	Embedding []float64
	Summary   string
	ParentID  string
	Metadata  graph.Metadata
}

// GraphStore is the tenant-scoped node store. Every operation is scoped
// to a single meeting; implementations must never read or write another
// meeting's nodes. An empty meeting id fails with TenantRequired.
type GraphStore interface {
	// GetNode returns the node or a NodeNotFound error.
	GetNode(ctx context.Context, meetingID, nodeID string) (*graph.Node, error)

	// GetRoot returns the meeting's root, creating it if absent.
	// Safe under retry: concurrent callers observe exactly one root.
	GetRoot(ctx context.Context, meetingID string) (*graph.Node, error)

	// GetChildren returns the direct children of a node in creation
	// order. A missing or leaf node yields an empty slice.
	GetChildren(ctx context.Context, meetingID, nodeID string) ([]*graph.Node, error)

	// GetAllNodes returns every node in the meeting, root included,
	// in creation order.
	GetAllNodes(ctx context.Context, meetingID string) ([]*graph.Node, error)

	// AddNode attaches a new node under an existing parent. Fails with
	// ParentNotFound if the parent does not resolve in the meeting;
	// this is the only structural integrity check and guarantees every
	// node stays reachable from the root. The parent-child edge becomes
	// visible via GetChildren as a side effect.
	AddNode(ctx context.Context, meetingID string, params NewNodeParams) (*graph.Node, error)

	// SetNodeCluster records the cluster assignment on a placed node,
	// bumping only cluster_id and last_updated.
	SetNodeCluster(ctx context.Context, meetingID, nodeID string, clusterID int) error

	// Reset purges the meeting's entire node, cluster, and membership
	// state.
	Reset(ctx context.Context, meetingID string) error
}

// ClusterStore is the tenant-scoped cluster store.
type ClusterStore interface {
	// GetClusters returns the meeting's clusters ordered by id.
	GetClusters(ctx context.Context, meetingID string) ([]*graph.Cluster, error)

	// SaveCluster creates the cluster or overwrites its centroid and
	// member count.
	SaveCluster(ctx context.Context, meetingID string, cluster *graph.Cluster) error

	// AddMember records cluster membership for a node.
	AddMember(ctx context.Context, meetingID string, clusterID int, nodeID string) error

	// GetMembers returns the node ids belonging to a cluster.
	GetMembers(ctx context.Context, meetingID string, clusterID int) ([]string, error)

	// NextClusterID derives max(cluster_id)+1 from stored state; ids
	// are monotonically increasing per meeting and never reused.
	NextClusterID(ctx context.Context, meetingID string) (int, error)
}
