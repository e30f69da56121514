// Package graph defines the idea-graph domain model: nodes forming a
// rooted tree per meeting, derived parent-child edges, and semantic
// clusters over node embeddings.
package graph

import (
	"time"

	"meetmap-backend/domain/vector"
)

const (
	// RootNodeID is the fixed id of every meeting's synthetic root.
	RootNodeID = "root"

	// RootSummary is the display summary of the synthetic root.
	RootSummary = "Meeting Start"
)

// Node is a single idea in a meeting's tree. Nodes are created once at
// placement and afterwards mutated only to set ClusterID and bump
// LastUpdated.
type Node struct {
	ID          string
	MeetingID   string
	Embedding   []float64
	Summary     string
	ParentID    string // empty only for the meeting root
	Depth       int
	ClusterID   *int // nil until the cluster assigner has processed it
	CreatedAt   time.Time
	LastUpdated time.Time
	Metadata    Metadata
}

// Metadata carries the structured provenance of an idea plus a small
// free-form annotation map.
type Metadata struct {
	ChunkID   string            `json:"chunk_id,omitempty"`
	Speaker   string            `json:"speaker,omitempty"`
	StartTime float64           `json:"timestamp,omitempty"`
	EndTime   float64           `json:"end_time,omitempty"`
	IsRoot    bool              `json:"is_root,omitempty"`
	Extra     map[string]string `json:"extra,omitempty"`
}

// IsRoot reports whether the node is a meeting's synthetic root.
func (n *Node) IsRoot() bool {
	return n.ParentID == ""
}

// NewRootNode builds the synthetic root for a meeting: depth 0, no
// parent, and an all-zero placeholder embedding of the configured
// dimensionality so it never wins a similarity ranking.
func NewRootNode(meetingID string, dim int, now time.Time) *Node {
	return &Node{
		ID:          RootNodeID,
		MeetingID:   meetingID,
		Embedding:   vector.Zero(dim),
		Summary:     RootSummary,
		ParentID:    "",
		Depth:       0,
		CreatedAt:   now,
		LastUpdated: now,
		Metadata:    Metadata{IsRoot: true},
	}
}

// Clone returns a copy of the node with its own embedding slice, so
// callers can hold results without aliasing store-owned state.
func (n *Node) Clone() *Node {
	out := *n
	out.Embedding = vector.Clone(n.Embedding)
	if n.ClusterID != nil {
		id := *n.ClusterID
		out.ClusterID = &id
	}
	if n.Metadata.Extra != nil {
		extra := make(map[string]string, len(n.Metadata.Extra))
		for k, v := range n.Metadata.Extra {
			extra[k] = v
		}
		out.Metadata.Extra = extra
	}
	return &out
}
