package graph

// EdgeType tags the relationship a parent link represents.
type EdgeType string

const (
	// EdgeTypeRoot marks edges leaving the meeting root.
	EdgeTypeRoot EdgeType = "root"

	// EdgeTypeExtends marks every other parent-child edge.
	EdgeTypeExtends EdgeType = "extends"
)

// Edge is the derived parent-child relationship for a non-root node.
// Edges are never stored or deleted independently; they exist exactly
// when the child's parent link exists, so the edge set is consistent
// with the node set by construction.
type Edge struct {
	FromNode string            `json:"from_node"`
	ToNode   string            `json:"to_node"`
	Type     EdgeType          `json:"type"`
	Strength float64           `json:"strength"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// DeriveEdge builds the edge implied by a node's parent link, or nil
// for the root.
func DeriveEdge(n *Node) *Edge {
	if n.IsRoot() {
		return nil
	}

	edgeType := EdgeTypeExtends
	if n.ParentID == RootNodeID {
		edgeType = EdgeTypeRoot
	}

	return &Edge{
		FromNode: n.ParentID,
		ToNode:   n.ID,
		Type:     edgeType,
		Strength: 1.0,
		Metadata: map[string]string{"relationship": "parent_child"},
	}
}

// DeriveEdges builds the full derived edge set for a node list.
func DeriveEdges(nodes []*Node) []*Edge {
	edges := make([]*Edge, 0, len(nodes))
	for _, n := range nodes {
		if e := DeriveEdge(n); e != nil {
			edges = append(edges, e)
		}
	}
	return edges
}
