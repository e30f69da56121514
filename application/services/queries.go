package services

import (
	"context"

	"meetmap-backend/application/ports"
	apperrors "meetmap-backend/pkg/errors"
)

// PathToRootResult is the root-first chain of node ids ending at the
// queried node.
type PathToRootResult struct {
	Path []string `json:"path"`
}

// DownwardPathsResult enumerates every path from the queried node down
// to each leaf of its subtree.
type DownwardPathsResult struct {
	Paths     [][]string `json:"paths"`
	AllNodes  []string   `json:"all_nodes_in_paths"`
	LeafNodes []string   `json:"last_children"`
}

// MaturityBreakdown itemizes the maturity components.
type MaturityBreakdown struct {
	DepthScore       float64 `json:"depth_score"`
	ChildrenScore    float64 `json:"children_score"`
	DescendantsScore float64 `json:"descendants_score"`
}

// MaturityResult is the capped weighted maturity score.
type MaturityResult struct {
	Score     float64           `json:"score"`
	Breakdown MaturityBreakdown `json:"breakdown"`
}

// InfluenceResult counts how many nodes grew under the queried node.
type InfluenceResult struct {
	Score    int `json:"score"`
	Direct   int `json:"direct"`
	Indirect int `json:"indirect"`
}

// QueryEngine answers path and scoring queries over the tree. All
// traversals are iterative so deep trees cannot blow the stack.
type QueryEngine struct {
	graph ports.GraphStore
}

// NewQueryEngine creates the query engine.
func NewQueryEngine(graphStore ports.GraphStore) *QueryEngine {
	return &QueryEngine{graph: graphStore}
}

// PathToRoot walks parent pointers from the node up to the root and
// returns the chain root-first. Fails with NodeNotFound when the
// starting id does not resolve.
func (q *QueryEngine) PathToRoot(ctx context.Context, meetingID, nodeID string) (*PathToRootResult, error) {
	node, err := q.graph.GetNode(ctx, meetingID, nodeID)
	if err != nil {
		return nil, err
	}

	path := []string{}
	for {
		path = append([]string{node.ID}, path...)
		if node.ParentID == "" {
			break
		}
		node, err = q.graph.GetNode(ctx, meetingID, node.ParentID)
		if err != nil {
			return nil, err
		}
	}
	return &PathToRootResult{Path: path}, nil
}

// DownwardPaths enumerates each path from the node to a leaf of its
// subtree with a depth-first walk. A missing starting id yields an
// empty result; a leaf yields the single-element path.
func (q *QueryEngine) DownwardPaths(ctx context.Context, meetingID, nodeID string) (*DownwardPathsResult, error) {
	result := &DownwardPathsResult{
		Paths:     [][]string{},
		AllNodes:  []string{},
		LeafNodes: []string{},
	}

	if _, err := q.graph.GetNode(ctx, meetingID, nodeID); err != nil {
		if apperrors.IsNodeNotFound(err) {
			return result, nil
		}
		return nil, err
	}

	type frame struct {
		id   string
		path []string
	}
	stack := []frame{{id: nodeID, path: []string{nodeID}}}

	seenNodes := map[string]bool{}
	seenLeaves := map[string]bool{}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		children, err := q.graph.GetChildren(ctx, meetingID, top.id)
		if err != nil {
			return nil, err
		}

		if len(children) == 0 {
			result.Paths = append(result.Paths, top.path)
			if !seenLeaves[top.id] {
				seenLeaves[top.id] = true
				result.LeafNodes = append(result.LeafNodes, top.id)
			}
			for _, id := range top.path {
				if !seenNodes[id] {
					seenNodes[id] = true
					result.AllNodes = append(result.AllNodes, id)
				}
			}
			continue
		}

		// Push in reverse so the first child is expanded first and
		// paths come out in child creation order.
		for i := len(children) - 1; i >= 0; i-- {
			child := children[i]
			path := make([]string, len(top.path), len(top.path)+1)
			copy(path, top.path)
			stack = append(stack, frame{id: child.ID, path: append(path, child.ID)})
		}
	}
	return result, nil
}

// Maturity scores how developed a node's line of thought is. A missing
// id yields the zero result, not an error; existence is checked at the
// transport boundary.
func (q *QueryEngine) Maturity(ctx context.Context, meetingID, nodeID string) (*MaturityResult, error) {
	node, err := q.graph.GetNode(ctx, meetingID, nodeID)
	if err != nil {
		if apperrors.IsNodeNotFound(err) {
			return &MaturityResult{}, nil
		}
		return nil, err
	}

	children, err := q.graph.GetChildren(ctx, meetingID, nodeID)
	if err != nil {
		return nil, err
	}
	descendants, err := q.countDescendants(ctx, meetingID, nodeID)
	if err != nil {
		return nil, err
	}

	depthScore := minF(float64(node.Depth)*10, 50)
	childrenScore := minF(float64(len(children))*5, 30)
	descendantsScore := minF(float64(descendants)*2, 20)
	score := minF(depthScore+childrenScore+descendantsScore, 100)

	return &MaturityResult{
		Score: score,
		Breakdown: MaturityBreakdown{
			DepthScore:       depthScore,
			ChildrenScore:    childrenScore,
			DescendantsScore: descendantsScore,
		},
	}, nil
}

// Influence counts direct children and deeper descendants. A missing
// id yields the zero result, not an error.
func (q *QueryEngine) Influence(ctx context.Context, meetingID, nodeID string) (*InfluenceResult, error) {
	_, err := q.graph.GetNode(ctx, meetingID, nodeID)
	if err != nil {
		if apperrors.IsNodeNotFound(err) {
			return &InfluenceResult{}, nil
		}
		return nil, err
	}

	children, err := q.graph.GetChildren(ctx, meetingID, nodeID)
	if err != nil {
		return nil, err
	}
	descendants, err := q.countDescendants(ctx, meetingID, nodeID)
	if err != nil {
		return nil, err
	}

	direct := len(children)
	indirect := descendants - direct
	return &InfluenceResult{
		Score:    direct + indirect,
		Direct:   direct,
		Indirect: indirect,
	}, nil
}

// countDescendants walks the subtree with an explicit stack.
func (q *QueryEngine) countDescendants(ctx context.Context, meetingID, nodeID string) (int, error) {
	count := 0
	stack := []string{nodeID}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		children, err := q.graph.GetChildren(ctx, meetingID, id)
		if err != nil {
			return 0, err
		}
		count += len(children)
		for _, c := range children {
			stack = append(stack, c.ID)
		}
	}
	return count, nil
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
