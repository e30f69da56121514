// Package queries holds the read-side operations over a meeting's
// graph.
package queries

import (
	"context"

	"go.uber.org/zap"

	"meetmap-backend/application/ports"
	"meetmap-backend/domain/graph"
	"meetmap-backend/pkg/utils"
)

// GetGraphDataQuery asks for a meeting's full graph in visualization
// format.
type GetGraphDataQuery struct {
	MeetingID string `validate:"required"`
}

// Validate checks the query's fields.
func (q GetGraphDataQuery) Validate() error {
	return utils.ValidateStruct(q)
}

// GraphNode is one node of the visualization payload.
type GraphNode struct {
	ID           string  `json:"id"`
	Summary      string  `json:"summary"`
	ParentID     string  `json:"parent_id,omitempty"`
	Depth        int     `json:"depth"`
	ClusterID    *int    `json:"cluster_id"`
	ClusterColor string  `json:"cluster_color"`
	Speaker      string  `json:"speaker,omitempty"`
	ChunkID      string  `json:"chunk_id,omitempty"`
	Timestamp    float64 `json:"timestamp"`
	IsRoot       bool    `json:"is_root"`
}

// GraphEdge is one derived parent-child edge of the payload.
type GraphEdge struct {
	FromNode string            `json:"from_node"`
	ToNode   string            `json:"to_node"`
	Type     string            `json:"type"`
	Strength float64           `json:"strength"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// GraphStats summarizes the meeting's graph.
type GraphStats struct {
	NodeCount    int `json:"node_count"`
	EdgeCount    int `json:"edge_count"`
	ClusterCount int `json:"cluster_count"`
	MaxDepth     int `json:"max_depth"`
}

// GetGraphDataResult is the complete visualization payload.
type GetGraphDataResult struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
	Stats GraphStats  `json:"stats"`
}

// GetGraphDataHandler assembles the full graph for a meeting. Edges
// are derived from parent links, never read from storage, so they are
// always consistent with the node set.
type GetGraphDataHandler struct {
	graph    ports.GraphStore
	clusters ports.ClusterStore
	logger   *zap.Logger
}

// NewGetGraphDataHandler creates the graph data handler.
func NewGetGraphDataHandler(graphStore ports.GraphStore, clusterStore ports.ClusterStore, logger *zap.Logger) *GetGraphDataHandler {
	return &GetGraphDataHandler{
		graph:    graphStore,
		clusters: clusterStore,
		logger:   logger,
	}
}

// Handle executes the query. A meeting with no prior activity yields
// an empty result without creating its root.
func (h *GetGraphDataHandler) Handle(ctx context.Context, query GetGraphDataQuery) (*GetGraphDataResult, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	nodes, err := h.graph.GetAllNodes(ctx, query.MeetingID)
	if err != nil {
		return nil, err
	}
	clusters, err := h.clusters.GetClusters(ctx, query.MeetingID)
	if err != nil {
		return nil, err
	}

	result := &GetGraphDataResult{
		Nodes: make([]GraphNode, 0, len(nodes)),
		Edges: make([]GraphEdge, 0, len(nodes)),
	}

	maxDepth := 0
	for _, n := range nodes {
		color := graph.UnclusteredColor
		if n.ClusterID != nil {
			color = graph.ClusterColor(*n.ClusterID)
		}
		result.Nodes = append(result.Nodes, GraphNode{
			ID:           n.ID,
			Summary:      n.Summary,
			ParentID:     n.ParentID,
			Depth:        n.Depth,
			ClusterID:    n.ClusterID,
			ClusterColor: color,
			Speaker:      n.Metadata.Speaker,
			ChunkID:      n.Metadata.ChunkID,
			Timestamp:    n.Metadata.StartTime,
			IsRoot:       n.IsRoot(),
		})
		if n.Depth > maxDepth {
			maxDepth = n.Depth
		}
	}

	for _, e := range graph.DeriveEdges(nodes) {
		result.Edges = append(result.Edges, GraphEdge{
			FromNode: e.FromNode,
			ToNode:   e.ToNode,
			Type:     string(e.Type),
			Strength: e.Strength,
			Metadata: e.Metadata,
		})
	}

	result.Stats = GraphStats{
		NodeCount:    len(result.Nodes),
		EdgeCount:    len(result.Edges),
		ClusterCount: len(clusters),
		MaxDepth:     maxDepth,
	}

	h.logger.Debug("graph data retrieved",
		zap.String("meetingID", query.MeetingID),
		zap.Int("nodeCount", result.Stats.NodeCount),
		zap.Int("edgeCount", result.Stats.EdgeCount),
		zap.Int("clusterCount", result.Stats.ClusterCount),
	)
	return result, nil
}
