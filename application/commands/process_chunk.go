// Package commands holds the state-changing operations of the engine:
// processing a transcript chunk and resetting a meeting.
package commands

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"meetmap-backend/application/ports"
	"meetmap-backend/application/services"
	"meetmap-backend/domain/graph"
	"meetmap-backend/infrastructure/locking"
	"meetmap-backend/pkg/observability"
	"meetmap-backend/pkg/utils"
)

// ProcessChunkCommand carries one transcript chunk through the
// pipeline: extract ideas, embed, place, cluster.
type ProcessChunkCommand struct {
	MeetingID string  `json:"meeting_id" validate:"required"`
	ChunkID   string  `json:"chunk_id"`
	Text      string  `json:"text" validate:"required"`
	Speaker   string  `json:"speaker"`
	StartTime float64 `json:"start_time" validate:"gte=0"`
	EndTime   float64 `json:"end_time" validate:"gte=0"`
}

// Validate checks the command's fields.
func (c ProcessChunkCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// NodeData is the frontend-facing node payload.
type NodeData struct {
	ID         string         `json:"id"`
	Text       string         `json:"text"`
	Type       string         `json:"type"`
	Speaker    string         `json:"speaker,omitempty"`
	Timestamp  float64        `json:"timestamp"`
	Confidence float64        `json:"confidence"`
	Metadata   map[string]any `json:"metadata"`
}

// EdgeData is the frontend-facing edge payload.
type EdgeData struct {
	FromNode string         `json:"from_node"`
	ToNode   string         `json:"to_node"`
	Type     string         `json:"type"`
	Strength float64        `json:"strength"`
	Metadata map[string]any `json:"metadata"`
}

// ProcessChunkResult reports what the chunk added to the graph.
type ProcessChunkResult struct {
	Nodes          []NodeData `json:"nodes"`
	Edges          []EdgeData `json:"edges"`
	IdeasExtracted int        `json:"ideas_extracted"`
}

// recentChunkCount bounds how many prior chunks feed conversational
// context to the extractor.
const recentChunkCount = 5

// ProcessChunkHandler runs the placement pipeline for one chunk. All
// graph mutations for a meeting are serialized behind the tenant lock;
// placements within a chunk happen in order, each observing the
// results of the ones before it.
type ProcessChunkHandler struct {
	locker    *locking.TenantLocker
	graph     ports.GraphStore
	embedder  ports.Embedder
	extractor ports.IdeaExtractor
	placement *services.PlacementEngine
	assigner  *services.ClusterAssigner
	logger    *zap.Logger
	metrics   *observability.Collector
}

// NewProcessChunkHandler creates the pipeline handler. metrics may be
// nil.
func NewProcessChunkHandler(
	locker *locking.TenantLocker,
	graphStore ports.GraphStore,
	embedder ports.Embedder,
	extractor ports.IdeaExtractor,
	placement *services.PlacementEngine,
	assigner *services.ClusterAssigner,
	logger *zap.Logger,
	metrics *observability.Collector,
) *ProcessChunkHandler {
	return &ProcessChunkHandler{
		locker:    locker,
		graph:     graphStore,
		embedder:  embedder,
		extractor: extractor,
		placement: placement,
		assigner:  assigner,
		logger:    logger,
		metrics:   metrics,
	}
}

// Handle processes the chunk and returns the new nodes and edges in
// frontend format. The root node is included once, on the first chunk
// that produces nodes for the meeting.
func (h *ProcessChunkHandler) Handle(ctx context.Context, cmd ProcessChunkCommand) (*ProcessChunkResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	h.locker.Lock(cmd.MeetingID)
	defer h.locker.Unlock(cmd.MeetingID)

	root, err := h.graph.GetRoot(ctx, cmd.MeetingID)
	if err != nil {
		return nil, err
	}

	existing, err := h.graph.GetAllNodes(ctx, cmd.MeetingID)
	if err != nil {
		return nil, err
	}
	firstChunk := len(existing) <= 1

	ideas, err := h.extractor.ExtractIdeas(ctx, cmd.Text, recentSummaries(existing))
	if err != nil {
		// Extraction failure means no work for this chunk, never a
		// pipeline failure.
		h.logger.Warn("idea extraction failed, skipping chunk",
			zap.String("meetingID", cmd.MeetingID),
			zap.String("chunkID", cmd.ChunkID),
			zap.Error(err),
		)
		if h.metrics != nil {
			h.metrics.OracleFailures.Inc()
		}
		return &ProcessChunkResult{Nodes: []NodeData{}, Edges: []EdgeData{}}, nil
	}

	if h.metrics != nil {
		h.metrics.ChunksProcessed.Inc()
		h.metrics.IdeasExtracted.Add(float64(len(ideas)))
	}

	newNodes := make([]*graph.Node, 0, len(ideas))
	for _, idea := range ideas {
		node, err := h.placeIdea(ctx, cmd, idea)
		if err != nil {
			return nil, err
		}
		if node != nil {
			newNodes = append(newNodes, node)
		}
	}

	result := &ProcessChunkResult{
		Nodes:          make([]NodeData, 0, len(newNodes)+1),
		Edges:          make([]EdgeData, 0, len(newNodes)),
		IdeasExtracted: len(ideas),
	}

	if firstChunk && len(newNodes) > 0 {
		result.Nodes = append(result.Nodes, rootNodeData(root))
	}
	for _, node := range newNodes {
		result.Nodes = append(result.Nodes, toNodeData(node))
		if edge := graph.DeriveEdge(node); edge != nil {
			result.Edges = append(result.Edges, toEdgeData(edge))
		}
	}

	h.logger.Info("chunk processed",
		zap.String("meetingID", cmd.MeetingID),
		zap.String("chunkID", cmd.ChunkID),
		zap.Int("ideas", len(ideas)),
		zap.Int("nodesPlaced", len(newNodes)),
	)
	return result, nil
}

// placeIdea embeds one idea, decides its parent, writes the node, and
// assigns a cluster. Cluster assignment is a non-fatal side channel; an
// unembeddable idea is skipped rather than failing the chunk.
func (h *ProcessChunkHandler) placeIdea(ctx context.Context, cmd ProcessChunkCommand, idea string) (*graph.Node, error) {
	start := time.Now()

	embedding, err := h.embedder.Embed(ctx, idea)
	if err != nil {
		h.logger.Warn("embedding failed, skipping idea",
			zap.String("meetingID", cmd.MeetingID),
			zap.String("idea", idea),
			zap.Error(err),
		)
		if h.metrics != nil {
			h.metrics.OracleFailures.Inc()
		}
		return nil, nil
	}

	decision, err := h.placement.DetermineParent(ctx, cmd.MeetingID, idea, embedding)
	if err != nil {
		return nil, err
	}

	node, err := h.graph.AddNode(ctx, cmd.MeetingID, ports.NewNodeParams{
		NodeID:    uuid.NewString(),
		Embedding: embedding,
		Summary:   idea,
		ParentID:  decision.ParentID,
		Metadata: graph.Metadata{
			ChunkID:   cmd.ChunkID,
			Speaker:   cmd.Speaker,
			StartTime: cmd.StartTime,
			EndTime:   cmd.EndTime,
			Extra: map[string]string{
				"placement_path": decision.Path,
			},
		},
	})
	if err != nil {
		return nil, err
	}

	if h.metrics != nil {
		h.metrics.NodesPlaced.Inc()
		h.metrics.PlacementLatency.Observe(time.Since(start).Seconds())
	}

	if clusterID, err := h.assigner.Assign(ctx, cmd.MeetingID, node.ID, embedding); err != nil {
		// The node stays valid in the tree with a nil cluster id.
		h.logger.Warn("cluster assignment failed",
			zap.String("meetingID", cmd.MeetingID),
			zap.String("nodeID", node.ID),
			zap.Error(err),
		)
		if h.metrics != nil {
			h.metrics.ClusteringFailures.Inc()
		}
	} else {
		node.ClusterID = &clusterID
	}
	return node, nil
}

// recentSummaries collects the ideas of the last recentChunkCount
// chunks, grouped by chunk in chronological order. nodes arrive in
// creation order, so a chunk's position is its first node's position.
func recentSummaries(nodes []*graph.Node) []string {
	byChunk := make(map[string][]string)
	chunkOrder := make([]string, 0)
	for _, n := range nodes {
		if n.ID == graph.RootNodeID {
			continue
		}
		chunkID := n.Metadata.ChunkID
		if chunkID == "" {
			chunkID = "unknown"
		}
		if _, seen := byChunk[chunkID]; !seen {
			chunkOrder = append(chunkOrder, chunkID)
		}
		byChunk[chunkID] = append(byChunk[chunkID], n.Summary)
	}

	if len(chunkOrder) > recentChunkCount {
		chunkOrder = chunkOrder[len(chunkOrder)-recentChunkCount:]
	}

	summaries := make([]string, 0, len(chunkOrder))
	for _, chunkID := range chunkOrder {
		summaries = append(summaries, byChunk[chunkID]...)
	}
	return summaries
}

func rootNodeData(root *graph.Node) NodeData {
	return NodeData{
		ID:         root.ID,
		Text:       root.Summary,
		Type:       "idea",
		Timestamp:  0,
		Confidence: 1.0,
		Metadata: map[string]any{
			"depth":   0,
			"is_root": true,
		},
	}
}

func toNodeData(node *graph.Node) NodeData {
	metadata := map[string]any{
		"depth":     node.Depth,
		"parent_id": node.ParentID,
		"chunk_id":  node.Metadata.ChunkID,
	}
	if node.ClusterID != nil {
		metadata["cluster_id"] = *node.ClusterID
		metadata["cluster_color"] = graph.ClusterColor(*node.ClusterID)
	}
	for k, v := range node.Metadata.Extra {
		metadata[k] = v
	}
	return NodeData{
		ID:         node.ID,
		Text:       node.Summary,
		Type:       "idea",
		Speaker:    node.Metadata.Speaker,
		Timestamp:  node.Metadata.StartTime,
		Confidence: 1.0,
		Metadata:   metadata,
	}
}

func toEdgeData(edge *graph.Edge) EdgeData {
	metadata := make(map[string]any, len(edge.Metadata))
	for k, v := range edge.Metadata {
		metadata[k] = v
	}
	return EdgeData{
		FromNode: edge.FromNode,
		ToNode:   edge.ToNode,
		Type:     string(edge.Type),
		Strength: edge.Strength,
		Metadata: metadata,
	}
}
