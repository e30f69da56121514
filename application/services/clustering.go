package services

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"meetmap-backend/application/ports"
	"meetmap-backend/domain/graph"
	"meetmap-backend/domain/vector"
	"meetmap-backend/pkg/observability"
)

// ClusterAssigner performs incremental threshold clustering. It runs
// after a node is durably placed and must never block or roll back the
// placement: callers log and swallow any error it returns.
type ClusterAssigner struct {
	graph    ports.GraphStore
	clusters ports.ClusterStore
	logger   *zap.Logger
	metrics  *observability.Collector

	mu        sync.RWMutex
	threshold float64
}

// NewClusterAssigner creates the assigner. metrics may be nil.
func NewClusterAssigner(graphStore ports.GraphStore, clusterStore ports.ClusterStore, threshold float64, logger *zap.Logger, metrics *observability.Collector) *ClusterAssigner {
	return &ClusterAssigner{
		graph:     graphStore,
		clusters:  clusterStore,
		logger:    logger,
		metrics:   metrics,
		threshold: threshold,
	}
}

// SetThreshold updates the join threshold at runtime.
func (a *ClusterAssigner) SetThreshold(v float64) {
	if v < 0 || v > 1 {
		return
	}
	a.mu.Lock()
	a.threshold = v
	a.mu.Unlock()
}

func (a *ClusterAssigner) currentThreshold() float64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.threshold
}

// Assign joins the node to the closest cluster, or seeds a new cluster
// when nothing is close enough. Returns the assigned cluster id.
func (a *ClusterAssigner) Assign(ctx context.Context, meetingID, nodeID string, embedding []float64) (int, error) {
	clusters, err := a.clusters.GetClusters(ctx, meetingID)
	if err != nil {
		return 0, err
	}

	var best *graph.Cluster
	bestSim := -1.0
	for _, c := range clusters {
		sim := vector.CosineSimilarity(embedding, c.Centroid)
		if sim > bestSim {
			bestSim = sim
			best = c
		}
	}

	if best != nil && bestSim >= a.currentThreshold() {
		return a.join(ctx, meetingID, nodeID, embedding, best, bestSim)
	}
	return a.create(ctx, meetingID, nodeID, embedding, bestSim)
}

func (a *ClusterAssigner) join(ctx context.Context, meetingID, nodeID string, embedding []float64, cluster *graph.Cluster, similarity float64) (int, error) {
	// n counts the new member; the running mean stays exact.
	n := cluster.MemberCount + 1
	updated := &graph.Cluster{
		ID:          cluster.ID,
		MeetingID:   meetingID,
		Centroid:    vector.UpdateCentroid(cluster.Centroid, embedding, n),
		MemberCount: n,
	}

	if err := a.clusters.SaveCluster(ctx, meetingID, updated); err != nil {
		return 0, err
	}
	if err := a.clusters.AddMember(ctx, meetingID, cluster.ID, nodeID); err != nil {
		return 0, err
	}
	if err := a.graph.SetNodeCluster(ctx, meetingID, nodeID, cluster.ID); err != nil {
		return 0, err
	}

	if a.metrics != nil {
		a.metrics.ClusterJoins.Inc()
	}
	a.logger.Debug("node joined cluster",
		zap.String("meetingID", meetingID),
		zap.String("nodeID", nodeID),
		zap.Int("clusterID", cluster.ID),
		zap.Float64("similarity", similarity),
		zap.Int("memberCount", n),
	)
	return cluster.ID, nil
}

func (a *ClusterAssigner) create(ctx context.Context, meetingID, nodeID string, embedding []float64, bestSim float64) (int, error) {
	id, err := a.clusters.NextClusterID(ctx, meetingID)
	if err != nil {
		return 0, err
	}

	seeded := &graph.Cluster{
		ID:          id,
		MeetingID:   meetingID,
		Centroid:    vector.Clone(embedding),
		MemberCount: 1,
	}
	if err := a.clusters.SaveCluster(ctx, meetingID, seeded); err != nil {
		return 0, err
	}
	if err := a.clusters.AddMember(ctx, meetingID, id, nodeID); err != nil {
		return 0, err
	}
	if err := a.graph.SetNodeCluster(ctx, meetingID, nodeID, id); err != nil {
		return 0, err
	}

	if a.metrics != nil {
		a.metrics.ClustersCreated.Inc()
	}
	a.logger.Debug("created cluster",
		zap.String("meetingID", meetingID),
		zap.String("nodeID", nodeID),
		zap.Int("clusterID", id),
		zap.Float64("bestSimilarity", bestSim),
	)
	return id, nil
}
