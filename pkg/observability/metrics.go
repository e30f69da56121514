// Package observability holds the Prometheus metrics surface.
package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	globalCollector *Collector
	collectorMutex  sync.Mutex
)

// Collector holds all Prometheus metrics for the engine.
type Collector struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Pipeline metrics
	ChunksProcessed  prometheus.Counter
	IdeasExtracted   prometheus.Counter
	NodesPlaced      prometheus.Counter
	PlacementLatency prometheus.Histogram

	// Placement decisions, labeled by how the parent was chosen
	// (oracle, fallback_candidate, fallback_parent, fallback_root)
	PlacementDecisions *prometheus.CounterVec
	OracleFailures     prometheus.Counter

	// Clustering metrics
	ClustersCreated    prometheus.Counter
	ClusterJoins       prometheus.Counter
	ClusteringFailures prometheus.Counter

	// Store metrics
	DBOperations *prometheus.CounterVec
	DBDuration   *prometheus.HistogramVec
}

// NewCollector creates the metrics collector. A process-wide singleton
// avoids duplicate registration when the container is rebuilt in tests.
func NewCollector(namespace string) *Collector {
	collectorMutex.Lock()
	defer collectorMutex.Unlock()

	if globalCollector != nil {
		return globalCollector
	}

	registry := prometheus.NewRegistry()

	httpRequests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	chunksProcessed := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_processed_total",
			Help:      "Total number of transcript chunks processed",
		},
	)

	ideasExtracted := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ideas_extracted_total",
			Help:      "Total number of ideas extracted from chunks",
		},
	)

	nodesPlaced := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "nodes_placed_total",
			Help:      "Total number of idea nodes placed in graphs",
		},
	)

	placementLatency := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "placement_duration_seconds",
			Help:      "End to end placement duration per idea",
			Buckets:   prometheus.DefBuckets,
		},
	)

	placementDecisions := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "placement_decisions_total",
			Help:      "Placement decisions by parent selection path",
		},
		[]string{"path"},
	)

	oracleFailures := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "oracle_failures_total",
			Help:      "Total number of placement oracle failures absorbed by fallback",
		},
	)

	clustersCreated := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "clusters_created_total",
			Help:      "Total number of clusters created",
		},
	)

	clusterJoins := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cluster_joins_total",
			Help:      "Total number of nodes joined to existing clusters",
		},
	)

	clusteringFailures := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "clustering_failures_total",
			Help:      "Total number of swallowed cluster assignment failures",
		},
	)

	dbOperations := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "db_operations_total",
			Help:      "Total number of store operations",
		},
		[]string{"operation", "status"},
	)

	dbDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "db_operation_duration_seconds",
			Help:      "Store operation duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	registry.MustRegister(
		httpRequests,
		httpDuration,
		chunksProcessed,
		ideasExtracted,
		nodesPlaced,
		placementLatency,
		placementDecisions,
		oracleFailures,
		clustersCreated,
		clusterJoins,
		clusteringFailures,
		dbOperations,
		dbDuration,
	)

	globalCollector = &Collector{
		registry:           registry,
		HTTPRequests:       httpRequests,
		HTTPDuration:       httpDuration,
		ChunksProcessed:    chunksProcessed,
		IdeasExtracted:     ideasExtracted,
		NodesPlaced:        nodesPlaced,
		PlacementLatency:   placementLatency,
		PlacementDecisions: placementDecisions,
		OracleFailures:     oracleFailures,
		ClustersCreated:    clustersCreated,
		ClusterJoins:       clusterJoins,
		ClusteringFailures: clusteringFailures,
		DBOperations:       dbOperations,
		DBDuration:         dbDuration,
	}

	return globalCollector
}

// ResetForTesting clears the singleton so tests can rebuild collectors.
func ResetForTesting() {
	collectorMutex.Lock()
	defer collectorMutex.Unlock()
	globalCollector = nil
}

// GetRegistry returns the Prometheus registry for this collector.
func (c *Collector) GetRegistry() *prometheus.Registry {
	return c.registry
}
