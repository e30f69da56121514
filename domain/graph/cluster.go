package graph

import "time"

// clusterColors is the shared display palette. Color is always a pure
// function of the cluster id, recomputed on demand, so it wraps around
// once more clusters exist than palette entries.
var clusterColors = []string{
	"#FF6B6B", "#4ECDC4", "#45B7D1", "#FFA07A", "#98D8C8",
	"#F7DC6F", "#BB8FCE", "#85C1E2", "#F8B739", "#52BE80",
	"#EC7063", "#5DADE2", "#F1948A", "#82E0AA", "#F4D03F",
	"#AED6F1", "#F9E79F", "#A9DFBF", "#F5B7B1", "#D7BDE2",
}

// UnclusteredColor is the display color for nodes not yet assigned.
const UnclusteredColor = "#CCCCCC"

// Cluster groups semantically close nodes within one meeting. The
// centroid is the running mean of the members' embeddings. Clusters are
// created when no centroid is close enough to a new embedding and are
// never deleted or merged.
type Cluster struct {
	ID          int
	MeetingID   string
	Centroid    []float64
	MemberCount int
	UpdatedAt   time.Time
}

// Color returns the cluster's display color.
func (c *Cluster) Color() string {
	return ClusterColor(c.ID)
}

// ClusterColor maps a cluster id onto the palette.
func ClusterColor(id int) string {
	if id < 0 {
		return UnclusteredColor
	}
	return clusterColors[id%len(clusterColors)]
}

// PaletteSize returns the number of distinct cluster colors.
func PaletteSize() int {
	return len(clusterColors)
}
