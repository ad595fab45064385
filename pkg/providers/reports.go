package providers

// Health status values reported by CheckHealth
const (
	HealthStatusHealthy     = "healthy"
	HealthStatusDegraded    = "degraded"
	HealthStatusUnavailable = "unavailable"
)

// NodeHealth is the readiness of a single node
type NodeHealth struct {
	Ready bool `json:"ready"`
}

// HealthDetails carries either per node readiness or the query error
type HealthDetails struct {
	Nodes map[string]NodeHealth `json:"nodes,omitempty"`
	Error string                `json:"error,omitempty"`
}

// HealthReport is the aggregate health of a cluster
type HealthReport struct {
	Status  string        `json:"status"`
	Details HealthDetails `json:"details"`
	Issues  []string      `json:"issues"`
}

// NodeInfo describes a node enriched with a utilisation sample
type NodeInfo struct {
	Name    string `json:"name"`
	Role    string `json:"role"`
	Status  string `json:"status"`
	CPU     int    `json:"cpu"`
	Memory  int    `json:"memory"`
	Disk    int    `json:"disk"`
	Version string `json:"version"`
}

// ClusterInfo is the node inventory of a cluster, Error is set when the
// cluster could not be queried
type ClusterInfo struct {
	Nodes []NodeInfo `json:"nodes"`
	Error string     `json:"error,omitempty"`
}
