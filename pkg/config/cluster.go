// Package config defines the resources consumed by the cluster lifecycle
// provider. Values are validated before use, the core never reads process
// environment directly.
package config

import (
	"fmt"
)

// Default host ports requested for ingress and NodePort traffic
const (
	DefaultHTTPPort     = 80
	DefaultHTTPSPort    = 443
	DefaultNodePortBase = 30000
)

// NodeResources declares the cpu and memory limits for a node role
type NodeResources struct {
	// CPU is a fractional cpu count, e.g. "1" or "1.5"
	CPU string

	// Memory is a human readable quantity, e.g. "2GB" or "512MB"
	Memory string
}

// PortAllocation holds the host ports assigned to the cluster
type PortAllocation struct {
	HTTP     int
	HTTPS    int
	NodePort int
}

// Merge returns a copy with any non zero fields of other taking precedence
func (p PortAllocation) Merge(other PortAllocation) PortAllocation {
	if other.HTTP != 0 {
		p.HTTP = other.HTTP
	}

	if other.HTTPS != 0 {
		p.HTTPS = other.HTTPS
	}

	if other.NodePort != 0 {
		p.NodePort = other.NodePort
	}

	return p
}

// EnvironmentConfig labels the environment a cluster serves, it does not
// affect the cluster topology
type EnvironmentConfig struct {
	Environment string
	Namespace   string
}

// ClusterConfig declares a single kind cluster
type ClusterConfig struct {
	// Name uniquely identifies the cluster
	Name string

	// WorkerNodes is the number of worker nodes, the cluster always has
	// exactly one control plane
	WorkerNodes int

	// ControlPlane and Worker hold the per role resource limits
	ControlPlane NodeResources
	Worker       NodeResources

	// ApplyResourceLimits enables updating the node containers with the
	// declared limits after creation
	ApplyResourceLimits bool

	// Ports are the requested host ports, port negotiation may assign
	// alternatives before the topology is generated
	Ports PortAllocation
}

// DefaultClusterConfig returns a two worker cluster with modest limits, the
// name defaults to kind-cluster-<namespace> when empty
func DefaultClusterConfig(name string, env EnvironmentConfig) ClusterConfig {
	if name == "" {
		ns := env.Namespace
		if ns == "" {
			ns = "dev"
		}

		name = fmt.Sprintf("kind-cluster-%s", ns)
	}

	return ClusterConfig{
		Name:                name,
		WorkerNodes:         2,
		ControlPlane:        NodeResources{CPU: "1", Memory: "2GB"},
		Worker:              NodeResources{CPU: "1", Memory: "2GB"},
		ApplyResourceLimits: true,
		Ports: PortAllocation{
			HTTP:     DefaultHTTPPort,
			HTTPS:    DefaultHTTPSPort,
			NodePort: DefaultNodePortBase,
		},
	}
}

// Validate checks the configuration is usable
func (c *ClusterConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("cluster name must be set")
	}

	if c.WorkerNodes < 0 {
		return fmt.Errorf("worker node count must not be negative, got %d", c.WorkerNodes)
	}

	classes := []struct {
		port  int
		class string
	}{
		{c.Ports.HTTP, "http"},
		{c.Ports.HTTPS, "https"},
		{c.Ports.NodePort, "nodeport"},
	}

	seen := map[int]string{}
	for _, p := range classes {
		if p.port < 1 || p.port > 65535 {
			return fmt.Errorf("%s port %d out of range", p.class, p.port)
		}

		if other, ok := seen[p.port]; ok {
			return fmt.Errorf("%s port %d clashes with %s port", p.class, p.port, other)
		}

		seen[p.port] = p.class
	}

	return nil
}
