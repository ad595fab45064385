package providers

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/kindsetup-labs/kindsetup/pkg/config"
	"gopkg.in/yaml.v3"
)

const (
	topologyAPIVersion = "kind.x-k8s.io/v1alpha4"
	dockerSocketPath   = "/var/run/docker.sock"

	// kubeadm patches labelling the nodes, the control plane is marked
	// ingress ready so an ingress controller can be scheduled on it
	controlPlanePatch = "kind: InitConfiguration\n" +
		"nodeRegistration:\n" +
		"  kubeletExtraArgs:\n" +
		"    node-labels: \"ingress-ready=true\"\n"

	workerPatch = "kind: JoinConfiguration\n" +
		"nodeRegistration:\n" +
		"  kubeletExtraArgs:\n" +
		"    node-labels: \"kind.x-k8s.io/worker=true\""
)

// Topology is the declarative node layout consumed by the provisioning tool
type Topology struct {
	Kind       string         `yaml:"kind"`
	APIVersion string         `yaml:"apiVersion"`
	Nodes      []TopologyNode `yaml:"nodes"`
}

type TopologyNode struct {
	Role                 string        `yaml:"role"`
	ExtraMounts          []NodeMount   `yaml:"extraMounts,omitempty"`
	KubeadmConfigPatches []string      `yaml:"kubeadmConfigPatches,omitempty"`
	ExtraPortMappings    []PortMapping `yaml:"extraPortMappings,omitempty"`
}

type NodeMount struct {
	HostPath      string `yaml:"hostPath"`
	ContainerPath string `yaml:"containerPath"`
}

type PortMapping struct {
	ContainerPort int    `yaml:"containerPort"`
	HostPort      int    `yaml:"hostPort"`
	Protocol      string `yaml:"protocol"`
}

// BuildTopology generates the node layout for the given configuration, a
// single control plane exposing the negotiated host ports followed by the
// configured number of workers
func BuildTopology(c config.ClusterConfig) Topology {
	socketMount := NodeMount{
		HostPath:      dockerSocketPath,
		ContainerPath: dockerSocketPath,
	}

	nodes := []TopologyNode{
		{
			Role:                 "control-plane",
			ExtraMounts:          []NodeMount{socketMount},
			KubeadmConfigPatches: []string{controlPlanePatch},
			ExtraPortMappings: []PortMapping{
				{ContainerPort: 80, HostPort: c.Ports.HTTP, Protocol: "TCP"},
				{ContainerPort: 443, HostPort: c.Ports.HTTPS, Protocol: "TCP"},
				{ContainerPort: 30080, HostPort: c.Ports.NodePort, Protocol: "TCP"},
			},
		},
	}

	for i := 0; i < c.WorkerNodes; i++ {
		nodes = append(nodes, TopologyNode{
			Role:                 "worker",
			ExtraMounts:          []NodeMount{socketMount},
			KubeadmConfigPatches: []string{workerPatch},
		})
	}

	return Topology{
		Kind:       "Cluster",
		APIVersion: topologyAPIVersion,
		Nodes:      nodes,
	}
}

// WriteTopologyFile marshals the topology to a temporary file for the
// provisioning tool, the returned cleanup removes the file
func WriteTopologyFile(c config.ClusterConfig) (string, func(), error) {
	t := BuildTopology(c)

	d, err := yaml.Marshal(t)
	if err != nil {
		return "", nil, err
	}

	path := filepath.Join(os.TempDir(), fmt.Sprintf("kind-config-%s.yaml", c.Name))
	if err := os.WriteFile(path, d, 0644); err != nil {
		return "", nil, err
	}

	return path, func() { os.Remove(path) }, nil
}
