package providers

import (
	"os"
	"testing"

	"github.com/kindsetup-labs/kindsetup/pkg/config"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func topologyConfig() config.ClusterConfig {
	return config.ClusterConfig{
		Name:        "dev",
		WorkerNodes: 2,
		Ports:       config.PortAllocation{HTTP: 8080, HTTPS: 8443, NodePort: 30081},
	}
}

func TestBuildTopologyLayout(t *testing.T) {
	top := BuildTopology(topologyConfig())

	require.Equal(t, "Cluster", top.Kind)
	require.Equal(t, "kind.x-k8s.io/v1alpha4", top.APIVersion)
	require.Len(t, top.Nodes, 3)

	cp := top.Nodes[0]
	require.Equal(t, "control-plane", cp.Role)
	require.Equal(t, []PortMapping{
		{ContainerPort: 80, HostPort: 8080, Protocol: "TCP"},
		{ContainerPort: 443, HostPort: 8443, Protocol: "TCP"},
		{ContainerPort: 30080, HostPort: 30081, Protocol: "TCP"},
	}, cp.ExtraPortMappings)
	require.Len(t, cp.KubeadmConfigPatches, 1)
	require.Contains(t, cp.KubeadmConfigPatches[0], "ingress-ready=true")

	for _, n := range top.Nodes[1:] {
		require.Equal(t, "worker", n.Role)
		require.Empty(t, n.ExtraPortMappings)
		require.Len(t, n.KubeadmConfigPatches, 1)
		require.Contains(t, n.KubeadmConfigPatches[0], "kind.x-k8s.io/worker=true")
	}
}

func TestBuildTopologyMountsDockerSocket(t *testing.T) {
	top := BuildTopology(topologyConfig())

	for _, n := range top.Nodes {
		require.Equal(t, []NodeMount{
			{HostPath: "/var/run/docker.sock", ContainerPath: "/var/run/docker.sock"},
		}, n.ExtraMounts)
	}
}

func TestWriteTopologyFileRoundTrips(t *testing.T) {
	path, cleanup, err := WriteTopologyFile(topologyConfig())
	require.NoError(t, err)
	require.Contains(t, path, "kind-config-dev")

	d, err := os.ReadFile(path)
	require.NoError(t, err)

	got := Topology{}
	require.NoError(t, yaml.Unmarshal(d, &got))
	require.Equal(t, BuildTopology(topologyConfig()), got)

	cleanup()
	_, err = os.Stat(path)
	require.True(t, os.IsNotExist(err))
}
