package providers

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kindsetup-labs/kindsetup/pkg/clients/command"
	"github.com/kindsetup-labs/kindsetup/pkg/clients/container/mocks"
	"github.com/kindsetup-labs/kindsetup/pkg/clients/k8s"
	kindclient "github.com/kindsetup-labs/kindsetup/pkg/clients/kind"
	"github.com/kindsetup-labs/kindsetup/pkg/clients/logger"
	"github.com/kindsetup-labs/kindsetup/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type clusterMocks struct {
	runtime *mocks.Runtime
	kind    *kindclient.MockKind
	kubectl *k8s.MockKubectl
	runner  *command.MockRunner
}

func testCluster(t *testing.T) (*KindCluster, *clusterMocks) {
	m := &clusterMocks{
		runtime: &mocks.Runtime{},
		kind:    &kindclient.MockKind{},
		kubectl: &k8s.MockKubectl{},
		runner:  command.NewMockRunner(),
	}

	env := config.EnvironmentConfig{Environment: "dev", Namespace: "testing"}
	cc := config.DefaultClusterConfig("test", env)
	cc.ApplyResourceLimits = false

	p := NewKindCluster(cc, env, m.runtime, m.kind, m.kubectl, m.runner, logger.NewTestLogger(t))

	// virtual clock, sleeps advance it instantly
	clock := time.Now()
	p.now = func() time.Time { return clock }
	p.sleep = func(d time.Duration) { clock = clock.Add(d) }

	// keep the backoff pauses negligible
	p.createRetry.InitialDelay = time.Millisecond
	p.negotiateRetry.InitialDelay = time.Millisecond
	p.deleteRetry.InitialDelay = time.Millisecond
	p.ingressRetry.InitialDelay = time.Millisecond

	// nothing is listening, every requested port negotiates to itself
	p.negotiator.dial = func(network, address string, timeout time.Duration) (net.Conn, error) {
		return nil, fmt.Errorf("connection refused")
	}

	return p, m
}

func readyNodes() []k8s.NodeStatus {
	return []k8s.NodeStatus{
		{Name: "test-control-plane", Ready: "True"},
		{Name: "test-worker", Ready: "True"},
		{Name: "test-worker2", Ready: "True"},
	}
}

func setupCreateMocks(m *clusterMocks) {
	m.runtime.On("IsRunning").Return(true)
	m.kind.On("IsInstalled").Return(true)

	// the cluster does not exist before the create and does afterwards
	m.kind.On("GetClusters").Return([]string{}, nil).Once()
	m.kind.On("GetClusters").Return([]string{"test"}, nil)

	m.kind.On("CreateCluster", "test", mock.Anything).Return(nil)
	m.kubectl.On("NodeStatuses", "kind-test").Return(readyNodes(), nil)
}

func TestCreateProvisionsCluster(t *testing.T) {
	p, m := testCluster(t)
	setupCreateMocks(m)

	err := p.Create()
	require.NoError(t, err)

	require.True(t, p.Owned())
	m.kind.AssertNumberOfCalls(t, "CreateCluster", 1)

	// requested ports were free so they are kept
	require.Equal(t, config.PortAllocation{HTTP: 80, HTTPS: 443, NodePort: 30000}, p.Ports())

	// the generated config was handed to the provisioning tool
	path := ""
	for _, c := range m.kind.Calls {
		if c.Method == "CreateCluster" {
			path = c.Arguments.String(1)
		}
	}
	require.Contains(t, path, "kind-config-test")
}

func TestCreateSkipsExistingCluster(t *testing.T) {
	p, m := testCluster(t)
	m.runtime.On("IsRunning").Return(true)
	m.kind.On("IsInstalled").Return(true)
	m.kind.On("GetClusters").Return([]string{"test"}, nil)

	err := p.Create()
	require.NoError(t, err)

	// a discovered cluster is never owned
	require.False(t, p.Owned())
	m.kind.AssertNotCalled(t, "CreateCluster", mock.Anything, mock.Anything)
}

func TestCreateTwiceProvisionsOnce(t *testing.T) {
	p, m := testCluster(t)
	m.runtime.On("IsRunning").Return(true)
	m.kind.On("IsInstalled").Return(true)
	m.kind.On("GetClusters").Return([]string{}, nil).Once()
	m.kind.On("GetClusters").Return([]string{"test"}, nil)
	m.kind.On("CreateCluster", "test", mock.Anything).Return(nil)
	m.kubectl.On("NodeStatuses", "kind-test").Return(readyNodes(), nil)

	require.NoError(t, p.Create())
	require.NoError(t, p.Create())

	m.kind.AssertNumberOfCalls(t, "CreateCluster", 1)
	require.True(t, p.Owned())
}

func TestCreateFailsWhenDockerNotRunning(t *testing.T) {
	p, m := testCluster(t)
	m.runtime.On("IsRunning").Return(false)

	err := p.Create()
	require.Error(t, err)
	require.Equal(t, ErrorKindDockerNotRunning, KindOf(err))
	require.Contains(t, err.Error(), "start the Docker daemon")

	// the condition is treated as transient, all attempts are used
	m.runtime.AssertNumberOfCalls(t, "IsRunning", 3)
}

func TestCreateFailsWhenKindNotInstalled(t *testing.T) {
	p, m := testCluster(t)
	m.runtime.On("IsRunning").Return(true)
	m.kind.On("IsInstalled").Return(false)

	err := p.Create()
	require.Error(t, err)
	require.Equal(t, ErrorKindToolNotInstalled, KindOf(err))
}

func TestCreateCleansUpPartialCluster(t *testing.T) {
	p, m := testCluster(t)
	m.runtime.On("IsRunning").Return(true)
	m.kind.On("IsInstalled").Return(true)
	m.kind.On("GetClusters").Return([]string{}, nil)
	m.kind.On("CreateCluster", "test", mock.Anything).Return(fmt.Errorf("exit status 1"))
	m.kind.On("DeleteCluster", "test").Return(nil)

	err := p.Create()
	require.Error(t, err)
	require.Equal(t, ErrorKindClusterOperation, KindOf(err))
	require.False(t, p.Owned())

	// every failed attempt removes its partial cluster
	m.kind.AssertNumberOfCalls(t, "CreateCluster", 3)
	m.kind.AssertNumberOfCalls(t, "DeleteCluster", 3)
}

func TestCreateAddsRemediationForFullDisk(t *testing.T) {
	p, m := testCluster(t)
	m.runtime.On("IsRunning").Return(true)
	m.kind.On("IsInstalled").Return(true)
	m.kind.On("GetClusters").Return([]string{}, nil)
	m.kind.On("CreateCluster", "test", mock.Anything).
		Return(fmt.Errorf("command failed: no space left on device"))
	m.kind.On("DeleteCluster", "test").Return(nil)

	err := p.Create()
	require.Error(t, err)
	require.Contains(t, err.Error(), "no space left on device")
	require.Contains(t, err.Error(), "docker system prune")
}

func TestCreateReturnsNotReadyWithoutRetry(t *testing.T) {
	p, m := testCluster(t)
	p.readyTimeout = 12 * time.Second

	m.runtime.On("IsRunning").Return(true)
	m.kind.On("IsInstalled").Return(true)
	m.kind.On("GetClusters").Return([]string{}, nil)
	m.kind.On("CreateCluster", "test", mock.Anything).Return(nil)
	m.kubectl.On("NodeStatuses", "kind-test").Return([]k8s.NodeStatus{
		{Name: "test-control-plane", Ready: "False"},
	}, nil)

	err := p.Create()
	require.ErrorIs(t, err, ErrClusterNotReady)

	// the cluster is left in place for inspection and not owned
	require.False(t, p.Owned())
	m.kind.AssertNumberOfCalls(t, "CreateCluster", 1)
	m.kind.AssertNotCalled(t, "DeleteCluster", mock.Anything)
}

func TestWaitForReadyPollsUntilDeadline(t *testing.T) {
	p, m := testCluster(t)
	m.kubectl.On("NodeStatuses", "kind-test").Return(nil, fmt.Errorf("connection refused"))

	require.False(t, p.WaitForReady(12*time.Second))

	// polls at 0s, 5s and 10s of virtual time
	m.kubectl.AssertNumberOfCalls(t, "NodeStatuses", 3)
}

func TestWaitForReadyReturnsOnceAllNodesReady(t *testing.T) {
	p, m := testCluster(t)
	m.kubectl.On("NodeStatuses", "kind-test").Return([]k8s.NodeStatus{
		{Name: "test-control-plane", Ready: "False"},
	}, nil).Once()
	m.kubectl.On("NodeStatuses", "kind-test").Return(readyNodes(), nil)

	require.True(t, p.WaitForReady(time.Minute))
	m.kubectl.AssertNumberOfCalls(t, "NodeStatuses", 2)
}

func TestDeleteRemovesCluster(t *testing.T) {
	p, m := testCluster(t)
	setupCreateMocks(m)
	m.kind.On("DeleteCluster", "test").Return(nil)

	require.NoError(t, p.Create())
	require.True(t, p.Owned())

	require.NoError(t, p.Delete())
	require.False(t, p.Owned())
	m.kind.AssertNumberOfCalls(t, "DeleteCluster", 1)
}

func TestDeleteAbsentClusterIsNoop(t *testing.T) {
	p, m := testCluster(t)
	m.kind.On("GetClusters").Return([]string{"other"}, nil)

	require.NoError(t, p.Delete())
	m.kind.AssertNotCalled(t, "DeleteCluster", mock.Anything)
}

func TestDeleteRetriesTransientFailure(t *testing.T) {
	p, m := testCluster(t)
	m.kind.On("GetClusters").Return([]string{"test"}, nil)
	m.kind.On("DeleteCluster", "test").Return(fmt.Errorf("exit status 1")).Once()
	m.kind.On("DeleteCluster", "test").Return(nil)

	require.NoError(t, p.Delete())
	m.kind.AssertNumberOfCalls(t, "DeleteCluster", 2)
}

func TestCheckHealthHealthy(t *testing.T) {
	p, m := testCluster(t)
	m.kubectl.On("NodeStatuses", "kind-test").Return(readyNodes(), nil)

	r := p.CheckHealth()
	require.Equal(t, HealthStatusHealthy, r.Status)
	require.Empty(t, r.Issues)
	require.Len(t, r.Details.Nodes, 3)
	require.True(t, r.Details.Nodes["test-worker"].Ready)
}

func TestCheckHealthDegraded(t *testing.T) {
	p, m := testCluster(t)
	m.kubectl.On("NodeStatuses", "kind-test").Return([]k8s.NodeStatus{
		{Name: "test-control-plane", Ready: "True"},
		{Name: "test-worker", Ready: "False"},
	}, nil)

	r := p.CheckHealth()
	require.Equal(t, HealthStatusDegraded, r.Status)
	require.Equal(t, []string{"Node test-worker not ready"}, r.Issues)
	require.False(t, r.Details.Nodes["test-worker"].Ready)
}

func TestCheckHealthUnavailableOnError(t *testing.T) {
	p, m := testCluster(t)
	m.kubectl.On("NodeStatuses", "kind-test").Return(nil, fmt.Errorf("connection refused"))

	r := p.CheckHealth()
	require.Equal(t, HealthStatusUnavailable, r.Status)
	require.Equal(t, "connection refused", r.Details.Error)
	require.Equal(t, []string{"Cannot connect to cluster"}, r.Issues)
}

func TestCheckHealthUnavailableWithoutNodes(t *testing.T) {
	p, m := testCluster(t)
	m.kubectl.On("NodeStatuses", "kind-test").Return([]k8s.NodeStatus{}, nil)

	r := p.CheckHealth()
	require.Equal(t, HealthStatusUnavailable, r.Status)
	require.Equal(t, []string{"No nodes found in cluster"}, r.Issues)
}

func TestInfoMergesDetailsAndUsage(t *testing.T) {
	p, m := testCluster(t)
	m.kubectl.On("NodeDetails", "kind-test").Return([]k8s.NodeDetail{
		{Name: "test-control-plane", Status: "Ready", Version: "v1.29.2"},
		{Name: "test-worker", Status: "NotReady", Version: "v1.29.2"},
	}, nil)
	m.kubectl.On("TopNodes", "kind-test").Return([]k8s.NodeUsage{
		{Name: "test-control-plane", CPUPercent: 12, MemoryPercent: 40},
		{Name: "test-worker", CPUPercent: 3, MemoryPercent: 21},
	}, nil)

	info := p.Info()
	require.Empty(t, info.Error)
	require.Len(t, info.Nodes, 2)

	cp := info.Nodes[0]
	assert.Equal(t, "test-control-plane", cp.Name)
	assert.Equal(t, "control-plane", cp.Role)
	assert.Equal(t, "Ready", cp.Status)
	assert.Equal(t, 12, cp.CPU)
	assert.Equal(t, 40, cp.Memory)
	assert.Equal(t, "v1.29.2", cp.Version)

	w := info.Nodes[1]
	assert.Equal(t, "worker", w.Role)
	assert.Equal(t, "NotReady", w.Status)
}

func TestInfoDegradesWithoutMetrics(t *testing.T) {
	p, m := testCluster(t)
	m.kubectl.On("NodeDetails", "kind-test").Return([]k8s.NodeDetail{
		{Name: "test-control-plane", Status: "Ready", Version: "v1.29.2"},
	}, nil)
	m.kubectl.On("TopNodes", "kind-test").Return(nil, fmt.Errorf("metrics server not available"))

	info := p.Info()
	require.Empty(t, info.Error)
	require.Empty(t, info.Nodes)
}

func TestInfoReportsErrorWhenUnreachable(t *testing.T) {
	p, m := testCluster(t)
	m.kubectl.On("NodeDetails", "kind-test").Return(nil, fmt.Errorf("connection refused"))

	info := p.Info()
	require.Equal(t, "connection refused", info.Error)
	require.Empty(t, info.Nodes)
}

func TestInstallIngressAppliesManifestAndWaits(t *testing.T) {
	p, m := testCluster(t)
	m.kubectl.On("Apply", []string{ingressNginxManifest}, "kind-test", "").Return(nil)
	m.kubectl.On("WaitForCondition",
		"pod", "Ready", "app.kubernetes.io/component=controller", "90s", "kind-test", "ingress-nginx").
		Return(nil)

	require.NoError(t, p.InstallIngress("nginx"))
	m.kubectl.AssertExpectations(t)
}

func TestInstallIngressRejectsUnsupportedType(t *testing.T) {
	p, m := testCluster(t)

	err := p.InstallIngress("traefik")
	require.Error(t, err)
	require.Equal(t, ErrorKindValidation, KindOf(err))
	require.Contains(t, err.Error(), "traefik")

	m.kubectl.AssertNotCalled(t, "Apply", mock.Anything, mock.Anything, mock.Anything)
}

func TestInstallIngressRetriesTransientFailure(t *testing.T) {
	p, m := testCluster(t)
	m.kubectl.On("Apply", []string{ingressNginxManifest}, "kind-test", "").
		Return(fmt.Errorf("connection refused")).Once()
	m.kubectl.On("Apply", []string{ingressNginxManifest}, "kind-test", "").Return(nil)
	m.kubectl.On("WaitForCondition",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil)

	require.NoError(t, p.InstallIngress("nginx"))
	m.kubectl.AssertNumberOfCalls(t, "Apply", 2)
}

func TestPortForwardReturnsSession(t *testing.T) {
	p, m := testCluster(t)
	m.kubectl.On("PortForward", "svc/gateway", "8080:80", "kind-test").
		Return(4242, "/tmp/port-forward-test.log", nil)
	m.runner.SetStatus(4242, command.StatusRunning)

	s, err := p.PortForward("svc/gateway", "8080:80")
	require.NoError(t, err)
	require.Equal(t, 4242, s.Pid)
	require.Equal(t, "/tmp/port-forward-test.log", s.LogFile)

	require.NoError(t, s.Stop())
	require.Equal(t, []int{4242}, m.runner.Killed)
}

func TestPortForwardSurfacesEarlyExit(t *testing.T) {
	p, m := testCluster(t)

	logfile := filepath.Join(t.TempDir(), "port-forward.log")
	require.NoError(t, os.WriteFile(logfile, []byte("unable to listen on port 8080\n"), 0644))

	m.kubectl.On("PortForward", "svc/gateway", "8080:80", "kind-test").
		Return(4242, logfile, nil)
	m.runner.SetStatus(4242, command.StatusStopped)

	s, err := p.PortForward("svc/gateway", "8080:80")
	require.Nil(t, s)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unable to listen on port 8080")
}

func TestExportKubeconfigDelegates(t *testing.T) {
	p, m := testCluster(t)
	m.kind.On("ExportKubeconfig", "test", "/tmp/kubeconfig.yaml", false).Return(nil)

	require.NoError(t, p.ExportKubeconfig("/tmp/kubeconfig.yaml"))
	m.kind.AssertExpectations(t)
}

func TestLoadImageDelegates(t *testing.T) {
	p, m := testCluster(t)
	m.kind.On("LoadImage", "nginx:latest", "test").Return(nil)

	require.NoError(t, p.LoadImage("nginx:latest"))
	m.kind.AssertExpectations(t)
}
