package providers

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kindsetup-labs/kindsetup/pkg/clients/command"
	"github.com/kindsetup-labs/kindsetup/pkg/clients/container"
	"github.com/kindsetup-labs/kindsetup/pkg/clients/k8s"
	kindclient "github.com/kindsetup-labs/kindsetup/pkg/clients/kind"
	"github.com/kindsetup-labs/kindsetup/pkg/clients/logger"
	"github.com/kindsetup-labs/kindsetup/pkg/config"
	"github.com/kindsetup-labs/kindsetup/pkg/utils/retry"
	"golang.org/x/xerrors"
)

const (
	readyPollInterval   = 5 * time.Second
	defaultReadyTimeout = 120 * time.Second
	forwardGracePeriod  = 1 * time.Second

	ingressNginxManifest = "https://raw.githubusercontent.com/kubernetes/ingress-nginx/main/deploy/static/provider/kind/deploy.yaml"
)

// Cluster defines the lifecycle operations of a container backed cluster,
// this is the surface consumed by the api and cli layers
type Cluster interface {
	Create() error
	Delete() error
	WaitForReady(timeout time.Duration) bool
	CheckHealth() HealthReport
	Info() ClusterInfo
	InstallIngress(ingressType string) error
	PortForward(resource, portMapping string) (*ForwardSession, error)
	ExportKubeconfig(path string) error
	LoadImage(image string) error
	Owned() bool
}

// KindCluster manages the lifecycle of a single kind cluster. It is not
// safe for concurrent use against the same cluster name, callers must
// serialise operations per name.
type KindCluster struct {
	config  config.ClusterConfig
	env     config.EnvironmentConfig
	runtime container.Runtime
	kind    kindclient.Kind
	kubectl k8s.Kubectl
	runner  command.Runner
	log     logger.Logger

	negotiator *PortNegotiator
	limiter    *ResourceLimiter

	createRetry    retry.Policy
	negotiateRetry retry.Policy
	deleteRetry    retry.Policy
	ingressRetry   retry.Policy

	readyTimeout time.Duration

	// created tracks whether this instance provisioned the cluster, a
	// cluster discovered to already exist is never owned
	created bool

	// replaced in tests
	sleep func(time.Duration)
	now   func() time.Time
}

// NewKindCluster creates a lifecycle manager for the given configuration
func NewKindCluster(
	cc config.ClusterConfig,
	env config.EnvironmentConfig,
	rt container.Runtime,
	kc kindclient.Kind,
	kb k8s.Kubectl,
	cr command.Runner,
	l logger.Logger) *KindCluster {

	return &KindCluster{
		config:     cc,
		env:        env,
		runtime:    rt,
		kind:       kc,
		kubectl:    kb,
		runner:     cr,
		log:        l,
		negotiator: NewPortNegotiator(cr, l),
		limiter:    NewResourceLimiter(rt, l),

		createRetry:    retry.Policy{MaxAttempts: 3, InitialDelay: 2 * time.Second, Retryable: createRetryable},
		negotiateRetry: retry.Policy{MaxAttempts: 3, InitialDelay: 2 * time.Second, Retryable: createRetryable},
		deleteRetry:    retry.Policy{MaxAttempts: 2, InitialDelay: 1 * time.Second, Retryable: operationRetryable},
		ingressRetry:   retry.Policy{MaxAttempts: 2, InitialDelay: 5 * time.Second, Retryable: operationRetryable},

		readyTimeout: defaultReadyTimeout,
		sleep:        time.Sleep,
		now:          time.Now,
	}
}

// Name returns the cluster name
func (p *KindCluster) Name() string {
	return p.config.Name
}

// Context returns the kubectl context for the cluster
func (p *KindCluster) Context() string {
	return fmt.Sprintf("kind-%s", p.config.Name)
}

// Ports returns the host ports currently assigned to the cluster, after a
// successful Create these are the negotiated values
func (p *KindCluster) Ports() config.PortAllocation {
	return p.config.Ports
}

// Owned returns true when this instance created the cluster and is
// responsible for deleting it
func (p *KindCluster) Owned() bool {
	return p.created
}

// Create provisions the cluster, creation is idempotent and transient
// failures are retried
func (p *KindCluster) Create() error {
	return p.createRetry.Do(p.createOnce)
}

func (p *KindCluster) createOnce() error {
	p.log.Info("Creating cluster", "ref", p.config.Name, "environment", p.env.Environment, "namespace", p.env.Namespace)

	if !p.runtime.IsRunning() {
		return dockerNotRunningError()
	}

	if !p.kind.IsInstalled() {
		return toolNotInstalledError("kind")
	}

	clusters, err := p.kind.GetClusters()
	if err != nil {
		return operationErrorFrom("unable to list existing clusters", err)
	}

	for _, c := range clusters {
		if c == p.config.Name {
			p.log.Info("Cluster already exists, skipping creation", "ref", p.config.Name)
			return nil
		}
	}

	ports, err := retry.DoValue(p.negotiateRetry, func() (config.PortAllocation, error) {
		return p.negotiator.Negotiate(p.config.Ports)
	})
	if err != nil {
		return err
	}
	p.config.Ports = ports

	path, cleanup, err := WriteTopologyFile(p.config)
	if err != nil {
		return xerrors.Errorf("unable to write cluster config: %w", err)
	}
	defer cleanup()

	if err := p.kind.CreateCluster(p.config.Name, path); err != nil {
		// remove any partially created cluster so the next attempt
		// starts clean, a failure here is secondary
		if derr := p.kind.DeleteCluster(p.config.Name); derr != nil {
			p.log.Debug("Cleanup after failed create failed", "ref", p.config.Name, "error", derr)
		}

		return operationErrorFrom("failed to create cluster", err)
	}

	report := p.limiter.Apply(p.config)
	for _, f := range report.Failures {
		p.log.Error("Resource limit not applied", "container", f.Container, "error", f.Err)
	}

	if !p.WaitForReady(p.readyTimeout) {
		return ErrClusterNotReady
	}

	p.created = true
	p.log.Info("Cluster created", "ref", p.config.Name,
		"http", p.config.Ports.HTTP, "https", p.config.Ports.HTTPS, "nodeport", p.config.Ports.NodePort)

	return nil
}

// Delete removes the cluster, deleting an absent cluster is a no-op
func (p *KindCluster) Delete() error {
	return p.deleteRetry.Do(p.deleteOnce)
}

func (p *KindCluster) deleteOnce() error {
	clusters, err := p.kind.GetClusters()
	if err != nil {
		return operationErrorFrom("unable to list existing clusters", err)
	}

	exists := false
	for _, c := range clusters {
		if c == p.config.Name {
			exists = true
			break
		}
	}

	if !exists {
		p.log.Warn("Cluster does not exist, nothing to delete", "ref", p.config.Name)
		p.created = false
		return nil
	}

	if err := p.kind.DeleteCluster(p.config.Name); err != nil {
		return operationErrorFrom("failed to delete cluster", err)
	}

	p.created = false
	p.log.Info("Cluster deleted", "ref", p.config.Name)

	return nil
}

// WaitForReady polls the Ready condition of every node until all report
// true or the timeout elapses. Transient query failures are treated as not
// yet ready.
func (p *KindCluster) WaitForReady(timeout time.Duration) bool {
	p.log.Info("Waiting for cluster to be ready", "ref", p.config.Name, "timeout", timeout)

	start := p.now()
	for p.now().Sub(start) < timeout {
		statuses, err := p.kubectl.NodeStatuses(p.Context())

		switch {
		case err != nil:
			p.log.Warn("Error checking node readiness", "ref", p.config.Name, "error", err)
		case len(statuses) > 0 && allReady(statuses):
			p.log.Info("All nodes ready", "ref", p.config.Name)
			return true
		default:
			p.log.Debug("Nodes not yet ready", "ref", p.config.Name, "statuses", statuses)
		}

		p.sleep(readyPollInterval)
	}

	p.log.Warn("Timeout waiting for cluster to be ready", "ref", p.config.Name)
	return false
}

func allReady(statuses []k8s.NodeStatus) bool {
	for _, s := range statuses {
		if !s.IsReady() {
			return false
		}
	}

	return true
}

// CheckHealth queries every node's Ready condition and aggregates the
// result, a failing query yields an unavailable status rather than an error
func (p *KindCluster) CheckHealth() HealthReport {
	statuses, err := p.kubectl.NodeStatuses(p.Context())
	if err != nil {
		return HealthReport{
			Status:  HealthStatusUnavailable,
			Details: HealthDetails{Error: err.Error()},
			Issues:  []string{"Cannot connect to cluster"},
		}
	}

	if len(statuses) == 0 {
		return HealthReport{
			Status:  HealthStatusUnavailable,
			Details: HealthDetails{Error: "No nodes found"},
			Issues:  []string{"No nodes found in cluster"},
		}
	}

	nodes := map[string]NodeHealth{}
	issues := []string{}

	for _, s := range statuses {
		nodes[s.Name] = NodeHealth{Ready: s.IsReady()}
		if !s.IsReady() {
			issues = append(issues, fmt.Sprintf("Node %s not ready", s.Name))
		}
	}

	status := HealthStatusHealthy
	if len(issues) > 0 {
		status = HealthStatusDegraded
	}

	return HealthReport{Status: status, Details: HealthDetails{Nodes: nodes}, Issues: issues}
}

// Info returns the cluster's nodes enriched with a utilisation sample,
// nodes missing from the sample are omitted and a failed metrics query
// degrades to an empty inventory rather than an error
func (p *KindCluster) Info() ClusterInfo {
	details, err := p.kubectl.NodeDetails(p.Context())
	if err != nil {
		p.log.Error("Failed to get cluster info", "ref", p.config.Name, "error", err)
		return ClusterInfo{Nodes: []NodeInfo{}, Error: err.Error()}
	}

	byName := map[string]k8s.NodeDetail{}
	for _, d := range details {
		byName[d.Name] = d
	}

	usage, err := p.kubectl.TopNodes(p.Context())
	if err != nil {
		p.log.Warn("Node metrics unavailable", "ref", p.config.Name, "error", err)
		usage = nil
	}

	nodes := []NodeInfo{}
	for _, u := range usage {
		n := NodeInfo{
			Name:    u.Name,
			Role:    roleFromName(u.Name),
			Status:  "Ready",
			CPU:     u.CPUPercent,
			Memory:  u.MemoryPercent,
			Version: "unknown",
		}

		if d, ok := byName[u.Name]; ok {
			n.Status = d.Status
			n.Version = d.Version
		}

		nodes = append(nodes, n)
	}

	return ClusterInfo{Nodes: nodes}
}

func roleFromName(name string) string {
	if strings.Contains(name, "control-plane") {
		return "control-plane"
	}

	return "worker"
}

// InstallIngress installs an ingress controller, only the nginx controller
// is supported
func (p *KindCluster) InstallIngress(ingressType string) error {
	if !strings.EqualFold(ingressType, "nginx") {
		return validationError("unsupported ingress type: %s, supported types: nginx", ingressType)
	}

	return p.ingressRetry.Do(p.installNginxIngress)
}

func (p *KindCluster) installNginxIngress() error {
	p.log.Info("Installing nginx ingress controller", "ref", p.config.Name)

	if err := p.kubectl.Apply([]string{ingressNginxManifest}, p.Context(), ""); err != nil {
		return operationErrorFrom("failed to apply ingress manifest", err)
	}

	p.log.Info("Waiting for ingress controller to be ready", "ref", p.config.Name)

	err := p.kubectl.WaitForCondition(
		"pod", "Ready", "app.kubernetes.io/component=controller", "90s", p.Context(), "ingress-nginx")
	if err != nil {
		return operationErrorFrom("ingress controller pods did not become ready", err)
	}

	p.log.Info("Ingress controller ready", "ref", p.config.Name)
	return nil
}

// ForwardSession is a running port forward, Stop terminates the process
type ForwardSession struct {
	Pid     int
	LogFile string

	runner command.Runner
}

func (s *ForwardSession) Stop() error {
	return s.runner.Kill(s.Pid)
}

// PortForward starts forwarding the given ports to a pod or service, when
// the forwarding process exits during the grace period its output is
// surfaced in the returned error
func (p *KindCluster) PortForward(resource, portMapping string) (*ForwardSession, error) {
	pid, logfile, err := p.kubectl.PortForward(resource, portMapping, p.Context())
	if err != nil {
		return nil, operationErrorFrom("failed to start port forwarding", err)
	}

	p.sleep(forwardGracePeriod)

	if s, serr := p.runner.Status(pid); serr == nil && s == command.StatusStopped {
		out, _ := os.ReadFile(logfile)
		return nil, operationError("failed to establish port forwarding: %s", strings.TrimSpace(string(out)))
	}

	return &ForwardSession{Pid: pid, LogFile: logfile, runner: p.runner}, nil
}

// ExportKubeconfig writes the cluster's kubeconfig to the given path
func (p *KindCluster) ExportKubeconfig(path string) error {
	if err := p.kind.ExportKubeconfig(p.config.Name, path, false); err != nil {
		return operationErrorFrom("failed to export kubeconfig", err)
	}

	return nil
}

// LoadImage copies a local container image onto the cluster nodes
func (p *KindCluster) LoadImage(image string) error {
	if err := p.kind.LoadImage(image, p.config.Name); err != nil {
		return operationErrorFrom("failed to load image", err)
	}

	return nil
}
