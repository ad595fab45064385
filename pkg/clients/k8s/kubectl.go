// Package k8s queries and configures a cluster through the kubectl command
// line tool.
package k8s

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kindsetup-labs/kindsetup/pkg/clients/command"
	"github.com/kindsetup-labs/kindsetup/pkg/clients/command/types"
	"github.com/kindsetup-labs/kindsetup/pkg/clients/logger"
)

// jsonpath emitting one "<name> <ready>" pair per line
const nodeStatusJSONPath = `-o=jsonpath={range .items[*]}{.metadata.name} {.status.conditions[?(@.type=="Ready")].status}{"\n"}{end}`

// NodeStatus is the Ready condition of a single node
type NodeStatus struct {
	Name  string
	Ready string
}

// IsReady returns true when the node reports the Ready condition as "True"
func (n NodeStatus) IsReady() bool {
	return n.Ready == "True"
}

// NodeUsage is a point in time resource utilisation sample for a node
type NodeUsage struct {
	Name          string
	CPUPercent    int
	MemoryPercent int
}

// NodeDetail holds the wide output columns for a node
type NodeDetail struct {
	Name    string
	Status  string
	Version string
}

// Kubectl defines an interface for querying and configuring clusters
//
//go:generate mockery --name Kubectl --filename kubectl.go
type Kubectl interface {
	// NodeStatuses returns the name and Ready condition of every node
	NodeStatuses(context string) ([]NodeStatus, error)

	// TopNodes returns a resource utilisation sample for every node the
	// metrics pipeline knows about
	TopNodes(context string) ([]NodeUsage, error)

	// NodeDetails returns status and version information for every node
	NodeDetails(context string) ([]NodeDetail, error)

	// Apply applies the given manifest files or urls
	Apply(files []string, context, namespace string) error

	// WaitForCondition blocks until resources matching the selector reach
	// the condition or the timeout elapses
	WaitForCondition(resourceType, condition, selector, timeout, context, namespace string) error

	// PortForward starts a background port forward to the resource,
	// returning the process pid and the file its output is written to
	PortForward(resource, portMapping, context string) (int, string, error)
}

// KubectlImpl executes kubectl commands with the given runner
type KubectlImpl struct {
	runner command.Runner
	log    logger.Logger
}

// NewKubectl creates a new kubectl client
func NewKubectl(r command.Runner, l logger.Logger) Kubectl {
	return &KubectlImpl{r, l}
}

func (k *KubectlImpl) execute(args []string, context, namespace string, timeout time.Duration, check bool) (types.CommandResult, error) {
	cmd := []string{}

	if context != "" {
		cmd = append(cmd, "--context", context)
	}

	if namespace != "" {
		cmd = append(cmd, "--namespace", namespace)
	}

	cmd = append(cmd, args...)

	return k.runner.Execute(types.RunOptions{
		Command: "kubectl",
		Args:    cmd,
		Timeout: timeout,
		Check:   check,
	})
}

func (k *KubectlImpl) NodeStatuses(context string) ([]NodeStatus, error) {
	r, err := k.execute([]string{"get", "nodes", nodeStatusJSONPath}, context, "", 30*time.Second, true)
	if err != nil {
		return nil, err
	}

	statuses := []NodeStatus{}
	for _, line := range strings.Split(strings.TrimSpace(r.Stdout), "\n") {
		parts := strings.Fields(line)
		if len(parts) < 1 || parts[0] == "" {
			continue
		}

		s := NodeStatus{Name: parts[0]}
		if len(parts) > 1 {
			s.Ready = parts[1]
		}

		statuses = append(statuses, s)
	}

	return statuses, nil
}

func (k *KubectlImpl) TopNodes(context string) ([]NodeUsage, error) {
	r, err := k.execute([]string{"top", "nodes"}, context, "", 30*time.Second, true)
	if err != nil {
		return nil, err
	}

	lines := strings.Split(strings.TrimSpace(r.Stdout), "\n")
	if len(lines) < 2 {
		return []NodeUsage{}, nil
	}

	usage := []NodeUsage{}
	for _, line := range lines[1:] {
		parts := strings.Fields(line)
		if len(parts) < 3 {
			continue
		}

		u := NodeUsage{Name: parts[0], CPUPercent: -1, MemoryPercent: -1}

		// cpu and memory percentages are the columns ending in %
		for _, p := range parts[1:] {
			if !strings.HasSuffix(p, "%") {
				continue
			}

			v, err := strconv.Atoi(strings.TrimSuffix(p, "%"))
			if err != nil {
				continue
			}

			if u.CPUPercent == -1 {
				u.CPUPercent = v
			} else if u.MemoryPercent == -1 {
				u.MemoryPercent = v
			}
		}

		if u.CPUPercent == -1 || u.MemoryPercent == -1 {
			continue
		}

		usage = append(usage, u)
	}

	return usage, nil
}

func (k *KubectlImpl) NodeDetails(context string) ([]NodeDetail, error) {
	r, err := k.execute([]string{"get", "nodes", "-o", "wide"}, context, "", 30*time.Second, true)
	if err != nil {
		return nil, err
	}

	lines := strings.Split(strings.TrimSpace(r.Stdout), "\n")
	if len(lines) < 2 {
		return []NodeDetail{}, nil
	}

	details := []NodeDetail{}
	for _, line := range lines[1:] {
		parts := strings.Fields(line)
		if len(parts) < 5 {
			continue
		}

		details = append(details, NodeDetail{
			Name:    parts[0],
			Status:  parts[1],
			Version: parts[4],
		})
	}

	return details, nil
}

func (k *KubectlImpl) Apply(files []string, context, namespace string) error {
	args := []string{"apply"}
	for _, f := range files {
		args = append(args, "-f", f)
	}

	_, err := k.execute(args, context, namespace, 120*time.Second, true)
	return err
}

func (k *KubectlImpl) WaitForCondition(resourceType, condition, selector, timeout, context, namespace string) error {
	args := []string{
		"wait", resourceType,
		fmt.Sprintf("--for=condition=%s", condition),
		fmt.Sprintf("--selector=%s", selector),
		fmt.Sprintf("--timeout=%s", timeout),
	}

	// the kubectl timeout governs the wait, give the process some headroom
	d, err := time.ParseDuration(timeout)
	if err != nil {
		d = 120 * time.Second
	}

	_, err = k.execute(args, context, namespace, d+30*time.Second, true)
	return err
}

func (k *KubectlImpl) PortForward(resource, portMapping, context string) (int, string, error) {
	lf, err := os.CreateTemp("", "port-forward-*.log")
	if err != nil {
		return 0, "", err
	}
	lf.Close()

	args := []string{"port-forward", resource, portMapping}
	if context != "" {
		args = append(args, fmt.Sprintf("--context=%s", context))
	}

	k.log.Info("Starting port forward", "resource", resource, "ports", portMapping)

	pid, err := k.runner.ExecuteBackground(types.RunOptions{
		Command:     "kubectl",
		Args:        args,
		LogFilePath: lf.Name(),
	})
	if err != nil {
		return 0, "", err
	}

	return pid, lf.Name(), nil
}
