package providers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kindsetup-labs/kindsetup/pkg/clients/container"
	"github.com/kindsetup-labs/kindsetup/pkg/clients/logger"
	"github.com/kindsetup-labs/kindsetup/pkg/config"
)

// ParseMemory converts a human readable memory quantity such as "2GB",
// "512m" or "64kb" into bytes, a bare number is treated as bytes
func ParseMemory(s string) (int64, error) {
	v := strings.ToUpper(strings.TrimSpace(s))
	if v == "" {
		return 0, fmt.Errorf("memory quantity is empty")
	}

	multiplier := int64(1)
	switch {
	case strings.HasSuffix(v, "GB"), strings.HasSuffix(v, "G"):
		multiplier = 1024 * 1024 * 1024
		v = strings.TrimSuffix(strings.TrimSuffix(v, "GB"), "G")
	case strings.HasSuffix(v, "MB"), strings.HasSuffix(v, "M"):
		multiplier = 1024 * 1024
		v = strings.TrimSuffix(strings.TrimSuffix(v, "MB"), "M")
	case strings.HasSuffix(v, "KB"), strings.HasSuffix(v, "K"):
		multiplier = 1024
		v = strings.TrimSuffix(strings.TrimSuffix(v, "KB"), "K")
	}

	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid memory quantity %q: %w", s, err)
	}

	return int64(f * float64(multiplier)), nil
}

// NodeContainerNames returns the runtime container names for a cluster, the
// control plane first then the workers. The first worker carries no index
// suffix, later workers are numbered from 2, this matches the naming used
// by the provisioning tool.
func NodeContainerNames(clusterName string, workerNodes int) []string {
	names := []string{fmt.Sprintf("%s-control-plane", clusterName)}

	for i := 0; i < workerNodes; i++ {
		if i == 0 {
			names = append(names, fmt.Sprintf("%s-worker", clusterName))
			continue
		}

		names = append(names, fmt.Sprintf("%s-worker%d", clusterName, i+1))
	}

	return names
}

// LimitFailure records a container whose limits could not be applied
type LimitFailure struct {
	Container string
	Err       error
}

// LimitReport summarises a resource limit pass, failures are advisory and
// never abort cluster creation
type LimitReport struct {
	Applied  []string
	Skipped  []string
	Failures []LimitFailure
}

// ResourceLimiter applies declarative cpu and memory limits to the node
// containers of a cluster
type ResourceLimiter struct {
	runtime container.Runtime
	log     logger.Logger
}

// NewResourceLimiter creates a limiter using the given container runtime
func NewResourceLimiter(r container.Runtime, l logger.Logger) *ResourceLimiter {
	return &ResourceLimiter{r, l}
}

// Apply updates each node container with the limits declared for its role.
// Containers that do not exist yet are skipped, failures are collected in
// the report rather than returned as errors.
func (r *ResourceLimiter) Apply(c config.ClusterConfig) LimitReport {
	report := LimitReport{}

	if !c.ApplyResourceLimits {
		r.log.Info("Resource limits disabled, skipping")
		return report
	}

	names := NodeContainerNames(c.Name, c.WorkerNodes)
	for i, name := range names {
		res := c.Worker
		if i == 0 {
			res = c.ControlPlane
		}

		if err := r.applyTo(name, res); err != nil {
			if err == errContainerMissing {
				r.log.Warn("Container not found, skipping resource limits", "container", name)
				report.Skipped = append(report.Skipped, name)
				continue
			}

			r.log.Error("Failed to apply resource limits", "container", name, "error", err)
			report.Failures = append(report.Failures, LimitFailure{Container: name, Err: err})
			continue
		}

		report.Applied = append(report.Applied, name)
	}

	return report
}

var errContainerMissing = fmt.Errorf("container does not exist")

func (r *ResourceLimiter) applyTo(name string, res config.NodeResources) error {
	memory, err := ParseMemory(res.Memory)
	if err != nil {
		return err
	}

	id, err := r.runtime.FindContainer(name, true)
	if err != nil {
		return err
	}

	if id == "" {
		return errContainerMissing
	}

	r.log.Info("Applying resource limits", "container", name, "cpu", res.CPU, "memory", res.Memory)

	// swap is always twice the memory limit
	return r.runtime.UpdateResources(id, container.ResourceUpdate{
		CPUs:            res.CPU,
		MemoryBytes:     memory,
		MemorySwapBytes: memory * 2,
	})
}
