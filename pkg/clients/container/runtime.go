package container

import (
	"context"
	"fmt"
	"strconv"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/kindsetup-labs/kindsetup/pkg/clients/logger"
)

// ResourceUpdate describes new resource limits for a node container
type ResourceUpdate struct {
	// CPUs is a fractional cpu count, e.g. "1.5"
	CPUs string

	// MemoryBytes is the hard memory limit
	MemoryBytes int64

	// MemorySwapBytes is the combined memory and swap limit
	MemorySwapBytes int64
}

// Runtime defines the operations needed from the container runtime to manage
// cluster node containers
//
//go:generate mockery --name Runtime --filename runtime.go
type Runtime interface {
	// IsRunning returns true when the runtime daemon is reachable
	IsRunning() bool

	// FindContainer returns the id of the container with the given name,
	// an empty string is returned when no container matches
	FindContainer(name string, includeStopped bool) (string, error)

	// UpdateResources applies new resource limits to a container
	UpdateResources(id string, update ResourceUpdate) error
}

// DockerRuntime is a concrete Runtime backed by the Docker API
type DockerRuntime struct {
	c   Docker
	l   logger.Logger
	ctx context.Context
}

// NewDockerRuntime creates a Runtime from the given Docker client
func NewDockerRuntime(c Docker, l logger.Logger) *DockerRuntime {
	return &DockerRuntime{c: c, l: l, ctx: context.Background()}
}

func (d *DockerRuntime) IsRunning() bool {
	_, err := d.c.Ping(d.ctx)
	if err != nil {
		d.l.Debug("Docker daemon not reachable", "error", err)
		return false
	}

	return true
}

func (d *DockerRuntime) FindContainer(name string, includeStopped bool) (string, error) {
	args := filters.NewArgs()
	args.Add("name", name)

	opts := container.ListOptions{Filters: args, All: includeStopped}

	cl, err := d.c.ContainerList(d.ctx, opts)
	if err != nil {
		return "", err
	}

	// the name filter matches substrings, check for the exact container
	for _, c := range cl {
		for _, n := range c.Names {
			if n == "/"+name || n == name {
				return c.ID, nil
			}
		}
	}

	return "", nil
}

func (d *DockerRuntime) UpdateResources(id string, update ResourceUpdate) error {
	res := container.Resources{
		Memory:     update.MemoryBytes,
		MemorySwap: update.MemorySwapBytes,
	}

	if update.CPUs != "" {
		cpus, err := strconv.ParseFloat(update.CPUs, 64)
		if err != nil {
			return fmt.Errorf("invalid cpu limit %q: %w", update.CPUs, err)
		}

		res.NanoCPUs = int64(cpus * 1e9)
	}

	d.l.Debug("Updating container resources", "id", id, "cpus", update.CPUs, "memory", update.MemoryBytes)

	_, err := d.c.ContainerUpdate(d.ctx, id, container.UpdateConfig{Resources: res})
	return err
}
