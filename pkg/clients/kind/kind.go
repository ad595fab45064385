// Package kind drives the kind command line tool which provisions
// container backed Kubernetes clusters.
package kind

import (
	"strings"
	"time"

	"github.com/kindsetup-labs/kindsetup/pkg/clients/command"
	"github.com/kindsetup-labs/kindsetup/pkg/clients/command/types"
	"github.com/kindsetup-labs/kindsetup/pkg/clients/logger"
)

// creating a multi node cluster can take several minutes
var createTimeout = 600 * time.Second

// Kind defines an interface for the kind provisioning tool
//
//go:generate mockery --name Kind --filename kind.go
type Kind interface {
	// IsInstalled returns true when the kind binary is available
	IsInstalled() bool

	// GetClusters returns the names of the existing clusters
	GetClusters() ([]string, error)

	// CreateCluster creates a cluster from the given config file
	CreateCluster(name, configFile string) error

	// DeleteCluster removes the cluster with the given name
	DeleteCluster(name string) error

	// ExportKubeconfig writes the kubeconfig for the cluster to the given
	// path, when internal is set container network addresses are used
	ExportKubeconfig(name, path string, internal bool) error

	// LoadImage copies a local image into the cluster nodes
	LoadImage(image, name string) error

	// GetNodes returns the node container names for the cluster
	GetNodes(name string) ([]string, error)
}

// KindImpl executes kind commands with the given runner
type KindImpl struct {
	runner command.Runner
	log    logger.Logger
}

// NewKind creates a new kind client
func NewKind(r command.Runner, l logger.Logger) Kind {
	return &KindImpl{r, l}
}

func (k *KindImpl) execute(args []string, timeout time.Duration, check bool) (types.CommandResult, error) {
	return k.runner.Execute(types.RunOptions{
		Command: "kind",
		Args:    args,
		Timeout: timeout,
		Check:   check,
	})
}

func (k *KindImpl) IsInstalled() bool {
	r, err := k.execute([]string{"version"}, 30*time.Second, false)
	if err != nil {
		return false
	}

	return r.Success()
}

func (k *KindImpl) GetClusters() ([]string, error) {
	r, err := k.execute([]string{"get", "clusters"}, 30*time.Second, true)
	if err != nil {
		return nil, err
	}

	out := strings.TrimSpace(r.Stdout)
	if out == "" || out == "No kind clusters found." {
		return []string{}, nil
	}

	return strings.Split(out, "\n"), nil
}

func (k *KindImpl) CreateCluster(name, configFile string) error {
	k.log.Info("Creating kind cluster", "name", name, "config", configFile)

	args := []string{"create", "cluster", "--name", name}
	if configFile != "" {
		args = append(args, "--config", configFile)
	}

	_, err := k.execute(args, createTimeout, true)
	return err
}

func (k *KindImpl) DeleteCluster(name string) error {
	k.log.Info("Deleting kind cluster", "name", name)

	_, err := k.execute([]string{"delete", "cluster", "--name", name}, createTimeout, true)
	return err
}

func (k *KindImpl) ExportKubeconfig(name, path string, internal bool) error {
	args := []string{"export", "kubeconfig", "--name", name}

	if path != "" {
		args = append(args, "--kubeconfig", path)
	}

	if internal {
		args = append(args, "--internal")
	}

	_, err := k.execute(args, 30*time.Second, true)
	return err
}

func (k *KindImpl) LoadImage(image, name string) error {
	k.log.Info("Loading image into cluster", "image", image, "name", name)

	_, err := k.execute([]string{"load", "docker-image", image, "--name", name}, createTimeout, true)
	return err
}

func (k *KindImpl) GetNodes(name string) ([]string, error) {
	r, err := k.execute([]string{"get", "nodes", "--name", name}, 30*time.Second, true)
	if err != nil {
		return nil, err
	}

	out := strings.TrimSpace(r.Stdout)
	if out == "" {
		return []string{}, nil
	}

	return strings.Split(out, "\n"), nil
}
