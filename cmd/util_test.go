package cmd

import (
	"testing"

	"github.com/kindsetup-labs/kindsetup/pkg/clients/command"
	"github.com/kindsetup-labs/kindsetup/pkg/clients/container/mocks"
	"github.com/kindsetup-labs/kindsetup/pkg/clients/k8s"
	kindclient "github.com/kindsetup-labs/kindsetup/pkg/clients/kind"
	"github.com/kindsetup-labs/kindsetup/pkg/clients/logger"
	"github.com/kindsetup-labs/kindsetup/pkg/config"
	"github.com/kindsetup-labs/kindsetup/pkg/providers"
)

type cmdMocks struct {
	runtime *mocks.Runtime
	kind    *kindclient.MockKind
	kubectl *k8s.MockKubectl
	runner  *command.MockRunner

	// the resolved configuration handed to the lifecycle manager
	config config.ClusterConfig
	env    config.EnvironmentConfig
}

// setupCommand replaces the cluster factory with one backed by mocks and
// records the configuration the command resolved from its flags
func setupCommand(t *testing.T) *cmdMocks {
	m := &cmdMocks{
		runtime: &mocks.Runtime{},
		kind:    &kindclient.MockKind{},
		kubectl: &k8s.MockKubectl{},
		runner:  command.NewMockRunner(),
	}

	clusterFactory = func(name string, env config.EnvironmentConfig, modify func(*config.ClusterConfig)) (*providers.KindCluster, error) {
		cc := config.DefaultClusterConfig(name, env)
		if modify != nil {
			modify(&cc)
		}

		if err := cc.Validate(); err != nil {
			return nil, err
		}

		m.config = cc
		m.env = env

		return providers.NewKindCluster(
			cc, env, m.runtime, m.kind, m.kubectl, m.runner, logger.NewTestLogger(t)), nil
	}

	t.Cleanup(func() {
		clusterFactory = createCluster
	})

	return m
}
