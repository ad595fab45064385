package clients

import (
	"time"

	"github.com/kindsetup-labs/kindsetup/pkg/clients/command"
	"github.com/kindsetup-labs/kindsetup/pkg/clients/container"
	"github.com/kindsetup-labs/kindsetup/pkg/clients/k8s"
	"github.com/kindsetup-labs/kindsetup/pkg/clients/kind"
	"github.com/kindsetup-labs/kindsetup/pkg/clients/logger"
)

type Clients struct {
	Docker  container.Docker
	Runtime container.Runtime
	Kind    kind.Kind
	Kubectl k8s.Kubectl
	Command command.Runner
	Logger  logger.Logger
}

// GenerateClients creates the various clients for managing clusters
func GenerateClients(l logger.Logger) (*Clients, error) {
	dc, err := container.NewDocker()
	if err != nil {
		return nil, err
	}

	rt := container.NewDockerRuntime(dc, l)

	cr := command.NewRunner(300*time.Second, l)

	kc := kind.NewKind(cr, l)

	kb := k8s.NewKubectl(cr, l)

	return &Clients{
		Docker:  dc,
		Runtime: rt,
		Kind:    kc,
		Kubectl: kb,
		Command: cr,
		Logger:  l,
	}, nil
}
