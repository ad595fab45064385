package cmd

import (
	"github.com/kindsetup-labs/kindsetup/pkg/config"
	"github.com/spf13/cobra"
)

func newIngressCmd() *cobra.Command {
	var (
		namespace   string
		ingressType string
	)

	ingressCmd := &cobra.Command{
		Use:   "ingress [name]",
		Short: "Install an ingress controller on a cluster",
		Long: `Install an ingress controller on a cluster and wait for its
pods to become ready, only the nginx controller is supported`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) > 0 {
				name = args[0]
			}

			env := config.EnvironmentConfig{Namespace: namespace}

			p, err := clusterFactory(name, env, nil)
			if err != nil {
				return err
			}

			return p.InstallIngress(ingressType)
		},
	}

	ingressCmd.Flags().StringVar(&namespace, "namespace", "default", "namespace label, used for the default cluster name")
	ingressCmd.Flags().StringVar(&ingressType, "type", "nginx", "ingress controller type")

	return ingressCmd
}
