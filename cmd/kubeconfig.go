package cmd

import (
	"github.com/kindsetup-labs/kindsetup/pkg/config"
	"github.com/spf13/cobra"
)

func newKubeconfigCmd() *cobra.Command {
	var (
		namespace string
		output    string
	)

	kubeconfigCmd := &cobra.Command{
		Use:   "kubeconfig [name]",
		Short: "Export the kubeconfig of a cluster",
		Long:  `Export the kubeconfig of a cluster to a file`,
		Args:  cobra.MaximumNArgs(1),
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

			return p.ExportKubeconfig(output)
		},
	}

	kubeconfigCmd.Flags().StringVar(&namespace, "namespace", "default", "namespace label, used for the default cluster name")
	kubeconfigCmd.Flags().StringVarP(&output, "output", "o", "kubeconfig.yaml", "path to write the kubeconfig to")

	return kubeconfigCmd
}
