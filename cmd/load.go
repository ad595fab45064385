package cmd

import (
	"github.com/kindsetup-labs/kindsetup/pkg/config"
	"github.com/spf13/cobra"
)

func newLoadCmd() *cobra.Command {
	var (
		namespace string
		cluster   string
	)

	loadCmd := &cobra.Command{
		Use:   "load [image]",
		Short: "Load a local container image onto a cluster",
		Long: `Load a local container image onto the nodes of a cluster so pods
can use it without a registry`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env := config.EnvironmentConfig{Namespace: namespace}

			p, err := clusterFactory(cluster, env, nil)
			if err != nil {
				return err
			}

			return p.LoadImage(args[0])
		},
	}

	loadCmd.Flags().StringVar(&namespace, "namespace", "default", "namespace label, used for the default cluster name")
	loadCmd.Flags().StringVar(&cluster, "cluster", "", "cluster name, defaults to the namespace derived name")

	return loadCmd
}
