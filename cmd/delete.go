package cmd

import (
	"github.com/kindsetup-labs/kindsetup/pkg/config"
	"github.com/spf13/cobra"
)

func newDeleteCmd() *cobra.Command {
	var namespace string

	deleteCmd := &cobra.Command{
		Use:     "delete [name]",
		Aliases: []string{"destroy"},
		Short:   "Delete a cluster",
		Long:    `Delete a cluster, deleting a cluster that does not exist is not an error`,
		Args:    cobra.MaximumNArgs(1),
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

			return p.Delete()
		},
	}

	deleteCmd.Flags().StringVar(&namespace, "namespace", "default", "namespace label, used for the default cluster name")

	return deleteCmd
}
