package cmd

import (
	"github.com/kindsetup-labs/kindsetup/pkg/config"
	"github.com/spf13/cobra"
)

func newCreateCmd() *cobra.Command {
	var (
		environment string
		namespace   string
		workers     int
		cpu         string
		memory      string
		httpPort    int
		httpsPort   int
		nodePort    int
		noLimits    bool
		ingress     bool
		kubeconfig  string
	)

	createCmd := &cobra.Command{
		Use:   "create [name]",
		Short: "Create a cluster",
		Long: `Create a cluster, creation is idempotent and a cluster that
already exists is reused. When the requested host ports are occupied free
alternatives are selected automatically.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) > 0 {
				name = args[0]
			}

			env := config.EnvironmentConfig{Environment: environment, Namespace: namespace}

			p, err := clusterFactory(name, env, func(c *config.ClusterConfig) {
				c.WorkerNodes = workers
				c.ApplyResourceLimits = !noLimits
				c.Ports = c.Ports.Merge(config.PortAllocation{HTTP: httpPort, HTTPS: httpsPort, NodePort: nodePort})

				if cpu != "" {
					c.ControlPlane.CPU = cpu
					c.Worker.CPU = cpu
				}

				if memory != "" {
					c.ControlPlane.Memory = memory
					c.Worker.Memory = memory
				}
			})
			if err != nil {
				return err
			}

			if err := p.Create(); err != nil {
				return err
			}

			if ingress {
				if err := p.InstallIngress("nginx"); err != nil {
					return err
				}
			}

			if kubeconfig != "" {
				if err := p.ExportKubeconfig(kubeconfig); err != nil {
					return err
				}
			}

			return nil
		},
	}

	createCmd.Flags().StringVar(&environment, "environment", "dev", "environment label for the cluster")
	createCmd.Flags().StringVar(&namespace, "namespace", "default", "namespace label, used for the default cluster name")
	createCmd.Flags().IntVar(&workers, "workers", 2, "number of worker nodes")
	createCmd.Flags().StringVar(&cpu, "cpu", "", "cpu limit per node, e.g. 1.5")
	createCmd.Flags().StringVar(&memory, "memory", "", "memory limit per node, e.g. 2GB")
	createCmd.Flags().IntVar(&httpPort, "http-port", 0, "host port for http ingress traffic")
	createCmd.Flags().IntVar(&httpsPort, "https-port", 0, "host port for https ingress traffic")
	createCmd.Flags().IntVar(&nodePort, "node-port", 0, "host port mapped to the NodePort range")
	createCmd.Flags().BoolVar(&noLimits, "no-limits", false, "do not apply resource limits to the node containers")
	createCmd.Flags().BoolVar(&ingress, "ingress", false, "install the nginx ingress controller after creation")
	createCmd.Flags().StringVar(&kubeconfig, "kubeconfig", "", "export the kubeconfig to the given path after creation")

	return createCmd
}
