package cmd

import (
	"fmt"
	"os"

	"github.com/hokaccha/go-prettyjson"
	"github.com/kindsetup-labs/kindsetup/pkg/config"
	"github.com/kindsetup-labs/kindsetup/pkg/providers"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

const (
	Red    = "\033[1;31m%s\033[0m"
	Green  = "\033[1;32m%s\033[0m"
	Yellow = "\033[1;33m%s\033[0m"
)

type statusReport struct {
	Cluster string                 `json:"cluster"`
	Health  providers.HealthReport `json:"health"`
	Info    providers.ClusterInfo  `json:"info"`
}

func newStatusCmd() *cobra.Command {
	var (
		namespace string
		jsonFlag  bool
	)

	statusCmd := &cobra.Command{
		Use:   "status [name]",
		Short: "Show the health and nodes of a cluster",
		Long:  `Show the health and nodes of a cluster`,
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

			report := statusReport{
				Cluster: p.Name(),
				Health:  p.CheckHealth(),
				Info:    p.Info(),
			}

			if jsonFlag {
				s, err := prettyjson.Marshal(report)
				if err != nil {
					return err
				}

				fmt.Println(string(s))
				return nil
			}

			printStatus(report)
			return nil
		},
	}

	statusCmd.Flags().StringVar(&namespace, "namespace", "default", "namespace label, used for the default cluster name")
	statusCmd.Flags().BoolVar(&jsonFlag, "json", false, "output the status as json")

	return statusCmd
}

func printStatus(r statusReport) {
	fmt.Println()
	fmt.Printf("Cluster: %s\n", r.Cluster)
	fmt.Printf("Status:  %s\n", colorStatus(r.Health.Status))

	for _, i := range r.Health.Issues {
		fmt.Printf("  ! %s\n", i)
	}

	if len(r.Info.Nodes) == 0 {
		return
	}

	fmt.Println()
	fmt.Printf("%-30s %-15s %-10s %6s %8s %10s\n", "NODE", "ROLE", "STATUS", "CPU%", "MEMORY%", "VERSION")

	for _, n := range r.Info.Nodes {
		fmt.Printf("%-30s %-15s %-10s %6d %8d %10s\n", n.Name, n.Role, n.Status, n.CPU, n.Memory, n.Version)
	}
}

func colorStatus(status string) string {
	if !isatty.IsTerminal(os.Stdout.Fd()) {
		return status
	}

	switch status {
	case providers.HealthStatusHealthy:
		return fmt.Sprintf(Green, status)
	case providers.HealthStatusDegraded:
		return fmt.Sprintf(Yellow, status)
	default:
		return fmt.Sprintf(Red, status)
	}
}
