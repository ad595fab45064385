package cmd

import (
	"fmt"
	"os"

	"github.com/kindsetup-labs/kindsetup/pkg/clients"
	"github.com/kindsetup-labs/kindsetup/pkg/clients/logger"
	"github.com/kindsetup-labs/kindsetup/pkg/config"
	"github.com/kindsetup-labs/kindsetup/pkg/providers"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "kindsetup",
	Short: "Ephemeral local Kubernetes clusters for development and testing",
	Long: `Kindsetup creates and manages container backed Kubernetes clusters,
negotiating host ports, applying node resource limits and installing
an ingress controller`,
}

var l logger.Logger

var version string // set by build process
var date string    // set by build process
var commit string  // set by build process

func init() {
	l = createLogger()

	rootCmd.AddCommand(newCreateCmd())
	rootCmd.AddCommand(newDeleteCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newIngressCmd())
	rootCmd.AddCommand(newKubeconfigCmd())
	rootCmd.AddCommand(newLoadCmd())
	rootCmd.AddCommand(versionCmd)
}

func createLogger() logger.Logger {
	// set the log level
	if lev := os.Getenv("LOG_LEVEL"); lev != "" {
		return logger.NewLogger(os.Stdout, lev)
	}

	return logger.NewLogger(os.Stdout, logger.LogLevelInfo)
}

// clusterFactory is replaced in tests
var clusterFactory = createCluster

// createCluster builds a lifecycle manager from the shared clients
func createCluster(name string, env config.EnvironmentConfig, modify func(*config.ClusterConfig)) (*providers.KindCluster, error) {
	c, err := clients.GenerateClients(l)
	if err != nil {
		return nil, err
	}

	cc := config.DefaultClusterConfig(name, env)
	if modify != nil {
		modify(&cc)
	}

	if err := cc.Validate(); err != nil {
		return nil, err
	}

	return providers.NewKindCluster(cc, env, c.Runtime, c.Kind, c.Kubectl, c.Command, l), nil
}

// Execute the root command
func Execute(v, c, d string) error {
	version = v
	commit = c
	date = d

	rootCmd.SilenceErrors = true

	err := rootCmd.Execute()

	if err != nil {
		fmt.Println("")
		fmt.Println(err)
	}

	return err
}
