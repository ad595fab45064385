package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Get the current kindsetup version",
	Long:  "Get the current kindsetup version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("Kindsetup version:", version)
		fmt.Println("Commit:           ", commit)
		fmt.Println("Built:            ", date)
	},
}
