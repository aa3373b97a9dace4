package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  `Display the current version of the propdesk CLI.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("propdesk version %s\n", version)
		fmt.Println("A funded-account evaluation engine for simulated prop trading")
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
