package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "propdesk",
	Short: "A funded-account evaluation engine for simulated prop trading",
	Long: `Propdesk runs simulated prop-firm trading challenges.

It provides:
  - An independent-order position ledger with realized and floating P/L
  - Margin and buying-power checks with lot normalization and 1:100 leverage
  - The challenge rule engine: daily loss, total loss, blown account,
    and profit target
  - Background rule verification after every trade plus a periodic sweep
    over all active challenges
  - SQLite persistence and a simulated price oracle`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}
