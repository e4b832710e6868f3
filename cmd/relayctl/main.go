package main

import (
	"os"

	"github.com/spf13/cobra"
)

var patternsFile string

var rootCmd = &cobra.Command{
	Use:          "relayctl",
	Short:        "Operator tool for the bot relay",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&patternsFile, "patterns", os.Getenv("RELAY_PATTERNS_FILE"), "pattern catalogue (default: built-in, or $RELAY_PATTERNS_FILE)")

	rootCmd.AddCommand(classifyCmd())
	rootCmd.AddCommand(patternsCmd())
	rootCmd.AddCommand(checkCmd())
	rootCmd.AddCommand(botCmd())
	rootCmd.AddCommand(tokenCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
