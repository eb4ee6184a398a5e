package main

import (
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

var noColor bool

var rootCmd = &cobra.Command{
	Use:   "healthbot",
	Short: "A small wellbeing companion: daily plans, check-ins and a chat endpoint",
	Long: `healthbot keeps a self-care profile with a three-task daily plan, records
daily check-ins and adapts the plan to them, and answers simple chat
messages over HTTP, MCP or the command line.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(intakeCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(checkinCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(researchCmd)
	rootCmd.AddCommand(interactionsCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		printError("%v", err)
		os.Exit(1)
	}
}
