package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "gutbuddy",
	Short:        "Gut health tracking backend",
	RunE:         runServe,
	SilenceUsage: true,
}

func main() {
	rootCmd.AddCommand(serveCmd, scoreCmd, tokenCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
