package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "notary-stream-service",
	Short: "Notary session relay: WebSocket event hub, stream capture, recording pipeline",
	Long:  `HTTP + WebSocket API. Commands: api, command (migrate, migrate-create).`,
	RunE:  runAPI, // default: run API (same as "notary-stream-service api")
}

func init() {
	rootCmd.AddCommand(apiCmd)
	rootCmd.AddCommand(commandCmd)
}

// Execute runs the root command and returns the error (for main to log.Fatal).
func Execute() error {
	return rootCmd.Execute()
}
