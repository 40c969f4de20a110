package main

import (
	"github.com/spf13/cobra"

	"github.com/jackzampolin/folio/internal/server/endpoints"
)

var serverURL string

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Commands that call the running server",
	Long: `API commands call the running Folio server via HTTP.

These commands require a running server (folio serve).
Use --server to specify a custom server URL.

Examples:
  folio api health                        # Check server health
  folio api documents get <job-id>        # Get a job's document
  folio api documents get <job-id> --wait # Wait for the job first`,
}

var documentsCmd = &cobra.Command{
	Use:   "documents",
	Short: "Document commands",
}

// getServerURL returns the server URL at runtime (after flag parsing).
func getServerURL() string {
	return serverURL
}

func init() {
	// Add --server flag to api command (persistent so all subcommands inherit it)
	apiCmd.PersistentFlags().StringVar(
		&serverURL, "server", "http://localhost:8080", "Server URL",
	)

	// Health endpoint at top level of api
	apiCmd.AddCommand((&endpoints.HealthEndpoint{}).Command(getServerURL))

	// Documents as subcommand group
	for _, ep := range endpoints.DocumentCommands() {
		documentsCmd.AddCommand(ep.Command(getServerURL))
	}

	apiCmd.AddCommand(documentsCmd)
	rootCmd.AddCommand(apiCmd)
}
