// Package commands implements the pdfchat CLI.
package commands

import (
	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
)

// NewRootCmd creates the root command with all subcommands attached.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pdfchat",
		Short: "Chat with a PDF",
		Long: `pdfchat builds a vector index over a PDF and answers questions about it
with a hosted chat model, keeping a short conversation history per session.

Configuration is read from pdfchat.yaml (or --config), a .env file and
PDFCHAT_* environment variables. An API key is required: set
PDFCHAT_API_KEY or GOOGLE_API_KEY.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a YAML config file")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log at debug level")

	cmd.AddCommand(
		NewServeCmd(),
		NewIngestCmd(),
		NewAskCmd(),
		NewVersionCmd(),
	)
	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
