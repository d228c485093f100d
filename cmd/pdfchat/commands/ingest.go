package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewIngestCmd creates the ingest command.
func NewIngestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <file.pdf>",
		Short: "Build the knowledge base from a PDF",
		Long: `Build the knowledge base from a PDF, replacing any previous one.

Examples:
  pdfchat ingest "document/Attention is all you need.pdf"`,
		Args: cobra.ExactArgs(1),
		RunE: runIngest,
	}
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	chunks, err := a.kb.Ingest(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d chunks from %s into %s\n", chunks, args[0], cfg.Store.Dir)
	return nil
}
