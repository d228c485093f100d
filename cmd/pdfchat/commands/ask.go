package commands

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

var (
	askInteractive bool
	askShowSources bool
)

// NewAskCmd creates the ask command.
func NewAskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a question about the ingested PDF",
		Long: `Ask a question about the ingested PDF.

With --interactive, questions are read line by line from stdin and earlier
answers are kept as conversation context.

Examples:
  pdfchat ask "What is attention?"
  pdfchat ask --interactive`,
		Args: cobra.MaximumNArgs(1),
		RunE: runAsk,
	}

	cmd.Flags().BoolVarP(&askInteractive, "interactive", "i", false, "Read questions from stdin")
	cmd.Flags().BoolVar(&askShowSources, "sources", false, "Print the retrieved passages")

	return cmd
}

func runAsk(cmd *cobra.Command, args []string) error {
	if !askInteractive && len(args) == 0 {
		return fmt.Errorf("no question provided")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	a.openExisting(cmd.Context())
	sessionID := a.chat.Sessions().NewID()
	out := cmd.OutOrStdout()

	ask := func(question string) error {
		answer, err := a.chat.Ask(cmd.Context(), question, sessionID)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, answer.Text)
		if askShowSources {
			for _, s := range answer.Sources {
				fmt.Fprintf(out, "  [%s p.%d %.3f] %s\n", s.Chunk.Source, s.Chunk.Page, s.Score, firstLine(s.Chunk.Content, 80))
			}
		}
		return nil
	}

	if !askInteractive {
		return ask(args[0])
	}
	return askLoop(cmd.InOrStdin(), out, ask)
}

// askLoop answers each non-empty line of in. Errors are printed and the
// loop continues.
func askLoop(in io.Reader, out io.Writer, ask func(string) error) error {
	scanner := bufio.NewScanner(in)
	fmt.Fprint(out, "> ")
	for scanner.Scan() {
		question := strings.TrimSpace(scanner.Text())
		switch question {
		case "":
		case "exit", "quit":
			return nil
		default:
			if err := ask(question); err != nil {
				fmt.Fprintf(out, "Error: %v\n", err)
			}
		}
		fmt.Fprint(out, "> ")
	}
	return scanner.Err()
}

func firstLine(s string, max int) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	r := []rune(s)
	if len(r) > max {
		return string(r[:max]) + "…"
	}
	return s
}
