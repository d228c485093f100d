// Command pdfchat answers questions about an uploaded PDF.
package main

import (
	"fmt"
	"os"

	"github.com/0xcro3dile/pdfchat-go/cmd/pdfchat/commands"
)

// Set by the release build.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersion(version, commit, date)

	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
