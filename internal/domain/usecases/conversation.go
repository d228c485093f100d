package usecases

import (
	"strings"

	"github.com/0xcro3dile/pdfchat-go/internal/domain/entities"
)

// FormatContext renders the last window turns of history, oldest first,
// followed by the new question:
//
//	User: <question>
//	Bot: <answer>
//	...
//	User: <new question>
//
// A window of zero or less renders the question alone.
func FormatContext(history []entities.Turn, question string, window int) string {
	if window < 0 {
		window = 0
	}
	if window > len(history) {
		window = len(history)
	}

	lines := make([]string, 0, 2*window+1)
	for _, turn := range history[len(history)-window:] {
		lines = append(lines, "User: "+turn.Question, "Bot: "+turn.Answer)
	}
	lines = append(lines, "User: "+question)
	return strings.Join(lines, "\n")
}
