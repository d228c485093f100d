package usecases

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/0xcro3dile/pdfchat-go/internal/domain/errs"
)

// SentenceSplitter packs whole sentences into chunks of at most chunkSize
// characters, repeating up to chunkOverlap characters of trailing sentences
// at the start of the next chunk.
type SentenceSplitter struct {
	chunkSize    int
	chunkOverlap int
}

// NewSentenceSplitter validates chunkSize > chunkOverlap >= 0.
func NewSentenceSplitter(chunkSize, chunkOverlap int) (*SentenceSplitter, error) {
	if chunkSize <= 0 || chunkOverlap < 0 || chunkOverlap >= chunkSize {
		return nil, errs.New(errs.KindIngestion, "split",
			"chunk size must be greater than chunk overlap, and overlap must not be negative")
	}
	return &SentenceSplitter{chunkSize: chunkSize, chunkOverlap: chunkOverlap}, nil
}

// Split breaks text into overlapping chunks. Whitespace inside sentences is
// collapsed; empty input yields no chunks.
func (s *SentenceSplitter) Split(text string) []string {
	var pieces []string
	for _, sentence := range splitSentences(text) {
		if runeLen(sentence) > s.chunkSize {
			pieces = append(pieces, s.splitLong(sentence)...)
			continue
		}
		pieces = append(pieces, sentence)
	}
	return s.merge(pieces)
}

// merge greedily joins pieces, carrying the overlap forward.
func (s *SentenceSplitter) merge(pieces []string) []string {
	var (
		chunks  []string
		current []string
		total   int
	)
	for _, p := range pieces {
		n := runeLen(p)
		if total+n+sepLen(current) > s.chunkSize && len(current) > 0 {
			chunks = append(chunks, strings.Join(current, " "))
			// Drop leading pieces until what is left fits as overlap and
			// leaves room for p.
			for total > s.chunkOverlap || (total > 0 && total+n+sepLen(current) > s.chunkSize) {
				total -= runeLen(current[0])
				if len(current) > 1 {
					total--
				}
				current = current[1:]
			}
		}
		current = append(current, p)
		total += n
		if len(current) > 1 {
			total++
		}
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, " "))
	}
	return chunks
}

// splitLong cuts an oversized sentence on word boundaries. A single word
// longer than chunkSize is cut by rune count.
func (s *SentenceSplitter) splitLong(sentence string) []string {
	var (
		out []string
		sb  strings.Builder
		n   int
	)
	flush := func() {
		if n > 0 {
			out = append(out, sb.String())
			sb.Reset()
			n = 0
		}
	}
	for _, word := range strings.Fields(sentence) {
		for runeLen(word) > s.chunkSize {
			flush()
			r := []rune(word)
			out = append(out, string(r[:s.chunkSize]))
			word = string(r[s.chunkSize:])
		}
		wl := runeLen(word)
		if n > 0 && n+1+wl > s.chunkSize {
			flush()
		}
		if n > 0 {
			sb.WriteByte(' ')
			n++
		}
		sb.WriteString(word)
		n += wl
	}
	flush()
	return out
}

// splitSentences breaks text after '.', '!' or '?' followed by whitespace,
// and at blank lines.
func splitSentences(text string) []string {
	var (
		sentences []string
		start     int
	)
	emit := func(end int) {
		if sentence := strings.Join(strings.Fields(text[start:end]), " "); sentence != "" {
			sentences = append(sentences, sentence)
		}
		start = end
	}
	for i, r := range text {
		switch {
		case r == '.' || r == '!' || r == '?':
			next, _ := utf8.DecodeRuneInString(text[i+1:])
			if i+1 == len(text) || unicode.IsSpace(next) {
				emit(i + 1)
			}
		case r == '\n' && strings.HasPrefix(text[i+1:], "\n") && i >= start:
			emit(i)
		}
	}
	if start < len(text) {
		emit(len(text))
	}
	return sentences
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

func sepLen(current []string) int {
	if len(current) > 0 {
		return 1
	}
	return 0
}
