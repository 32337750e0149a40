package extract

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Normalizer cleans up raw OCR output of a single page.
//
// Tesseract terminates each page with a form feed and often pads lines with
// spaces. Vietnamese diacritics may come back decomposed, so text is composed
// to NFC to keep transcripts comparable byte for byte.
type Normalizer struct{}

// NewNormalizer creates a new Normalizer
func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// Normalize removes form feeds, trailing spaces and leading or trailing blank
// lines, and collapses runs of blank lines into one. Normalize is idempotent.
func (n *Normalizer) Normalize(text string) string {
	text = norm.NFC.String(text)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.ReplaceAll(text, "\f", "")

	lines := strings.Split(text, "\n")
	result := make([]string, 0, len(lines))
	blank := false

	for _, line := range lines {
		line = strings.TrimRight(line, " \t\v")
		if line == "" {
			// Only keep a blank line between two non-blank ones.
			if len(result) > 0 {
				blank = true
			}
			continue
		}
		if blank {
			result = append(result, "")
			blank = false
		}
		result = append(result, line)
	}

	return strings.Join(result, "\n")
}
