package article

import (
	"regexp"
	"strings"

	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/apperr"
)

// ErrEmptyContent is returned when text contains no non-blank paragraph.
var ErrEmptyContent = apperr.ErrEmptyContent

// reParagraphBreak matches one or more blank lines, including lines that
// hold only spaces or tabs.
var reParagraphBreak = regexp.MustCompile(`\n\s*\n`)

// Chunk splits text into paragraph chunks on blank-line boundaries.
// Every chunk is trimmed and non-empty; order follows the input.
func Chunk(text string) ([]string, error) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	parts := reParagraphBreak.Split(text, -1)

	chunks := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			chunks = append(chunks, p)
		}
	}
	if len(chunks) == 0 {
		return nil, ErrEmptyContent
	}
	return chunks, nil
}
