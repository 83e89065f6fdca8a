package reader

import (
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
)

// wrap breaks text into lines of at most width display cells, splitting on
// spaces and, for words wider than a line, between runes. Paragraph breaks
// are kept.
func wrap(text string, width int) string {
	if width <= 0 {
		return text
	}
	var out strings.Builder
	for i, para := range strings.Split(text, "\n") {
		if i > 0 {
			out.WriteByte('\n')
		}
		lineW := 0
		for _, word := range strings.Fields(para) {
			w := runewidth.StringWidth(word)
			if lineW > 0 && lineW+1+w > width {
				out.WriteByte('\n')
				lineW = 0
			}
			if lineW > 0 {
				out.WriteByte(' ')
				lineW++
			}
			for w > width {
				head := runewidth.Truncate(word, width, "")
				if head == "" {
					_, size := utf8.DecodeRuneInString(word)
					head = word[:size]
				}
				out.WriteString(head)
				out.WriteByte('\n')
				word = word[len(head):]
				w = runewidth.StringWidth(word)
			}
			out.WriteString(word)
			lineW += w
		}
	}
	return out.String()
}
