package explain

import (
	"log/slog"
	"regexp"
	"strings"
)

type guardPattern struct {
	name    string
	pattern *regexp.Regexp
}

// InputGuard flags prompt-injection attempts in article text and user
// questions. Matches are logged, never blocked: articles quoting such
// phrases are legitimate input.
type InputGuard struct {
	patterns []guardPattern
}

func NewInputGuard() *InputGuard {
	return &InputGuard{patterns: []guardPattern{
		{"ignore_instructions", regexp.MustCompile(`(?i)ignore\s+(all\s+)?(previous|prior|above|earlier|preceding)\s+(instructions?|rules?|prompts?|directives?)`)},
		{"role_override", regexp.MustCompile(`(?i)(you are now|from now on you are|pretend you are|act as if you are)\s+`)},
		{"system_tags", regexp.MustCompile(`(?i)</?system>|\[SYSTEM\]|\[INST\]|<<SYS>>|<\|im_start\|>system`)},
		{"instruction_injection", regexp.MustCompile(`(?i)(new instructions?:|system prompt:|<\|system\|>)`)},
		{"delimiter_escape", regexp.MustCompile(`(?i)(end of (the )?(article|system)|begin user input|</?(instructions?|rules|prompt|context)>)`)},
	}}
}

// Scan returns the names of matched patterns.
func (g *InputGuard) Scan(text string) []string {
	if text == "" {
		return nil
	}
	var matches []string
	for _, gp := range g.patterns {
		if gp.pattern.MatchString(text) {
			matches = append(matches, gp.name)
		}
	}
	return matches
}

// check logs matches in each named field and strips NUL bytes, which some
// providers reject outright.
func (g *InputGuard) check(op string, req *Request) {
	for field, text := range map[string]*string{"chunk": &req.Chunk, "question": &req.UserQuestion} {
		if strings.ContainsRune(*text, 0) {
			*text = strings.ReplaceAll(*text, "\x00", "")
		}
		if m := g.Scan(*text); len(m) > 0 {
			slog.Warn("security.injection_detected", "op", op, "field", field, "patterns", m, "chunk_index", req.ChunkIndex)
		}
	}
}
