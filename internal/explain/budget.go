package explain

import (
	"log/slog"
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

const defaultContextTokens = 3000

// TokenCounter counts prompt tokens.
type TokenCounter interface {
	Count(text string) int
}

// TiktokenCounter counts with the cl100k_base encoding. The encoding is
// loaded on first use; when it cannot be loaded (no network for the BPE
// file) counts fall back to a rune-based estimate.
type TiktokenCounter struct {
	once sync.Once
	enc  *tiktoken.Tiktoken
}

func (c *TiktokenCounter) Count(text string) int {
	c.once.Do(func() {
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			slog.Warn("tiktoken encoding unavailable, estimating token counts", "error", err)
			return
		}
		c.enc = enc
	})
	if c.enc == nil {
		return EstimateTokens(text)
	}
	return len(c.enc.Encode(text, nil, nil))
}

// EstimateTokens approximates a token count at four runes per token.
func EstimateTokens(text string) int {
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return 0
	}
	return (n + 3) / 4
}

type estimateCounter struct{}

func (estimateCounter) Count(text string) int { return EstimateTokens(text) }

// trimToBudget keeps the newest explanations whose combined size fits in
// budget tokens. Order is preserved; the oldest entries are dropped first.
func trimToBudget(prev []string, budget int, counter TokenCounter) []string {
	if budget <= 0 || len(prev) == 0 {
		return prev
	}
	used := 0
	start := len(prev)
	for i := len(prev) - 1; i >= 0; i-- {
		n := counter.Count(prev[i])
		if used+n > budget {
			break
		}
		used += n
		start = i
	}
	if start > 0 {
		slog.Debug("previous explanations trimmed", "dropped", start, "kept", len(prev)-start, "tokens", used)
	}
	return prev[start:]
}
