package tts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"

	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/tracing"
)

const defaultMaxLength = 4096

// ErrNoProvider is returned when no provider is eligible for a request.
var ErrNoProvider = errors.New("no tts provider available")

// Manager holds the configured providers in priority order.
type Manager struct {
	mu        sync.RWMutex
	providers []Provider
	maxLength int
}

// ManagerConfig configures the TTS manager.
type ManagerConfig struct {
	MaxLength int // default 4096
}

// NewManager creates a TTS manager.
func NewManager(cfg ManagerConfig) *Manager {
	m := &Manager{maxLength: cfg.MaxLength}
	if m.maxLength <= 0 {
		m.maxLength = defaultMaxLength
	}
	return m
}

// RegisterProvider appends p to the candidate list. A provider registered
// again under the same name replaces the earlier one in place.
func (m *Manager) RegisterProvider(p Provider) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, existing := range m.providers {
		if existing.Name() == p.Name() {
			m.providers[i] = p
			return
		}
	}
	m.providers = append(m.providers, p)
}

// GetProvider returns a provider by name.
func (m *Manager) GetProvider(name string) (Provider, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.providers {
		if p.Name() == name {
			return p, true
		}
	}
	return nil, false
}

// Names lists providers in priority order.
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, len(m.providers))
	for i, p := range m.providers {
		names[i] = p.Name()
	}
	return names
}

// HasProviders returns true if at least one provider is registered.
func (m *Manager) HasProviders() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.providers) > 0
}

// candidates returns the providers eligible for opts. Cloned voices need an
// author or a reference clip; ClonedOnly drops everything else.
func (m *Manager) candidates(opts Options) []Provider {
	m.mu.RLock()
	defer m.mu.RUnlock()
	wantClone := opts.AuthorName != "" || opts.ReferenceAudioURL != ""
	var out []Provider
	for _, p := range m.providers {
		cloned := IsCloned(p)
		if (cloned && !wantClone) || (!cloned && opts.ClonedOnly) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// PrepareText strips markdown and truncates to the configured maximum.
func (m *Manager) PrepareText(text string) string {
	clean := strings.TrimSpace(stripMarkdown(text))
	if len(clean) > m.maxLength {
		clean = truncateUTF8(clean, m.maxLength)
	}
	return clean
}

// SynthesizeWithFallback tries each eligible provider in order; the first
// success wins.
func (m *Manager) SynthesizeWithFallback(ctx context.Context, text string, opts Options) (*SynthResult, error) {
	candidates := m.candidates(opts)
	if len(candidates) == 0 {
		return nil, ErrNoProvider
	}

	var lastErr error
	for i, p := range candidates {
		span := tracing.Start(ctx, tracing.KindTTS, "tts."+p.Name())
		span.SetInput(text)
		result, err := p.Synthesize(ctx, text, opts)
		span.End(err)
		if err == nil {
			if i > 0 {
				slog.Info("tts.fallback_succeeded", "provider", p.Name(), "attempt", i+1)
			}
			result.Provider = p.Name()
			return result, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		slog.Warn("tts.fallback", "provider", p.Name(), "attempt", i+1, "of", len(candidates), "error", err)
		lastErr = err
	}
	return nil, fmt.Errorf("all tts providers failed: %w", lastErr)
}

var (
	reCodeBlock  = regexp.MustCompile("(?s)```[^`]*```")
	reInlineCode = regexp.MustCompile("`([^`]+)`")
	reBold       = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	reItalic     = regexp.MustCompile(`\*([^*]+)\*`)
	reBoldUnder  = regexp.MustCompile(`__([^_]+)__`)
	reItalUnder  = regexp.MustCompile(`\b_([^_]+)_\b`)
	reLink       = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	reHeader     = regexp.MustCompile(`(?m)^#+\s+`)
	reBullet     = regexp.MustCompile(`(?m)^\s*[-*+]\s+`)
)

// stripMarkdown removes formatting that would otherwise be read aloud.
func stripMarkdown(text string) string {
	text = reCodeBlock.ReplaceAllString(text, "")
	text = reInlineCode.ReplaceAllString(text, "$1")
	text = reBold.ReplaceAllString(text, "$1")
	text = reItalic.ReplaceAllString(text, "$1")
	text = reBoldUnder.ReplaceAllString(text, "$1")
	text = reItalUnder.ReplaceAllString(text, "$1")
	text = reLink.ReplaceAllString(text, "$1")
	text = reHeader.ReplaceAllString(text, "")
	text = reBullet.ReplaceAllString(text, "")
	return text
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !isRuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }
