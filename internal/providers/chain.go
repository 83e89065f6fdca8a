package providers

import (
	"context"
	"fmt"
	"log/slog"
)

// Credentials configure one provider candidate.
type Credentials struct {
	APIKey  string
	APIBase string
	Model   string
}

// Chain is an ordered list of provider candidates. Chat tries them in order
// and the first success wins.
type Chain struct {
	candidates []Provider
}

// NewChain builds a chain, skipping nil providers.
func NewChain(ps ...Provider) *Chain {
	c := &Chain{}
	for _, p := range ps {
		if p != nil {
			c.candidates = append(c.candidates, p)
		}
	}
	return c
}

// Resolve orders candidates by credential presence: OpenRouter first, then OpenAI.
func Resolve(openRouter, openAI Credentials) *Chain {
	var ps []Provider
	if openRouter.APIKey != "" {
		ps = append(ps, NewOpenRouterProvider(openRouter.APIKey, openRouter.APIBase, openRouter.Model))
	}
	if openAI.APIKey != "" {
		ps = append(ps, NewOpenAIProvider("openai", openAI.APIKey, openAI.APIBase, openAI.Model))
	}
	return NewChain(ps...)
}

// Len returns the number of candidates.
func (c *Chain) Len() int { return len(c.candidates) }

// Names lists candidate names in order.
func (c *Chain) Names() []string {
	names := make([]string, len(c.candidates))
	for i, p := range c.candidates {
		names[i] = p.Name()
	}
	return names
}

// Find returns the first candidate with the given name.
func (c *Chain) Find(name string) (Provider, bool) {
	for _, p := range c.candidates {
		if p.Name() == name {
			return p, true
		}
	}
	return nil, false
}

// Chat runs req against each candidate until one succeeds. Each candidate
// is called once. The request model
// applies to the first candidate only; fallbacks use their own defaults since
// model names differ between hosts.
func (c *Chain) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if len(c.candidates) == 0 {
		return nil, ErrNoProvider
	}

	var lastErr error
	for i, p := range c.candidates {
		r := req
		if i > 0 {
			r.Model = ""
		}
		resp, err := p.Chat(ctx, r)
		if err == nil {
			if i > 0 {
				slog.Info("provider.fallback_succeeded", "provider", p.Name(), "attempt", i+1)
			}
			return resp, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		slog.Warn("provider.failed", "provider", p.Name(), "attempt", i+1, "of", len(c.candidates), "error", ScrubSecrets(err.Error()))
		lastErr = err
	}
	return nil, fmt.Errorf("all providers failed: %w", lastErr)
}
