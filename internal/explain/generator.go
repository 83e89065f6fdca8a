// Package explain generates conversational explanations of article chunks.
package explain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/apperr"
	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/author"
	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/lang"
	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/providers"
)

const (
	defaultTemperature = 0.7
	defaultMaxTokens   = 500
)

// Chatter is the LLM dependency. *providers.Chain satisfies it.
type Chatter interface {
	Chat(ctx context.Context, req providers.ChatRequest) (*providers.ChatResponse, error)
}

// Request describes one explanation or question turn. A non-empty
// UserQuestion turns the request into a question about the chunk.
type Request struct {
	Chunk                string          `json:"chunk"`
	ChunkIndex           int             `json:"chunkIndex"`
	PreviousExplanations []string        `json:"previousExplanations,omitempty"`
	Language             string          `json:"language,omitempty"`
	UserQuestion         string          `json:"userQuestion,omitempty"`
	AuthorName           string          `json:"authorName,omitempty"`
	AuthorStyleProfile   *author.Profile `json:"authorStyleProfile,omitempty"`
}

// Result is the generated text.
type Result struct {
	Explanation string `json:"explanation"`
	ChunkIndex  int    `json:"chunkIndex"`
}

// Config tunes generation. Zero values use defaults.
type Config struct {
	Model         string
	Temperature   float64
	MaxTokens     int
	ContextTokens int // budget for previous explanations
}

// Generator produces explanations. It is safe for concurrent use.
type Generator struct {
	llm     Chatter
	cfg     Config
	counter TokenCounter
	guard   *InputGuard
}

// NewGenerator creates a Generator. A nil counter uses the rune estimate.
func NewGenerator(llm Chatter, cfg Config, counter TokenCounter) *Generator {
	if cfg.Temperature == 0 {
		cfg.Temperature = defaultTemperature
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	if cfg.ContextTokens <= 0 {
		cfg.ContextTokens = defaultContextTokens
	}
	if counter == nil {
		counter = estimateCounter{}
	}
	return &Generator{llm: llm, cfg: cfg, counter: counter, guard: NewInputGuard()}
}

// Explain runs one turn. The style profile is applied only when its name
// matches AuthorName, or when no AuthorName is given.
func (g *Generator) Explain(ctx context.Context, req Request) (*Result, error) {
	op := "explain.chunk"
	if strings.TrimSpace(req.UserQuestion) != "" {
		op = "explain.question"
	}
	if strings.TrimSpace(req.Chunk) == "" {
		return nil, apperr.BadRequest(op, errors.New("chunk is required"))
	}
	if req.ChunkIndex < 0 {
		return nil, apperr.BadRequest(op, fmt.Errorf("invalid chunkIndex %d", req.ChunkIndex))
	}
	if g.llm == nil {
		return nil, apperr.Unavailable(op, providers.ErrNoProvider)
	}

	g.guard.check(op, &req)

	languageName := lang.NameOf(req.Language)
	previous := trimToBudget(req.PreviousExplanations, g.cfg.ContextTokens, g.counter)

	style := req.AuthorStyleProfile
	if style != nil && req.AuthorName != "" && style.Name != req.AuthorName {
		slog.Debug("ignoring style profile for another author", "profile", style.Name, "author", req.AuthorName)
		style = nil
	}

	var user string
	if strings.TrimSpace(req.UserQuestion) != "" {
		user = questionPrompt(&req, languageName, previous)
	} else {
		user = explainPrompt(&req, languageName, previous)
	}

	resp, err := g.llm.Chat(ctx, providers.ChatRequest{
		Messages: []providers.Message{
			{Role: providers.RoleSystem, Content: systemPrompt(languageName, style)},
			{Role: providers.RoleUser, Content: user},
		},
		Model:       g.cfg.Model,
		Temperature: g.cfg.Temperature,
		MaxTokens:   g.cfg.MaxTokens,
	})
	switch {
	case errors.Is(err, providers.ErrEmptyResponse):
		return nil, apperr.Malformed(op, fmt.Errorf("failed to generate explanation: %w", err))
	case err != nil:
		return nil, apperr.Unavailable(op, err)
	case strings.TrimSpace(resp.Content) == "":
		return nil, apperr.Malformed(op, fmt.Errorf("failed to generate explanation: %w", providers.ErrEmptyResponse))
	}

	return &Result{Explanation: resp.Content, ChunkIndex: req.ChunkIndex}, nil
}
