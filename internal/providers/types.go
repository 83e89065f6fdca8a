// Package providers talks to OpenAI-compatible chat completion services.
package providers

import (
	"context"
	"errors"
)

var (
	// ErrNoProvider is returned when no credential is configured.
	ErrNoProvider = errors.New("no provider configured")

	// ErrEmptyResponse is returned when a provider answers without content.
	ErrEmptyResponse = errors.New("provider returned empty content")
)

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one chat turn.
type Message struct {
	Role    string
	Content string
}

// ChatRequest is a single completion request. An empty Model uses the
// provider's default.
type ChatRequest struct {
	Messages    []Message
	Model       string
	Temperature float64
	MaxTokens   int
	JSON        bool // ask for a JSON object response
}

// Usage reports token counts.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
}

// ChatResponse is a completed answer.
type ChatResponse struct {
	Content      string
	Model        string
	Provider     string
	FinishReason string
	Usage        Usage
}

// Provider is an LLM backend.
type Provider interface {
	Name() string
	DefaultModel() string
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}
