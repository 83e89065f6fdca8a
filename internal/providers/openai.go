package providers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/tracing"
)

const openAIDefaultModel = "gpt-4o-mini"

// OpenAIProvider serves any OpenAI-compatible chat completions endpoint.
type OpenAIProvider struct {
	name         string
	defaultModel string
	client       *openai.Client
}

// NewOpenAIProvider creates a provider. apiBase may be empty for api.openai.com.
func NewOpenAIProvider(name, apiKey, apiBase, defaultModel string) *OpenAIProvider {
	return newOpenAIProvider(name, apiKey, apiBase, defaultModel, nil)
}

func newOpenAIProvider(name, apiKey, apiBase, defaultModel string, httpClient *http.Client) *OpenAIProvider {
	cfg := openai.DefaultConfig(apiKey)
	if apiBase != "" {
		cfg.BaseURL = strings.TrimRight(apiBase, "/")
	}
	if httpClient != nil {
		cfg.HTTPClient = httpClient
	}
	if defaultModel == "" {
		defaultModel = openAIDefaultModel
	}
	return &OpenAIProvider{
		name:         name,
		defaultModel: defaultModel,
		client:       openai.NewClientWithConfig(cfg),
	}
}

func (p *OpenAIProvider) Name() string         { return p.name }
func (p *OpenAIProvider) DefaultModel() string { return p.defaultModel }

// Chat sends one non-streaming completion request.
func (p *OpenAIProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	model := req.Model
	if model == "" {
		model = p.defaultModel
	}

	msgs := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	creq := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    msgs,
		Temperature: float32(req.Temperature),
		MaxTokens:   req.MaxTokens,
	}
	if req.JSON {
		creq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	span := tracing.Start(ctx, tracing.KindLLM, p.name+".chat")
	span.SetModel(p.name, model)
	if n := len(req.Messages); n > 0 {
		span.SetInput(req.Messages[n-1].Content)
	}

	resp, err := p.client.CreateChatCompletion(ctx, creq)
	if err != nil {
		err = fmt.Errorf("%s chat completion: %w", p.name, err)
		span.End(err)
		return nil, err
	}
	span.SetTokens(resp.Usage.PromptTokens, resp.Usage.CompletionTokens)

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		err = fmt.Errorf("%s: %w", p.name, ErrEmptyResponse)
		span.End(err)
		return nil, err
	}

	out := &ChatResponse{
		Content:      resp.Choices[0].Message.Content,
		Model:        resp.Model,
		Provider:     p.name,
		FinishReason: string(resp.Choices[0].FinishReason),
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
		},
	}
	span.SetOutput(out.Content)
	span.End(nil)
	return out, nil
}

// Transcribe converts recorded speech to text with the Whisper model.
// filename must carry the audio extension ("speech.webm").
func (p *OpenAIProvider) Transcribe(ctx context.Context, audio []byte, filename, language string) (string, error) {
	if len(audio) == 0 {
		return "", errors.New("empty audio")
	}

	span := tracing.Start(ctx, tracing.KindSTT, p.name+".transcribe")
	span.SetModel(p.name, openai.Whisper1)

	resp, err := p.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    openai.Whisper1,
		Reader:   bytes.NewReader(audio),
		FilePath: filename,
		Language: language,
	})
	if err != nil {
		err = fmt.Errorf("%s transcription: %w", p.name, err)
		span.End(err)
		return "", err
	}
	span.End(nil)
	return strings.TrimSpace(resp.Text), nil
}
