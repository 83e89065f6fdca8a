package author

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/apperr"
	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/providers"
)

// Profile sources.
const (
	SourceTranscripts  = "transcripts"
	SourceLLMKnowledge = "llm_knowledge"
)

const (
	maxTranscripts      = 5
	transcriptSeparator = "\n\n---\n\n"

	analysisTemperature = 0.3
	analysisMaxTokens   = 1500
	searchTemperature   = 0.7
	searchMaxTokens     = 200

	searchMessage = "Author search completed. Style analysis will use generated search queries."
)

const analysisSystemPrompt = "You are an expert at analyzing communication styles. Provide accurate, detailed analysis in valid JSON format only."

const analysisSchema = `Analyze and extract their unique speaking style. Provide a detailed analysis in the following JSON format:

{
  "vocabulary": ["list of 10-15 characteristic words or phrases they frequently use"],
  "sentencePatterns": ["list of 5-7 typical sentence structures or patterns"],
  "analogies": ["list of 3-5 types of analogies or examples they commonly use"],
  "tone": "description of their tone (e.g., 'casual and energetic', 'thoughtful and measured')",
  "explanationStyle": "description of how they explain complex topics (e.g., 'uses simple analogies', 'breaks down step by step')",
  "personality": ["list of 5-7 key personality traits visible in their communication"],
  "sampleQuotes": ["3-5 example quotes that represent their speaking style"]
}

Be specific and accurate. Focus on what makes their communication style unique.`

// Chatter is the LLM dependency. *providers.Chain satisfies it.
type Chatter interface {
	Chat(ctx context.Context, req providers.ChatRequest) (*providers.ChatResponse, error)
}

// StyleResult is the answer of GetAuthorStyle.
type StyleResult struct {
	AuthorName string   `json:"authorName"`
	Profile    *Profile `json:"profile"`
	Source     string   `json:"source"`
}

// AnalyzeRequest asks for a profile built from transcripts or model knowledge.
type AnalyzeRequest struct {
	AuthorName      string   `json:"authorName"`
	Transcripts     []string `json:"transcripts,omitempty"`
	UseLLMKnowledge *bool    `json:"useLLMKnowledge,omitempty"` // nil means true
}

// AnalyzeResult is the answer of AnalyzeAuthorStyle.
type AnalyzeResult struct {
	Profile *Profile `json:"profile"`
	Source  string   `json:"source"`
}

// SearchResult is the answer of SearchAuthorContent. Transcripts and Sources
// are always empty; only the generated queries are returned.
type SearchResult struct {
	AuthorName    string   `json:"authorName"`
	SearchQueries []string `json:"searchQueries"`
	Transcripts   []string `json:"transcripts"`
	Sources       []string `json:"sources"`
	Message       string   `json:"message"`
}

// Service produces author style profiles.
type Service struct {
	llm   Chatter
	cache Cache
	model string
	group singleflight.Group
}

// NewService creates a Service. A nil cache disables caching.
func NewService(llm Chatter, cache Cache, model string) *Service {
	return &Service{llm: llm, cache: cache, model: model}
}

// GetAuthorStyle returns the profile for name, reading the cache before any
// model call. Concurrent requests for the same author share one call.
func (s *Service) GetAuthorStyle(ctx context.Context, name string, useLLMKnowledge bool) (*StyleResult, error) {
	const op = "author.style"
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.BadRequest(op, errors.New("authorName is required"))
	}

	if p := s.cached(ctx, name); p != nil {
		slog.Debug("author style cache hit", "author", name)
		return &StyleResult{AuthorName: name, Profile: p, Source: SourceLLMKnowledge}, nil
	}

	// The flight outlives any single caller; waiters must not inherit the
	// first caller's cancellation.
	flightCtx := context.WithoutCancel(ctx)
	key := fmt.Sprintf("%s\x00%t", name, useLLMKnowledge)
	v, err, shared := s.group.Do(key, func() (any, error) {
		p, err := s.analyze(flightCtx, op, name, nil, useLLMKnowledge)
		if err != nil {
			return nil, err
		}
		s.store(flightCtx, name, p)
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		slog.Debug("author style request coalesced", "author", name)
	}
	return &StyleResult{AuthorName: name, Profile: v.(*Profile).Clone(), Source: SourceLLMKnowledge}, nil
}

// AnalyzeAuthorStyle builds a fresh profile. Up to five transcripts are used
// when supplied; otherwise the model's own knowledge of the author is asked for.
func (s *Service) AnalyzeAuthorStyle(ctx context.Context, req AnalyzeRequest) (*AnalyzeResult, error) {
	const op = "author.analyze"
	name := strings.TrimSpace(req.AuthorName)
	if name == "" {
		return nil, apperr.BadRequest(op, errors.New("authorName is required"))
	}
	useKnowledge := req.UseLLMKnowledge == nil || *req.UseLLMKnowledge

	p, err := s.analyze(ctx, op, name, req.Transcripts, useKnowledge)
	if err != nil {
		return nil, err
	}
	source := SourceLLMKnowledge
	if len(req.Transcripts) > 0 {
		source = SourceTranscripts
	}
	return &AnalyzeResult{Profile: p, Source: source}, nil
}

// SearchAuthorContent asks the model for search queries that would surface
// interviews, podcasts and speeches by the author.
func (s *Service) SearchAuthorContent(ctx context.Context, name string) (*SearchResult, error) {
	const op = "author.search"
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.BadRequest(op, errors.New("authorName is required"))
	}
	if s.llm == nil {
		return nil, apperr.Unavailable(op, providers.ErrNoProvider)
	}

	prompt := fmt.Sprintf(`Generate 5 specific search queries to find interviews, podcasts, and speeches by %q. 
Focus on:
- Podcast interviews
- YouTube videos with transcripts
- Public speeches and talks
- Interview transcripts

Return only the search queries, one per line, without numbering.`, name)

	resp, err := s.llm.Chat(ctx, providers.ChatRequest{
		Messages:    []providers.Message{{Role: providers.RoleUser, Content: prompt}},
		Model:       s.model,
		Temperature: searchTemperature,
		MaxTokens:   searchMaxTokens,
	})
	if err != nil {
		return nil, classify(op, err)
	}

	queries := []string{}
	for _, line := range strings.Split(resp.Content, "\n") {
		if strings.TrimSpace(line) != "" {
			queries = append(queries, line)
		}
	}
	return &SearchResult{
		AuthorName:    name,
		SearchQueries: queries,
		Transcripts:   []string{},
		Sources:       []string{},
		Message:       searchMessage,
	}, nil
}

func (s *Service) analyze(ctx context.Context, op, name string, transcripts []string, useKnowledge bool) (*Profile, error) {
	if s.llm == nil {
		return nil, apperr.Unavailable(op, providers.ErrNoProvider)
	}

	resp, err := s.llm.Chat(ctx, providers.ChatRequest{
		Messages: []providers.Message{
			{Role: providers.RoleSystem, Content: analysisSystemPrompt},
			{Role: providers.RoleUser, Content: analysisPrompt(name, transcripts, useKnowledge)},
		},
		Model:       s.model,
		Temperature: analysisTemperature,
		MaxTokens:   analysisMaxTokens,
		JSON:        true,
	})
	if err != nil {
		return nil, classify(op, err)
	}

	p, err := parseProfile(name, resp.Content)
	if err != nil {
		return nil, apperr.Malformed(op, fmt.Errorf("failed to parse style analysis: %w", err))
	}
	return p, nil
}

func analysisPrompt(name string, transcripts []string, useKnowledge bool) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Analyze the speaking and writing style of %q.\n\n", name)
	switch {
	case len(transcripts) > 0:
		if len(transcripts) > maxTranscripts {
			transcripts = transcripts[:maxTranscripts]
		}
		fmt.Fprintf(&sb, "Based on these transcripts of %s's interviews, podcasts, and speeches:\n\n%s\n\n",
			name, strings.Join(transcripts, transcriptSeparator))
	case useKnowledge:
		fmt.Fprintf(&sb, "Based on your knowledge of %s's public interviews, podcasts, and speeches, ", name)
	}
	sb.WriteString(analysisSchema)
	return sb.String()
}

func (s *Service) cached(ctx context.Context, name string) *Profile {
	if s.cache == nil {
		return nil
	}
	p, err := s.cache.Get(ctx, name)
	if err != nil {
		slog.Warn("author style cache read failed", "author", name, "error", err)
		return nil
	}
	return p
}

func (s *Service) store(ctx context.Context, name string, p *Profile) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, name, p); err != nil {
		slog.Warn("author style cache write failed", "author", name, "error", err)
	}
}

func classify(op string, err error) error {
	if errors.Is(err, providers.ErrEmptyResponse) {
		return apperr.Malformed(op, fmt.Errorf("failed to generate style analysis: %w", err))
	}
	return apperr.Unavailable(op, err)
}
