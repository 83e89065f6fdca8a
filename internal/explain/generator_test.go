package explain

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/apperr"
	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/author"
	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/providers"
)

type fakeChatter struct {
	content string
	err     error
	reqs    []providers.ChatRequest
}

func (f *fakeChatter) Chat(_ context.Context, req providers.ChatRequest) (*providers.ChatResponse, error) {
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return nil, f.err
	}
	return &providers.ChatResponse{Content: f.content}, nil
}

func (f *fakeChatter) prompts(t *testing.T) (system, user string) {
	t.Helper()
	if len(f.reqs) == 0 {
		t.Fatal("no chat request recorded")
	}
	msgs := f.reqs[len(f.reqs)-1].Messages
	return msgs[0].Content, msgs[1].Content
}

func TestExplainFirstChunk(t *testing.T) {
	llm := &fakeChatter{content: "Bridges push back."}
	g := NewGenerator(llm, Config{}, nil)

	res, err := g.Explain(context.Background(), Request{Chunk: "Para one.", ChunkIndex: 0, Language: "es"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Explanation != "Bridges push back." || res.ChunkIndex != 0 {
		t.Errorf("unexpected result %+v", res)
	}

	req := llm.reqs[0]
	if req.Temperature != 0.7 || req.MaxTokens != 500 {
		t.Errorf("unexpected sampling params %+v", req)
	}
	system, user := llm.prompts(t)
	if !strings.Contains(system, "someone in Spanish") {
		t.Errorf("system prompt should target Spanish: %q", system)
	}
	for _, want := range []string{beginningOfArticle, "(chunk 1)", "Para one.", "Does that make sense, or would you like me to clarify anything?"} {
		if !strings.Contains(user, want) {
			t.Errorf("user prompt missing %q", want)
		}
	}
}

func TestExplainWithContextAndUnknownLanguage(t *testing.T) {
	llm := &fakeChatter{content: "ok"}
	g := NewGenerator(llm, Config{}, nil)

	_, err := g.Explain(context.Background(), Request{
		Chunk:                "Para two.",
		ChunkIndex:           1,
		PreviousExplanations: []string{"first explanation"},
		Language:             "xx",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	system, user := llm.prompts(t)
	if !strings.Contains(system, "in English") {
		t.Error("unknown language should fall back to English")
	}
	if !strings.Contains(user, "You've already explained:\n\nfirst explanation") {
		t.Errorf("expected previous context in prompt: %q", user)
	}
	if strings.Contains(user, beginningOfArticle) {
		t.Error("beginning marker should only appear without context")
	}
}

func TestExplainQuestion(t *testing.T) {
	llm := &fakeChatter{content: "Because steel stretches."}
	g := NewGenerator(llm, Config{}, nil)

	_, err := g.Explain(context.Background(), Request{
		Chunk:        "Para two.",
		ChunkIndex:   1,
		UserQuestion: "Why steel?",
		Language:     "fr",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, user := llm.prompts(t)
	for _, want := range []string{"Current focus (chunk 2): Para two.", "User asked: Why steel?", "naturally in French", beginningOfArticle} {
		if !strings.Contains(user, want) {
			t.Errorf("question prompt missing %q", want)
		}
	}
}

func TestExplainStyleProfile(t *testing.T) {
	llm := &fakeChatter{content: "ok"}
	g := NewGenerator(llm, Config{}, nil)
	profile := &author.Profile{Name: "Carl Sagan", Tone: "wonder", ExplanationStyle: "cosmic scale", Vocabulary: []string{"billions"}}

	if _, err := g.Explain(context.Background(), Request{Chunk: "c", AuthorName: "Carl Sagan", AuthorStyleProfile: profile}); err != nil {
		t.Fatal(err)
	}
	system, _ := llm.prompts(t)
	if !strings.Contains(system, "voice of Carl Sagan") || !strings.Contains(system, "billions") {
		t.Errorf("expected style block: %q", system)
	}

	if _, err := g.Explain(context.Background(), Request{Chunk: "c", AuthorName: "Someone Else", AuthorStyleProfile: profile}); err != nil {
		t.Fatal(err)
	}
	system, _ = llm.prompts(t)
	if strings.Contains(system, "voice of") {
		t.Error("mismatched profile should be ignored")
	}
}

func TestExplainErrors(t *testing.T) {
	tests := []struct {
		name string
		llm  Chatter
		req  Request
		kind apperr.Kind
	}{
		{"empty chunk", &fakeChatter{}, Request{Chunk: " "}, apperr.KindBadRequest},
		{"negative index", &fakeChatter{}, Request{Chunk: "c", ChunkIndex: -1}, apperr.KindBadRequest},
		{"no provider", nil, Request{Chunk: "c"}, apperr.KindUpstreamUnavailable},
		{"empty chain", providers.NewChain(), Request{Chunk: "c"}, apperr.KindUpstreamUnavailable},
		{"provider failure", &fakeChatter{err: errors.New("boom")}, Request{Chunk: "c"}, apperr.KindUpstreamUnavailable},
		{"empty content", &fakeChatter{err: providers.ErrEmptyResponse}, Request{Chunk: "c"}, apperr.KindUpstreamMalformed},
		{"blank content", &fakeChatter{content: "  "}, Request{Chunk: "c"}, apperr.KindUpstreamMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGenerator(tt.llm, Config{}, nil).Explain(context.Background(), tt.req)
			if got := apperr.KindOf(err); got != tt.kind {
				t.Errorf("expected %s, got %s (%v)", tt.kind, got, err)
			}
		})
	}
}
