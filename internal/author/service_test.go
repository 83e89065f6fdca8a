package author

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/apperr"
	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/providers"
)

type fakeChatter struct {
	mu      sync.Mutex
	content string
	err     error
	delay   time.Duration
	calls   atomic.Int32
	last    providers.ChatRequest
}

func (f *fakeChatter) Chat(_ context.Context, req providers.ChatRequest) (*providers.ChatResponse, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.last = req
	f.mu.Unlock()
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return nil, f.err
	}
	return &providers.ChatResponse{Content: f.content}, nil
}

const profileJSON = `{"vocabulary":["first principles"],"tone":"direct","explanationStyle":"from the ground up"}`

func TestGetAuthorStyleCaches(t *testing.T) {
	llm := &fakeChatter{content: profileJSON}
	svc := NewService(llm, NewMemoryCache(0, 0), "")

	res, err := svc.GetAuthorStyle(context.Background(), "Richard Feynman", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Source != SourceLLMKnowledge || res.Profile.Name != "Richard Feynman" || res.Profile.Tone != "direct" {
		t.Errorf("unexpected result %+v", res)
	}
	if !llm.last.JSON || llm.last.Temperature != analysisTemperature || llm.last.MaxTokens != analysisMaxTokens {
		t.Errorf("unexpected analysis request %+v", llm.last)
	}

	if _, err := svc.GetAuthorStyle(context.Background(), "Richard Feynman", true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if llm.calls.Load() != 1 {
		t.Errorf("expected cached second call, got %d model calls", llm.calls.Load())
	}
}

func TestGetAuthorStyleCoalesces(t *testing.T) {
	llm := &fakeChatter{content: profileJSON, delay: 50 * time.Millisecond}
	svc := NewService(llm, nil, "")

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.GetAuthorStyle(context.Background(), "Ada", true); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()
	if n := llm.calls.Load(); n != 1 {
		t.Errorf("expected 1 model call, got %d", n)
	}
}

type failingCache struct{}

func (failingCache) Get(context.Context, string) (*Profile, error) { return nil, errors.New("down") }
func (failingCache) Set(context.Context, string, *Profile) error   { return errors.New("down") }

func TestGetAuthorStyleCacheFailureIsMiss(t *testing.T) {
	svc := NewService(&fakeChatter{content: profileJSON}, failingCache{}, "")
	if _, err := svc.GetAuthorStyle(context.Background(), "Ada", true); err != nil {
		t.Fatalf("cache failure should not fail the request: %v", err)
	}
}

func TestGetAuthorStyleErrors(t *testing.T) {
	tests := []struct {
		name string
		svc  *Service
		in   string
		kind apperr.Kind
	}{
		{"empty name", NewService(&fakeChatter{}, nil, ""), "  ", apperr.KindBadRequest},
		{"no provider", NewService(nil, nil, ""), "Ada", apperr.KindUpstreamUnavailable},
		{"provider down", NewService(&fakeChatter{err: errors.New("503")}, nil, ""), "Ada", apperr.KindUpstreamUnavailable},
		{"empty content", NewService(&fakeChatter{err: providers.ErrEmptyResponse}, nil, ""), "Ada", apperr.KindUpstreamMalformed},
		{"not json", NewService(&fakeChatter{content: "Sure! Here you go."}, nil, ""), "Ada", apperr.KindUpstreamMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.svc.GetAuthorStyle(context.Background(), tt.in, true)
			if got := apperr.KindOf(err); got != tt.kind {
				t.Errorf("expected %s, got %s (%v)", tt.kind, got, err)
			}
		})
	}
}

func TestAnalyzeAuthorStyleTranscripts(t *testing.T) {
	llm := &fakeChatter{content: profileJSON}
	svc := NewService(llm, nil, "")

	transcripts := []string{"t1", "t2", "t3", "t4", "t5", "t6"}
	res, err := svc.AnalyzeAuthorStyle(context.Background(), AnalyzeRequest{AuthorName: "Ada", Transcripts: transcripts})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Source != SourceTranscripts {
		t.Errorf("expected transcripts source, got %q", res.Source)
	}
	prompt := llm.last.Messages[1].Content
	if !strings.Contains(prompt, "t5") || strings.Contains(prompt, "t6") {
		t.Error("expected at most five transcripts in the prompt")
	}
	if strings.Count(prompt, transcriptSeparator) != 4 {
		t.Errorf("expected 4 separators, got %d", strings.Count(prompt, transcriptSeparator))
	}

	res, err = svc.AnalyzeAuthorStyle(context.Background(), AnalyzeRequest{AuthorName: "Ada"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Source != SourceLLMKnowledge {
		t.Errorf("expected llm_knowledge source, got %q", res.Source)
	}
	if !strings.Contains(llm.last.Messages[1].Content, "Based on your knowledge of Ada") {
		t.Error("expected knowledge prompt")
	}
}

func TestSearchAuthorContent(t *testing.T) {
	llm := &fakeChatter{content: "Ada interview\n\n  \nAda podcast\nAda keynote\n"}
	res, err := NewService(llm, nil, "").SearchAuthorContent(context.Background(), "Ada")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.SearchQueries) != 3 {
		t.Errorf("expected 3 queries, got %q", res.SearchQueries)
	}
	if res.Transcripts == nil || res.Sources == nil || len(res.Transcripts) != 0 {
		t.Error("transcripts and sources should be empty lists")
	}
	if res.Message != searchMessage {
		t.Errorf("unexpected message %q", res.Message)
	}
	if llm.last.MaxTokens != searchMaxTokens || llm.last.JSON {
		t.Errorf("unexpected search request %+v", llm.last)
	}
}

func TestMemoryCacheIsolation(t *testing.T) {
	c := NewMemoryCache(2, time.Minute)
	ctx := context.Background()
	p := &Profile{Name: "A", Tone: "calm"}
	if err := c.Set(ctx, "A", p); err != nil {
		t.Fatal(err)
	}
	p.Tone = "loud"
	got, _ := c.Get(ctx, "A")
	if got == nil || got.Tone != "calm" {
		t.Errorf("cache should store a copy, got %+v", got)
	}
	if miss, err := c.Get(ctx, "B"); miss != nil || err != nil {
		t.Errorf("expected clean miss, got %v %v", miss, err)
	}
	if CacheKey("A") != "author-style-v1-A" {
		t.Errorf("unexpected key %q", CacheKey("A"))
	}
}

// gatedChatter blocks each call until gate closes or the call's context ends.
type gatedChatter struct {
	gate  chan struct{}
	calls atomic.Int32
}

func (g *gatedChatter) Chat(ctx context.Context, _ providers.ChatRequest) (*providers.ChatResponse, error) {
	g.calls.Add(1)
	select {
	case <-g.gate:
		return &providers.ChatResponse{Content: profileJSON}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func waitCalls(t *testing.T, n *atomic.Int32, want int32) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for n.Load() < want {
		if time.Now().After(deadline) {
			t.Fatalf("calls = %d, want %d", n.Load(), want)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestGetAuthorStyleSharedCallSurvivesCancelledCaller(t *testing.T) {
	llm := &gatedChatter{gate: make(chan struct{})}
	svc := NewService(llm, nil, "")

	first, cancel := context.WithCancel(context.Background())
	firstDone := make(chan struct{})
	go func() {
		svc.GetAuthorStyle(first, "Ada Lovelace", true)
		close(firstDone)
	}()
	waitCalls(t, &llm.calls, 1)

	type result struct {
		res *StyleResult
		err error
	}
	second := make(chan result, 1)
	go func() {
		res, err := svc.GetAuthorStyle(context.Background(), "Ada Lovelace", true)
		second <- result{res, err}
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()
	time.Sleep(20 * time.Millisecond)
	close(llm.gate)

	got := <-second
	if got.err != nil {
		t.Fatalf("waiter failed with the first caller's cancellation: %v", got.err)
	}
	if got.res.Profile.Tone != "direct" {
		t.Errorf("unexpected profile %+v", got.res.Profile)
	}
	<-firstDone
	if n := llm.calls.Load(); n != 1 {
		t.Errorf("expected one shared model call, got %d", n)
	}
}

func TestGetAuthorStyleKeyIncludesKnowledgeFlag(t *testing.T) {
	llm := &gatedChatter{gate: make(chan struct{})}
	svc := NewService(llm, nil, "")

	var wg sync.WaitGroup
	for _, useKnowledge := range []bool{true, false} {
		wg.Add(1)
		go func(v bool) {
			defer wg.Done()
			svc.GetAuthorStyle(context.Background(), "Ada Lovelace", v)
		}(useKnowledge)
	}
	waitCalls(t, &llm.calls, 2)
	close(llm.gate)
	wg.Wait()
}
