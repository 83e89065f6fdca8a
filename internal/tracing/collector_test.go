package tracing

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
)

type recordingExporter struct {
	mu    sync.Mutex
	spans []SpanData
	shut  bool
}

func (r *recordingExporter) ExportSpans(_ context.Context, spans []SpanData) {
	r.mu.Lock()
	r.spans = append(r.spans, spans...)
	r.mu.Unlock()
}

func (r *recordingExporter) Shutdown(context.Context) error {
	r.shut = true
	return nil
}

func TestCollectorFlushOnStop(t *testing.T) {
	c := NewCollector(false)
	exp := &recordingExporter{}
	c.SetExporter(exp)
	c.Start()

	traceID := uuid.New()
	ctx := WithTraceID(WithCollector(context.Background(), c), traceID)

	s := Start(ctx, KindLLM, "explain.chunk")
	s.SetModel("openrouter", "openai/gpt-4o-mini")
	s.SetTokens(120, 80)
	s.SetInput("secret prompt")
	s.End(nil)

	Start(ctx, KindTTS, "tts.sovits").End(errors.New("connection refused"))

	c.Stop()

	if len(exp.spans) != 2 {
		t.Fatalf("expected 2 exported spans, got %d", len(exp.spans))
	}
	if !exp.shut {
		t.Error("expected exporter shutdown")
	}
	if exp.spans[0].TraceID != traceID {
		t.Error("span should inherit trace ID from context")
	}
	if exp.spans[0].InputPreview != "" {
		t.Error("previews must be dropped when not verbose")
	}

	totals := c.Totals()
	if totals[KindLLM].Tokens != 200 {
		t.Errorf("expected 200 tokens, got %d", totals[KindLLM].Tokens)
	}
	if totals[KindTTS].Errors != 1 {
		t.Errorf("expected 1 tts error, got %d", totals[KindTTS].Errors)
	}
}

func TestSpanWithoutCollector(t *testing.T) {
	s := Start(context.Background(), KindFetch, "article.fetch")
	s.End(nil) // must not panic
	if s.data.Status != "ok" {
		t.Errorf("expected ok status, got %q", s.data.Status)
	}
}

func TestTruncatePreview(t *testing.T) {
	long := strings.Repeat("é", 400) // 800 bytes
	got := truncatePreview(long)
	if !strings.HasSuffix(got, "...") {
		t.Error("expected ellipsis")
	}
	if len(got) > previewMaxLen+3 {
		t.Errorf("preview too long: %d", len(got))
	}
}
