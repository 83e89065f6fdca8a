package tracing

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	defaultFlushInterval = 5 * time.Second
	defaultBufferSize    = 1000
	previewMaxLen        = 500
)

// Span kinds.
const (
	KindLLM   = "llm_call"
	KindTTS   = "tts_call"
	KindSTT   = "stt_call"
	KindFetch = "fetch"
)

// SpanData is one finished outbound call.
type SpanData struct {
	ID            uuid.UUID
	TraceID       uuid.UUID
	ParentSpanID  *uuid.UUID
	Kind          string
	Name          string
	Provider      string
	Model         string
	StartTime     time.Time
	EndTime       time.Time
	DurationMS    int
	Status        string // "ok" or "error"
	Error         string
	InputPreview  string
	OutputPreview string
	InputTokens   int
	OutputTokens  int
}

// SpanExporter receives flushed spans. The OTLP implementation lives in the
// otelexport sub-package so the OTel dependency stays behind a build tag.
type SpanExporter interface {
	ExportSpans(ctx context.Context, spans []SpanData)
	Shutdown(ctx context.Context) error
}

// Totals aggregates span counts per kind since the collector started.
type Totals struct {
	Spans  int
	Errors int
	Tokens int
}

// Collector buffers spans in memory and flushes them periodically to the
// attached exporter. Without an exporter, flushes only update Totals and log.
type Collector struct {
	spanCh chan SpanData
	stopCh chan struct{}
	wg     sync.WaitGroup

	mu       sync.Mutex
	exporter SpanExporter
	totals   map[string]*Totals

	verbose bool // when true, previews are kept in full spans
}

// NewCollector creates a collector. verbose keeps input/output previews.
func NewCollector(verbose bool) *Collector {
	if verbose {
		slog.Info("tracing: verbose mode enabled")
	}
	return &Collector{
		spanCh:  make(chan SpanData, defaultBufferSize),
		stopCh:  make(chan struct{}),
		totals:  make(map[string]*Totals),
		verbose: verbose,
	}
}

// Verbose reports whether previews are recorded.
func (c *Collector) Verbose() bool { return c.verbose }

// SetExporter attaches an external span exporter.
func (c *Collector) SetExporter(exp SpanExporter) {
	c.mu.Lock()
	c.exporter = exp
	c.mu.Unlock()
}

// Start begins the background flush loop.
func (c *Collector) Start() {
	c.wg.Add(1)
	go c.flushLoop()
	slog.Info("tracing collector started")
}

// Stop flushes remaining spans and shuts the exporter down.
func (c *Collector) Stop() {
	close(c.stopCh)
	c.wg.Wait()

	c.mu.Lock()
	exp := c.exporter
	c.mu.Unlock()
	if exp != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := exp.Shutdown(ctx); err != nil {
			slog.Warn("tracing: span exporter shutdown failed", "error", err)
		}
	}
	slog.Info("tracing collector stopped")
}

// EmitSpan enqueues a span. Non-blocking: drops the span if the buffer is full.
func (c *Collector) EmitSpan(span SpanData) {
	if span.ID == uuid.Nil {
		span.ID = uuid.New()
	}
	if !c.verbose {
		span.InputPreview = ""
		span.OutputPreview = ""
	} else {
		span.InputPreview = truncatePreview(span.InputPreview)
		span.OutputPreview = truncatePreview(span.OutputPreview)
	}

	select {
	case c.spanCh <- span:
	default:
		slog.Warn("tracing: span buffer full, dropping span", "kind", span.Kind, "name", span.Name)
	}
}

// Totals returns a copy of the per-kind counters.
func (c *Collector) Totals() map[string]Totals {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]Totals, len(c.totals))
	for k, v := range c.totals {
		out[k] = *v
	}
	return out
}

func (c *Collector) flushLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(defaultFlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.flush()
		case <-c.stopCh:
			c.flush()
			return
		}
	}
}

func (c *Collector) flush() {
	var spans []SpanData
drain:
	for {
		select {
		case span := <-c.spanCh:
			spans = append(spans, span)
		default:
			break drain
		}
	}
	if len(spans) == 0 {
		return
	}

	c.mu.Lock()
	for _, s := range spans {
		t := c.totals[s.Kind]
		if t == nil {
			t = &Totals{}
			c.totals[s.Kind] = t
		}
		t.Spans++
		t.Tokens += s.InputTokens + s.OutputTokens
		if s.Status == "error" {
			t.Errors++
		}
	}
	exp := c.exporter
	c.mu.Unlock()

	slog.Debug("tracing: flushed spans", "count", len(spans))

	if exp != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		exp.ExportSpans(ctx, spans)
	}
}

// truncatePreview sanitizes and truncates a string to previewMaxLen bytes.
func truncatePreview(s string) string {
	s = strings.ToValidUTF8(s, "")
	if len(s) <= previewMaxLen {
		return s
	}
	maxLen := previewMaxLen
	for maxLen > 0 && !utf8.RuneStart(s[maxLen]) {
		maxLen--
	}
	return s[:maxLen] + "..."
}
