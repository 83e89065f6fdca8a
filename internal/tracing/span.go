package tracing

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type contextKey string

const (
	collectorKey contextKey = "explainer_tracing_collector"
	traceIDKey   contextKey = "explainer_trace_id"
)

// WithCollector returns a context carrying the collector.
func WithCollector(ctx context.Context, c *Collector) context.Context {
	return context.WithValue(ctx, collectorKey, c)
}

// CollectorFromContext returns the collector in ctx, or nil.
func CollectorFromContext(ctx context.Context) *Collector {
	c, _ := ctx.Value(collectorKey).(*Collector)
	return c
}

// WithTraceID returns a context carrying the trace ID for one user action.
func WithTraceID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, traceIDKey, id)
}

// TraceIDFromContext extracts the trace ID. Returns uuid.Nil if not set.
func TraceIDFromContext(ctx context.Context) uuid.UUID {
	if v, ok := ctx.Value(traceIDKey).(uuid.UUID); ok {
		return v
	}
	return uuid.Nil
}

// Span records one outbound call. All methods are safe on spans started
// without a collector; End is then a no-op.
type Span struct {
	c    *Collector
	data SpanData
}

// Start opens a span of the given kind under the trace in ctx.
func Start(ctx context.Context, kind, name string) *Span {
	traceID := TraceIDFromContext(ctx)
	if traceID == uuid.Nil {
		traceID = uuid.New()
	}
	return &Span{
		c: CollectorFromContext(ctx),
		data: SpanData{
			TraceID:   traceID,
			Kind:      kind,
			Name:      name,
			StartTime: time.Now().UTC(),
		},
	}
}

// SetModel records the provider and model serving the call.
func (s *Span) SetModel(provider, model string) {
	s.data.Provider = provider
	s.data.Model = model
}

// SetTokens records token usage.
func (s *Span) SetTokens(in, out int) {
	s.data.InputTokens = in
	s.data.OutputTokens = out
}

// SetInput records an input preview (kept only in verbose mode).
func (s *Span) SetInput(preview string) { s.data.InputPreview = preview }

// SetOutput records an output preview (kept only in verbose mode).
func (s *Span) SetOutput(preview string) { s.data.OutputPreview = preview }

// End finishes the span and hands it to the collector.
func (s *Span) End(err error) {
	s.data.EndTime = time.Now().UTC()
	s.data.DurationMS = int(s.data.EndTime.Sub(s.data.StartTime).Milliseconds())
	s.data.Status = "ok"
	if err != nil {
		s.data.Status = "error"
		s.data.Error = err.Error()
	}
	if s.c != nil {
		s.c.EmitSpan(s.data)
	}
}
