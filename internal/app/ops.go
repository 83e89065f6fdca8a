package app

import (
	"context"

	"github.com/google/uuid"

	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/article"
	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/author"
	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/explain"
	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/tracing"
	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/tts"
)

// The methods below are the public operations every transport exposes. They
// resolve the current services on each call so a reload applies to the next
// request, including requests from already-running sessions.

// traced attaches the collector and, for a new user action, a trace ID so
// provider spans land in the same trace.
func (a *App) traced(ctx context.Context) context.Context {
	if tracing.CollectorFromContext(ctx) == nil {
		ctx = tracing.WithCollector(ctx, a.collector)
	}
	if tracing.TraceIDFromContext(ctx) == uuid.Nil {
		ctx = tracing.WithTraceID(ctx, uuid.New())
	}
	return ctx
}

func (a *App) ParseArticle(ctx context.Context, req article.ParseRequest) (*article.ParseResult, error) {
	return a.Extractor().Parse(a.traced(ctx), req)
}

func (a *App) Explain(ctx context.Context, req explain.Request) (*explain.Result, error) {
	return a.Explainer().Explain(a.traced(ctx), req)
}

func (a *App) GetAuthorStyle(ctx context.Context, name string, useLLMKnowledge bool) (*author.StyleResult, error) {
	return a.Authors().GetAuthorStyle(a.traced(ctx), name, useLLMKnowledge)
}

func (a *App) AnalyzeAuthorStyle(ctx context.Context, req author.AnalyzeRequest) (*author.AnalyzeResult, error) {
	return a.Authors().AnalyzeAuthorStyle(a.traced(ctx), req)
}

func (a *App) SearchAuthorContent(ctx context.Context, name string) (*author.SearchResult, error) {
	return a.Authors().SearchAuthorContent(a.traced(ctx), name)
}

func (a *App) GenerateSpeech(ctx context.Context, req tts.SpeechRequest) *tts.SpeechResult {
	return a.Speech().GenerateSpeech(a.traced(ctx), req)
}

func (a *App) Transcribe(ctx context.Context, audio []byte, format, language string) (string, error) {
	return a.Recognizer().Transcribe(a.traced(ctx), audio, format, language)
}
