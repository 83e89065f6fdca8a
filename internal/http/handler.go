// Package http serves the explainer's stateless operations as a JSON API.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/apperr"
	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/article"
	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/author"
	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/explain"
	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/tts"
	"github.com/shivaam-bhati/Conversational-Article-Explainer/pkg/protocol"
)

const (
	defaultMaxBodyBytes = 1 << 20
	maxAudioBytes       = 25 << 20 // Whisper upload limit
)

// Backend is every operation the API exposes. *app.App satisfies it.
type Backend interface {
	ParseArticle(ctx context.Context, req article.ParseRequest) (*article.ParseResult, error)
	Explain(ctx context.Context, req explain.Request) (*explain.Result, error)
	GetAuthorStyle(ctx context.Context, name string, useLLMKnowledge bool) (*author.StyleResult, error)
	AnalyzeAuthorStyle(ctx context.Context, req author.AnalyzeRequest) (*author.AnalyzeResult, error)
	SearchAuthorContent(ctx context.Context, name string) (*author.SearchResult, error)
	GenerateSpeech(ctx context.Context, req tts.SpeechRequest) *tts.SpeechResult
	Transcribe(ctx context.Context, audio []byte, format, language string) (string, error)
}

// Handler serves the /v1 API.
type Handler struct {
	backend     Backend
	token       string            // expected bearer token (empty = no auth)
	rateLimiter func(string) bool // key → allowed (nil = no limit)
	maxBody     int64
}

// NewHandler creates the API handler. maxBody <= 0 uses 1 MiB.
func NewHandler(backend Backend, token string, maxBody int64) *Handler {
	if maxBody <= 0 {
		maxBody = defaultMaxBodyBytes
	}
	return &Handler{backend: backend, token: token, maxBody: maxBody}
}

// SetRateLimiter sets the rate limiter function for HTTP requests.
func (h *Handler) SetRateLimiter(fn func(string) bool) {
	h.rateLimiter = fn
}

// RegisterRoutes registers every route on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", handleHealth)

	mux.HandleFunc("POST /v1/article/parse", h.middleware(h.maxBody, h.handleParseArticle))
	mux.HandleFunc("POST /v1/explanation/explain", h.middleware(h.maxBody, h.handleExplain))
	mux.HandleFunc("POST /v1/author/style", h.middleware(h.maxBody, h.handleAuthorStyle))
	mux.HandleFunc("POST /v1/author/analyze", h.middleware(h.maxBody, h.handleAuthorAnalyze))
	mux.HandleFunc("POST /v1/author/search", h.middleware(h.maxBody, h.handleAuthorSearch))
	mux.HandleFunc("POST /v1/tts/speech", h.middleware(h.maxBody, h.handleSpeech))
	mux.HandleFunc("POST /v1/voice/classify", h.middleware(h.maxBody, h.handleClassify))
	mux.HandleFunc("POST /v1/voice/transcribe", h.middleware(maxAudioBytes, h.handleTranscribe))
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("OK"))
}

// decode reads a JSON body into v, writing a 400 on failure.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeErrorCode(w, http.StatusRequestEntityTooLarge, protocol.ErrBadRequest, "Request body too large")
			return false
		}
		writeErrorCode(w, http.StatusBadRequest, protocol.ErrBadRequest, "Invalid JSON body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps a classified error onto a status and error body.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		slog.Warn("request failed", "path", r.URL.Path, "status", status, "error", err)
	}
	writeErrorCode(w, status, apperr.Code(err), apperr.UserMessage(err))
}

func writeErrorCode(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
