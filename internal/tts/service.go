package tts

import (
	"context"
	"log/slog"
	"strings"
)

// SpeechRequest asks for speech of one explanation.
type SpeechRequest struct {
	Text              string `json:"text"`
	Language          string `json:"language,omitempty"`
	AuthorName        string `json:"authorName,omitempty"`
	ReferenceAudioURL string `json:"referenceAudioUrl,omitempty"`
	ClonedOnly        bool   `json:"clonedOnly,omitempty"`
}

// SpeechResult is either playable audio or a reason to fall back to local
// speech. Exactly one of AudioURL or Error is set.
type SpeechResult struct {
	AudioURL string `json:"audioUrl,omitempty"`
	Format   string `json:"format,omitempty"`
	Method   string `json:"method,omitempty"`

	Error    string `json:"error,omitempty"`
	Fallback string `json:"fallback,omitempty"`
	Message  string `json:"message,omitempty"`
}

// OK reports whether audio was produced.
func (r *SpeechResult) OK() bool { return r.AudioURL != "" }

// FallbackLocal is the fallback hint on failure results.
const FallbackLocal = "local"

// Service produces speech for callers that must always get an answer.
type Service struct {
	manager *Manager
	store   AudioStore
}

// NewService creates a Service. A nil store inlines audio as data URLs.
func NewService(m *Manager, store AudioStore) *Service {
	if store == nil {
		store = DataURLStore{}
	}
	return &Service{manager: m, store: store}
}

// Manager returns the provider manager.
func (s *Service) Manager() *Manager { return s.manager }

// GenerateSpeech never fails: provider errors are reported in the result so
// the caller can switch to local speech.
func (s *Service) GenerateSpeech(ctx context.Context, req SpeechRequest) *SpeechResult {
	text := s.manager.PrepareText(req.Text)
	if text == "" {
		return failure("empty text", "Nothing to speak.")
	}

	result, err := s.manager.SynthesizeWithFallback(ctx, text, Options{
		Language:          req.Language,
		AuthorName:        strings.TrimSpace(req.AuthorName),
		ReferenceAudioURL: req.ReferenceAudioURL,
		ClonedOnly:        req.ClonedOnly,
	})
	if err != nil {
		slog.Warn("tts.generate_failed", "author", req.AuthorName, "error", err)
		return failure(err.Error(), "Voice synthesis unavailable, using local speech.")
	}

	url, err := s.store.Put(ctx, result)
	if err != nil {
		slog.Warn("tts.store_failed", "provider", result.Provider, "error", err)
		return failure(err.Error(), "Could not deliver synthesized audio, using local speech.")
	}

	return &SpeechResult{AudioURL: url, Format: result.Extension, Method: result.Provider}
}

func failure(errText, message string) *SpeechResult {
	return &SpeechResult{Error: errText, Fallback: FallbackLocal, Message: message}
}
