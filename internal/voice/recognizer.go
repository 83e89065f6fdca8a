package voice

import (
	"context"
	"errors"
	"strings"

	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/apperr"
)

// ErrNoRecognizer is returned when speech recognition is not configured.
var ErrNoRecognizer = errors.New("speech recognition is not configured")

// Recognizer converts recorded speech into text.
type Recognizer interface {
	Transcribe(ctx context.Context, audio []byte, format, language string) (string, error)
}

// Transcriber is the Whisper call. *providers.OpenAIProvider satisfies it.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, filename, language string) (string, error)
}

// WhisperRecognizer transcribes through an OpenAI-compatible Whisper API.
type WhisperRecognizer struct {
	t Transcriber
}

// NewWhisperRecognizer wraps t. A nil t yields a recognizer that reports
// the capability as missing.
func NewWhisperRecognizer(t Transcriber) *WhisperRecognizer {
	return &WhisperRecognizer{t: t}
}

func (r *WhisperRecognizer) Transcribe(ctx context.Context, audio []byte, format, language string) (string, error) {
	const op = "voice.transcribe"
	if r == nil || r.t == nil {
		return "", apperr.Missing(op, ErrNoRecognizer)
	}
	if len(audio) == 0 {
		return "", apperr.BadRequest(op, errors.New("audio is empty"))
	}
	format = strings.TrimPrefix(strings.ToLower(format), ".")
	if format == "" {
		format = "webm"
	}

	text, err := r.t.Transcribe(ctx, audio, "speech."+format, language)
	if err != nil {
		return "", apperr.Unavailable(op, err)
	}
	return strings.TrimSpace(text), nil
}
