// Package tts turns explanation text into audio.
//
// Providers: GPT-SoVITS and ElevenLabs (cloned voices), OpenAI and Edge.
// Cloned-voice providers are only used when an author is selected.
package tts

import (
	"context"
	"errors"
)

// ErrNoVoice is returned by a cloned-voice provider that has no voice for
// the requested author.
var ErrNoVoice = errors.New("no cloned voice for author")

// Provider synthesizes text into audio bytes.
type Provider interface {
	Name() string
	Synthesize(ctx context.Context, text string, opts Options) (*SynthResult, error)
}

// Cloner is implemented by providers that speak in a specific person's voice.
type Cloner interface {
	Provider
	Cloned() bool
}

// Options controls synthesis parameters.
type Options struct {
	Voice             string // provider-specific voice ID
	Model             string // provider-specific model ID
	Format            string // "mp3" (default), "wav", "opus"
	Language          string // ISO 639-1 code
	AuthorName        string
	ReferenceAudioURL string // cloned voices only
	ClonedOnly        bool   // skip providers that do not clone a voice
}

// SynthResult is the output of a TTS synthesis.
type SynthResult struct {
	Audio     []byte
	Extension string // without dot: "mp3", "wav", "ogg"
	MimeType  string
	Provider  string
}

// IsCloned reports whether p speaks in a cloned voice.
func IsCloned(p Provider) bool {
	c, ok := p.(Cloner)
	return ok && c.Cloned()
}
