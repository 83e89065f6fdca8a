package voice

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/lang"
	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/tts"
)

const maxDownloadBytes = 32 << 20

// SpeechGenerator is the server-side synthesizer. *tts.Service satisfies it.
type SpeechGenerator interface {
	GenerateSpeech(ctx context.Context, req tts.SpeechRequest) *tts.SpeechResult
}

// Synthesizer produces audio locally. *tts.EdgeProvider satisfies it.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, opts tts.Options) (*tts.SynthResult, error)
}

// ClonedBackend speaks in the selected author's voice via the speech
// service, then plays the returned audio with a player command. It never
// accepts a generic voice; the local backend covers that.
type ClonedBackend struct {
	speech     SpeechGenerator
	player     Command
	authorName func() string
	client     *http.Client
}

// NewClonedBackend creates a ClonedBackend. authorName is read on every
// Start so it follows the live session.
func NewClonedBackend(speech SpeechGenerator, player Command, authorName func() string) *ClonedBackend {
	return &ClonedBackend{speech: speech, player: player, authorName: authorName, client: http.DefaultClient}
}

func (b *ClonedBackend) Name() string { return "cloned" }

func (b *ClonedBackend) Start(ctx context.Context, text, language string) (Playback, error) {
	if b.player.IsZero() {
		return nil, errors.New("no audio player configured")
	}
	author := ""
	if b.authorName != nil {
		author = b.authorName()
	}
	res := b.speech.GenerateSpeech(ctx, tts.SpeechRequest{
		Text:       text,
		Language:   language,
		AuthorName: author,
		ClonedOnly: true,
	})
	if !res.OK() {
		return nil, fmt.Errorf("cloned voice: %s", res.Error)
	}

	audio, err := FetchAudio(ctx, b.client, res.AudioURL)
	if err != nil {
		return nil, err
	}
	if len(audio) == 0 {
		return nil, errors.New("cloned voice returned no audio")
	}
	return playAudio(ctx, b.player, audio, res.Format, language)
}

// FetchAudio returns the bytes behind a speech result URL: a base64 data
// URL or an http(s) link such as a presigned S3 URL.
func FetchAudio(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	if strings.HasPrefix(url, "data:") {
		_, payload, ok := strings.Cut(url, ";base64,")
		if !ok {
			return nil, errors.New("unsupported data url encoding")
		}
		return base64.StdEncoding.DecodeString(payload)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download audio: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download audio: status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxDownloadBytes))
}

// LocalBackend speaks without network voices: either a speak command such
// as `say` or `espeak-ng`, or a local synthesizer feeding the player.
type LocalBackend struct {
	speak  Command
	synth  Synthesizer
	player Command
}

// NewLocalBackend creates a LocalBackend. speak wins when both are set.
func NewLocalBackend(speak Command, synth Synthesizer, player Command) *LocalBackend {
	return &LocalBackend{speak: speak, synth: synth, player: player}
}

func (b *LocalBackend) Name() string { return "local" }

// Available reports whether Start can work at all.
func (b *LocalBackend) Available() bool {
	return !b.speak.IsZero() || (b.synth != nil && !b.player.IsZero())
}

func (b *LocalBackend) Start(ctx context.Context, text, language string) (Playback, error) {
	if !b.speak.IsZero() {
		argv := b.speak.Expand("text", map[string]string{
			"text":  text,
			"lang":  language,
			"voice": lang.LocaleOf(language),
		})
		return startProcess(ctx, argv, nil)
	}
	if b.synth == nil || b.player.IsZero() {
		return nil, ErrNoBackend
	}
	res, err := b.synth.Synthesize(ctx, text, tts.Options{Language: language})
	if err != nil {
		return nil, fmt.Errorf("local synthesis: %w", err)
	}
	return playAudio(ctx, b.player, res.Audio, res.Extension, language)
}

func playAudio(ctx context.Context, player Command, audio []byte, ext, language string) (Playback, error) {
	if ext == "" {
		ext = "mp3"
	}
	path, cleanup, err := writeTemp(audio, ext)
	if err != nil {
		return nil, err
	}
	argv := player.Expand("file", map[string]string{"file": path, "lang": language})
	return startProcess(ctx, argv, cleanup)
}
