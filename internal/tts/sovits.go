package tts

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
)

// SoVITSProvider speaks through a GPT-SoVITS inference server (api_v2).
// Each author needs a reference clip; the clip's transcript improves
// prosody but is optional.
type SoVITSProvider struct {
	baseURL    string
	references map[string]Reference // keyed by author name
	client     *http.Client
}

// Reference is the voice sample a clone is conditioned on.
type Reference struct {
	AudioPath  string `json:"audioPath" yaml:"audioPath"` // path or URL readable by the server
	PromptText string `json:"promptText,omitempty" yaml:"promptText,omitempty"`
	PromptLang string `json:"promptLang,omitempty" yaml:"promptLang,omitempty"`
}

// SoVITSConfig configures the GPT-SoVITS provider.
type SoVITSConfig struct {
	BaseURL    string
	References map[string]Reference
	TimeoutMs  int
}

// NewSoVITSProvider creates a GPT-SoVITS provider.
func NewSoVITSProvider(cfg SoVITSConfig) *SoVITSProvider {
	timeout := cfg.TimeoutMs
	if timeout <= 0 {
		timeout = 60000
	}
	base := cfg.BaseURL
	if base == "" {
		base = "http://127.0.0.1:9880"
	}
	return &SoVITSProvider{
		baseURL:    base,
		references: cfg.References,
		client:     &http.Client{Timeout: time.Duration(timeout) * time.Millisecond},
	}
}

func (p *SoVITSProvider) Name() string { return "sovits" }
func (p *SoVITSProvider) Cloned() bool { return true }

type sovitsRequest struct {
	Text          string `json:"text"`
	TextLang      string `json:"text_lang"`
	RefAudioPath  string `json:"ref_audio_path"`
	PromptText    string `json:"prompt_text,omitempty"`
	PromptLang    string `json:"prompt_lang"`
	MediaType     string `json:"media_type"`
	StreamingMode bool   `json:"streaming_mode"`
}

// Synthesize posts to {baseURL}/tts and returns the WAV body. An explicit
// reference URL wins over the configured per-author clip.
func (p *SoVITSProvider) Synthesize(ctx context.Context, text string, opts Options) (*SynthResult, error) {
	ref, ok := p.references[opts.AuthorName]
	if opts.ReferenceAudioURL != "" {
		ref = Reference{AudioPath: opts.ReferenceAudioURL}
		ok = true
	}
	if !ok || ref.AudioPath == "" {
		return nil, fmt.Errorf("sovits %q: %w", opts.AuthorName, ErrNoVoice)
	}

	textLang := sovitsLang(opts.Language)
	promptLang := textLang
	if ref.PromptLang != "" {
		promptLang = sovitsLang(ref.PromptLang)
	}

	body, err := sonic.Marshal(sovitsRequest{
		Text:         text,
		TextLang:     textLang,
		RefAudioPath: ref.AudioPath,
		PromptText:   ref.PromptText,
		PromptLang:   promptLang,
		MediaType:    "wav",
	})
	if err != nil {
		return nil, fmt.Errorf("marshal sovits request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/tts", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create sovits request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sovits request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("sovits error %d: %s", resp.StatusCode, string(errBody))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read sovits response: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("sovits returned no audio")
	}
	return &SynthResult{Audio: audio, Extension: "wav", MimeType: "audio/wav"}, nil
}

// sovitsLang maps ISO codes onto GPT-SoVITS text_lang values. Languages
// without a dedicated frontend use "auto".
func sovitsLang(code string) string {
	switch code {
	case "zh", "ja", "en":
		return code
	case "":
		return "en"
	default:
		return "auto"
	}
}
