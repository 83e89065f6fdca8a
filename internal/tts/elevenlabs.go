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

// ElevenLabsProvider speaks with voices cloned in an ElevenLabs account.
// Authors are mapped to voice IDs in configuration.
type ElevenLabsProvider struct {
	apiKey  string
	baseURL string
	voices  map[string]string // author name -> voice ID
	modelID string
	client  *http.Client
}

// ElevenLabsConfig configures the ElevenLabs TTS provider.
type ElevenLabsConfig struct {
	APIKey    string
	BaseURL   string
	Voices    map[string]string
	ModelID   string
	TimeoutMs int
}

// NewElevenLabsProvider creates an ElevenLabs TTS provider.
func NewElevenLabsProvider(cfg ElevenLabsConfig) *ElevenLabsProvider {
	p := &ElevenLabsProvider{
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		voices:  cfg.Voices,
		modelID: cfg.ModelID,
	}
	if p.baseURL == "" {
		p.baseURL = "https://api.elevenlabs.io"
	}
	if p.modelID == "" {
		p.modelID = "eleven_multilingual_v2"
	}
	timeout := cfg.TimeoutMs
	if timeout <= 0 {
		timeout = 30000
	}
	p.client = &http.Client{Timeout: time.Duration(timeout) * time.Millisecond}
	return p
}

func (p *ElevenLabsProvider) Name() string { return "elevenlabs" }
func (p *ElevenLabsProvider) Cloned() bool { return true }

type elevenLabsRequest struct {
	Text          string             `json:"text"`
	ModelID       string             `json:"model_id"`
	LanguageCode  string             `json:"language_code,omitempty"`
	VoiceSettings elevenLabsSettings `json:"voice_settings"`
}

type elevenLabsSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
	UseSpeakerBoost bool    `json:"use_speaker_boost"`
}

// Synthesize calls POST {baseURL}/v1/text-to-speech/{voiceID}.
func (p *ElevenLabsProvider) Synthesize(ctx context.Context, text string, opts Options) (*SynthResult, error) {
	voiceID := opts.Voice
	if voiceID == "" {
		voiceID = p.voices[opts.AuthorName]
	}
	if voiceID == "" {
		return nil, fmt.Errorf("elevenlabs %q: %w", opts.AuthorName, ErrNoVoice)
	}
	modelID := opts.Model
	if modelID == "" {
		modelID = p.modelID
	}

	outputFormat, ext, mime := "mp3_44100_128", "mp3", "audio/mpeg"
	if opts.Format == "opus" {
		outputFormat, ext, mime = "opus_48000_64", "ogg", "audio/ogg"
	}

	body, err := sonic.Marshal(elevenLabsRequest{
		Text:         text,
		ModelID:      modelID,
		LanguageCode: opts.Language,
		VoiceSettings: elevenLabsSettings{
			Stability:       0.5,
			SimilarityBoost: 0.75,
			UseSpeakerBoost: true,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal elevenlabs tts request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/text-to-speech/%s?output_format=%s", p.baseURL, voiceID, outputFormat)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create elevenlabs tts request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs tts request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("elevenlabs tts error %d: %s", resp.StatusCode, string(errBody))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read elevenlabs tts response: %w", err)
	}
	return &SynthResult{Audio: audio, Extension: ext, MimeType: mime}, nil
}
