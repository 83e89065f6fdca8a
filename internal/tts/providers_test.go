package tts

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
)

func TestSoVITSSynthesize(t *testing.T) {
	var got sovitsRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tts" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		if err := sonic.Unmarshal(body, &got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.Header().Set("Content-Type", "audio/wav")
		w.Write([]byte("RIFF"))
	}))
	defer srv.Close()

	p := NewSoVITSProvider(SoVITSConfig{
		BaseURL:    srv.URL,
		References: map[string]Reference{"Ada": {AudioPath: "/refs/ada.wav", PromptText: "hello", PromptLang: "en"}},
	})
	res, err := p.Synthesize(context.Background(), "hola", Options{AuthorName: "Ada", Language: "es"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Extension != "wav" || string(res.Audio) != "RIFF" {
		t.Errorf("unexpected result %+v", res)
	}
	if got.RefAudioPath != "/refs/ada.wav" || got.TextLang != "auto" || got.PromptLang != "en" || got.MediaType != "wav" {
		t.Errorf("unexpected request %+v", got)
	}
}

func TestSoVITSNoReference(t *testing.T) {
	p := NewSoVITSProvider(SoVITSConfig{BaseURL: "http://127.0.0.1:1"})
	if _, err := p.Synthesize(context.Background(), "hi", Options{AuthorName: "Nobody"}); !errors.Is(err, ErrNoVoice) {
		t.Errorf("expected ErrNoVoice, got %v", err)
	}
}

func TestElevenLabsVoiceMap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/v1/text-to-speech/voice-ada") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("xi-api-key") != "k" {
			t.Error("missing api key header")
		}
		w.Write([]byte("ID3"))
	}))
	defer srv.Close()

	p := NewElevenLabsProvider(ElevenLabsConfig{APIKey: "k", BaseURL: srv.URL, Voices: map[string]string{"Ada": "voice-ada"}})
	if _, err := p.Synthesize(context.Background(), "hi", Options{AuthorName: "Ada"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := p.Synthesize(context.Background(), "hi", Options{AuthorName: "Bob"}); !errors.Is(err, ErrNoVoice) {
		t.Errorf("expected ErrNoVoice, got %v", err)
	}
}

func TestOpenAISpeechError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p := NewOpenAIProvider(OpenAIConfig{APIKey: "k", APIBase: srv.URL})
	if _, err := p.Synthesize(context.Background(), "hi", Options{}); err == nil || !strings.Contains(err.Error(), "429") {
		t.Errorf("expected status in error, got %v", err)
	}
}

func TestEdgeArgs(t *testing.T) {
	p, err := NewEdgeProvider(EdgeConfig{ExtraArgs: `--proxy "http://proxy:3128"`, Rate: "+10%"})
	if err != nil {
		t.Fatal(err)
	}
	args := p.Args("bonjour", "fr", "/tmp/out.mp3")
	joined := strings.Join(args, " ")
	for _, want := range []string{"--proxy http://proxy:3128", "--voice fr-FR-DeniseNeural", "--write-media /tmp/out.mp3", "--rate +10%"} {
		if !strings.Contains(joined, want) {
			t.Errorf("args %q missing %q", joined, want)
		}
	}
	if p.VoiceFor("xx") != "en-US-AriaNeural" {
		t.Errorf("unexpected fallback voice %q", p.VoiceFor("xx"))
	}
	if _, err := NewEdgeProvider(EdgeConfig{ExtraArgs: `--proxy "unterminated`}); err == nil {
		t.Error("expected parse error")
	}
}
