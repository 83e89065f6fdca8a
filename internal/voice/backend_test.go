package voice

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/apperr"
	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/tts"
)

func TestCommandExpand(t *testing.T) {
	c, err := ParseCommand(`ffplay -nodisp -autoexit -loglevel quiet`)
	if err != nil {
		t.Fatal(err)
	}
	got := c.Expand("file", map[string]string{"file": "/tmp/a b.mp3"})
	want := []string{"ffplay", "-nodisp", "-autoexit", "-loglevel", "quiet", "/tmp/a b.mp3"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}

	c, _ = ParseCommand(`espeak-ng -v {lang} "{text}"`)
	got = c.Expand("text", map[string]string{"text": "hello there", "lang": "fr"})
	want = []string{"espeak-ng", "-v", "fr", "hello there"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}

	if _, err := ParseCommand("   "); err == nil {
		t.Error("expected error for empty command")
	}
	var zero Command
	if !zero.IsZero() || zero.Available() {
		t.Error("zero command should be unavailable")
	}
}

type fakeSpeech struct {
	res *tts.SpeechResult
	req tts.SpeechRequest
}

func (f *fakeSpeech) GenerateSpeech(_ context.Context, req tts.SpeechRequest) *tts.SpeechResult {
	f.req = req
	return f.res
}

func TestClonedBackendErrorResult(t *testing.T) {
	speech := &fakeSpeech{res: &tts.SpeechResult{Error: "sovits down", Fallback: tts.FallbackLocal}}
	player, _ := ParseCommand("afplay")
	b := NewClonedBackend(speech, player, func() string { return "Ada" })

	if _, err := b.Start(context.Background(), "hi", "en"); err == nil {
		t.Fatal("expected error from failed synthesis")
	}
	if speech.req.AuthorName != "Ada" || speech.req.Text != "hi" || !speech.req.ClonedOnly {
		t.Errorf("unexpected request %+v", speech.req)
	}
}

type stubSynth struct {
	name   string
	cloned bool
	err    error
	calls  int
}

func (s *stubSynth) Name() string { return s.name }
func (s *stubSynth) Cloned() bool { return s.cloned }

func (s *stubSynth) Synthesize(_ context.Context, text string, _ tts.Options) (*tts.SynthResult, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &tts.SynthResult{Audio: []byte(text), Extension: "mp3", MimeType: "audio/mpeg"}, nil
}

func TestClonedBackendRejectsGenericVoice(t *testing.T) {
	m := tts.NewManager(tts.ManagerConfig{})
	cloned := &stubSynth{name: "sovits", cloned: true, err: tts.ErrNoVoice}
	generic := &stubSynth{name: "openai"}
	m.RegisterProvider(cloned)
	m.RegisterProvider(generic)

	player, _ := ParseCommand("afplay")
	b := NewClonedBackend(tts.NewService(m, nil), player, func() string { return "Ada" })

	if _, err := b.Start(context.Background(), "hi", "en"); err == nil {
		t.Fatal("expected error when only a generic voice could speak")
	}
	if cloned.calls != 1 || generic.calls != 0 {
		t.Errorf("calls: cloned=%d generic=%d", cloned.calls, generic.calls)
	}
}

func TestClonedBackendNoPlayer(t *testing.T) {
	b := NewClonedBackend(&fakeSpeech{}, Command{}, nil)
	if _, err := b.Start(context.Background(), "hi", "en"); err == nil {
		t.Error("expected error without a player")
	}
}

func TestFetchAudioDataURL(t *testing.T) {
	audio, err := FetchAudio(context.Background(), nil, "data:audio/wav;base64,UklGRg==")
	if err != nil {
		t.Fatal(err)
	}
	if string(audio) != "RIFF" {
		t.Errorf("unexpected audio %q", audio)
	}
}

func TestLocalBackendUnavailable(t *testing.T) {
	b := NewLocalBackend(Command{}, nil, Command{})
	if b.Available() {
		t.Error("backend without commands should be unavailable")
	}
	if _, err := b.Start(context.Background(), "hi", "en"); !errors.Is(err, ErrNoBackend) {
		t.Errorf("expected ErrNoBackend, got %v", err)
	}
}

type fakeTranscriber struct {
	filename string
	text     string
	err      error
}

func (f *fakeTranscriber) Transcribe(_ context.Context, _ []byte, filename, _ string) (string, error) {
	f.filename = filename
	return f.text, f.err
}

func TestWhisperRecognizer(t *testing.T) {
	ft := &fakeTranscriber{text: "  what is a truss?  "}
	r := NewWhisperRecognizer(ft)
	text, err := r.Transcribe(context.Background(), []byte{1, 2}, ".OGG", "en")
	if err != nil {
		t.Fatal(err)
	}
	if text != "what is a truss?" || ft.filename != "speech.ogg" {
		t.Errorf("unexpected result %q %q", text, ft.filename)
	}

	tests := []struct {
		name string
		r    *WhisperRecognizer
		data []byte
		kind apperr.Kind
	}{
		{"not configured", NewWhisperRecognizer(nil), []byte{1}, apperr.KindLocalCapabilityMissing},
		{"empty audio", r, nil, apperr.KindBadRequest},
		{"upstream", NewWhisperRecognizer(&fakeTranscriber{err: errors.New("500")}), []byte{1}, apperr.KindUpstreamUnavailable},
	}
	for _, tt := range tests {
		_, err := tt.r.Transcribe(context.Background(), tt.data, "webm", "en")
		if got := apperr.KindOf(err); got != tt.kind {
			t.Errorf("%s: expected %s, got %s", tt.name, tt.kind, got)
		}
	}
}
