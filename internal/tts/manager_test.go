package tts

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
)

type fakeProvider struct {
	name   string
	cloned bool
	err    error
	calls  int
	opts   Options
}

func (f *fakeProvider) Name() string { return f.name }
func (f *fakeProvider) Cloned() bool { return f.cloned }

func (f *fakeProvider) Synthesize(_ context.Context, text string, opts Options) (*SynthResult, error) {
	f.calls++
	f.opts = opts
	if f.err != nil {
		return nil, f.err
	}
	return &SynthResult{Audio: []byte(text), Extension: "mp3", MimeType: "audio/mpeg"}, nil
}

func TestSynthesizeSkipsClonedWithoutAuthor(t *testing.T) {
	cloned := &fakeProvider{name: "sovits", cloned: true}
	local := &fakeProvider{name: "edge"}
	m := NewManager(ManagerConfig{})
	m.RegisterProvider(cloned)
	m.RegisterProvider(local)

	res, err := m.SynthesizeWithFallback(context.Background(), "hello", Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Provider != "edge" || cloned.calls != 0 {
		t.Errorf("cloned voice should be skipped, got provider %q, cloned calls %d", res.Provider, cloned.calls)
	}

	res, err = m.SynthesizeWithFallback(context.Background(), "hello", Options{AuthorName: "Ada"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Provider != "sovits" {
		t.Errorf("expected cloned voice with author, got %q", res.Provider)
	}
}

func TestSynthesizeFallsBackInOrder(t *testing.T) {
	first := &fakeProvider{name: "elevenlabs", cloned: true, err: ErrNoVoice}
	second := &fakeProvider{name: "openai", err: errors.New("429")}
	third := &fakeProvider{name: "edge"}
	m := NewManager(ManagerConfig{})
	for _, p := range []Provider{first, second, third} {
		m.RegisterProvider(p)
	}
	if got := m.Names(); !reflect.DeepEqual(got, []string{"elevenlabs", "openai", "edge"}) {
		t.Errorf("unexpected order %v", got)
	}

	res, err := m.SynthesizeWithFallback(context.Background(), "hi", Options{AuthorName: "Ada"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Provider != "edge" || first.calls != 1 || second.calls != 1 {
		t.Errorf("unexpected fallback path: %q %d %d", res.Provider, first.calls, second.calls)
	}
}

func TestSynthesizeAllFail(t *testing.T) {
	m := NewManager(ManagerConfig{})
	if _, err := m.SynthesizeWithFallback(context.Background(), "hi", Options{}); !errors.Is(err, ErrNoProvider) {
		t.Errorf("expected ErrNoProvider, got %v", err)
	}
	boom := errors.New("boom")
	m.RegisterProvider(&fakeProvider{name: "openai", err: boom})
	if _, err := m.SynthesizeWithFallback(context.Background(), "hi", Options{}); !errors.Is(err, boom) {
		t.Errorf("expected wrapped provider error, got %v", err)
	}
}

func TestRegisterProviderReplaces(t *testing.T) {
	m := NewManager(ManagerConfig{})
	m.RegisterProvider(&fakeProvider{name: "edge"})
	replacement := &fakeProvider{name: "edge"}
	m.RegisterProvider(replacement)
	if len(m.Names()) != 1 {
		t.Fatalf("expected one provider, got %v", m.Names())
	}
	if p, _ := m.GetProvider("edge"); p != replacement {
		t.Error("expected replacement provider")
	}
}

func TestPrepareText(t *testing.T) {
	m := NewManager(ManagerConfig{MaxLength: 10})
	if got := m.PrepareText("**Bold** and [link](http://x)"); got != "Bold and l" {
		t.Errorf("unexpected text %q", got)
	}
	m = NewManager(ManagerConfig{MaxLength: 4})
	if got := m.PrepareText("héllo"); got != "hél" {
		t.Errorf("truncation split a rune: %q", got)
	}
}

func TestStripMarkdown(t *testing.T) {
	in := "# Title\n- item one\nUse `go test` and *care*, keep snake_case_names.\n```\ncode\n```"
	got := strings.TrimSpace(stripMarkdown(in))
	want := "Title\nitem one\nUse go test and care, keep snake_case_names."
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestSynthesizeClonedOnly(t *testing.T) {
	cloned := &fakeProvider{name: "sovits", cloned: true, err: ErrNoVoice}
	generic := &fakeProvider{name: "openai"}
	m := NewManager(ManagerConfig{})
	m.RegisterProvider(cloned)
	m.RegisterProvider(generic)

	if _, err := m.SynthesizeWithFallback(context.Background(), "hi", Options{AuthorName: "Ada", ClonedOnly: true}); !errors.Is(err, ErrNoVoice) {
		t.Errorf("expected cloned failure, got %v", err)
	}
	if generic.calls != 0 {
		t.Errorf("generic voice used for a cloned-only request: %d calls", generic.calls)
	}

	if _, err := m.SynthesizeWithFallback(context.Background(), "hi", Options{ClonedOnly: true}); !errors.Is(err, ErrNoProvider) {
		t.Errorf("expected ErrNoProvider without an author, got %v", err)
	}
}
