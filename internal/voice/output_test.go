package voice

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/apperr"
)

type fakePlayback struct {
	done    chan error
	paused  atomic.Bool
	stopped atomic.Bool
}

func newFakePlayback() *fakePlayback { return &fakePlayback{done: make(chan error, 1)} }

func (p *fakePlayback) Pause() error  { p.paused.Store(true); return nil }
func (p *fakePlayback) Resume() error { p.paused.Store(false); return nil }
func (p *fakePlayback) Stop() error {
	if p.stopped.CompareAndSwap(false, true) {
		p.done <- nil
	}
	return nil
}
func (p *fakePlayback) Done() <-chan error { return p.done }
func (p *fakePlayback) finish(err error)   { p.done <- err }

type fakeBackend struct {
	name     string
	startErr error

	mu    sync.Mutex
	texts []string
	pbs   []*fakePlayback
}

func (b *fakeBackend) Name() string { return b.name }

func (b *fakeBackend) Start(_ context.Context, text, _ string) (Playback, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.texts = append(b.texts, text)
	if b.startErr != nil {
		return nil, b.startErr
	}
	pb := newFakePlayback()
	b.pbs = append(b.pbs, pb)
	return pb, nil
}

func (b *fakeBackend) last(t *testing.T) *fakePlayback {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.pbs) == 0 {
		t.Fatalf("%s: no playback started", b.name)
	}
	return b.pbs[len(b.pbs)-1]
}

func (b *fakeBackend) startCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.texts)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestSpeakLocalCompletes(t *testing.T) {
	local := &fakeBackend{name: "local"}
	cloned := &fakeBackend{name: "cloned"}
	o := NewOutput(local, WithClonedBackend(cloned))

	var completed atomic.Int32
	if err := o.Speak(context.Background(), "hi", "en", false, func() { completed.Add(1) }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.State() != StateSpeaking {
		t.Errorf("expected speaking, got %s", o.State())
	}
	if cloned.startCount() != 0 {
		t.Error("cloned backend should not be used without a style")
	}

	local.last(t).finish(nil)
	waitFor(t, func() bool { return completed.Load() == 1 })
	waitFor(t, func() bool { return o.State() == StateIdle })
}

func TestSpeakClonedStartFailureFallsBack(t *testing.T) {
	local := &fakeBackend{name: "local"}
	cloned := &fakeBackend{name: "cloned", startErr: errors.New("{error: synthesis failed}")}
	o := NewOutput(local, WithClonedBackend(cloned))

	var completed atomic.Int32
	if err := o.Speak(context.Background(), "same text", "en", true, func() { completed.Add(1) }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cloned.startCount() != 1 || local.startCount() != 1 {
		t.Fatalf("expected cloned then local, got %d/%d", cloned.startCount(), local.startCount())
	}
	if local.texts[0] != "same text" {
		t.Errorf("fallback used different text %q", local.texts[0])
	}
	local.last(t).finish(nil)
	waitFor(t, func() bool { return completed.Load() == 1 })
	time.Sleep(20 * time.Millisecond)
	if completed.Load() != 1 {
		t.Errorf("onComplete fired %d times", completed.Load())
	}
}

func TestSpeakClonedPlaybackErrorFallsBack(t *testing.T) {
	local := &fakeBackend{name: "local"}
	cloned := &fakeBackend{name: "cloned"}
	o := NewOutput(local, WithClonedBackend(cloned))

	var completed atomic.Int32
	if err := o.Speak(context.Background(), "text", "en", true, func() { completed.Add(1) }); err != nil {
		t.Fatal(err)
	}
	cloned.last(t).finish(errors.New("decode error"))
	waitFor(t, func() bool { return local.startCount() == 1 })
	if o.State() != StateSpeaking {
		t.Errorf("expected speaking during fallback, got %s", o.State())
	}
	local.last(t).finish(nil)
	waitFor(t, func() bool { return completed.Load() == 1 })
}

func TestStopSuppressesCompletion(t *testing.T) {
	local := &fakeBackend{name: "local"}
	var states []State
	var mu sync.Mutex
	o := NewOutput(local, WithStateListener(func(s State) {
		mu.Lock()
		states = append(states, s)
		mu.Unlock()
	}))

	var completed atomic.Int32
	if err := o.Speak(context.Background(), "text", "en", false, func() { completed.Add(1) }); err != nil {
		t.Fatal(err)
	}
	o.Stop()
	if o.State() != StateIdle {
		t.Errorf("expected idle, got %s", o.State())
	}
	if !local.last(t).stopped.Load() {
		t.Error("playback should be stopped")
	}
	time.Sleep(20 * time.Millisecond)
	if completed.Load() != 0 {
		t.Error("onComplete should not fire after Stop")
	}
	mu.Lock()
	defer mu.Unlock()
	if len(states) != 2 || states[0] != StateSpeaking || states[1] != StateIdle {
		t.Errorf("unexpected transitions %v", states)
	}
}

func TestPauseResume(t *testing.T) {
	local := &fakeBackend{name: "local"}
	o := NewOutput(local)

	if err := o.Pause(); err != nil || o.State() != StateIdle {
		t.Fatalf("pause while idle should be a no-op: %v %s", err, o.State())
	}
	if err := o.Speak(context.Background(), "text", "en", false, nil); err != nil {
		t.Fatal(err)
	}
	if err := o.Pause(); err != nil {
		t.Fatal(err)
	}
	if o.State() != StatePaused || !local.last(t).paused.Load() {
		t.Errorf("expected paused, got %s", o.State())
	}
	if err := o.Resume(); err != nil {
		t.Fatal(err)
	}
	if o.State() != StateSpeaking || local.last(t).paused.Load() {
		t.Errorf("expected speaking, got %s", o.State())
	}
}

func TestSpeakReplacesCurrent(t *testing.T) {
	local := &fakeBackend{name: "local"}
	o := NewOutput(local)

	var first, second atomic.Int32
	if err := o.Speak(context.Background(), "one", "en", false, func() { first.Add(1) }); err != nil {
		t.Fatal(err)
	}
	firstPB := local.last(t)
	if err := o.Speak(context.Background(), "two", "en", false, func() { second.Add(1) }); err != nil {
		t.Fatal(err)
	}
	if !firstPB.stopped.Load() {
		t.Error("first playback should be stopped")
	}
	local.last(t).finish(nil)
	waitFor(t, func() bool { return second.Load() == 1 })
	if first.Load() != 0 {
		t.Error("replaced utterance should not complete")
	}
}

func TestSpeakNoBackend(t *testing.T) {
	o := NewOutput(nil, WithClonedBackend(&fakeBackend{name: "cloned"}))
	err := o.Speak(context.Background(), "text", "en", false, nil)
	if !apperr.Is(err, apperr.KindLocalCapabilityMissing) {
		t.Errorf("expected local capability missing, got %v", err)
	}

	o = NewOutput(&fakeBackend{name: "local", startErr: errors.New("no say")})
	err = o.Speak(context.Background(), "text", "en", false, nil)
	if !apperr.Is(err, apperr.KindLocalCapabilityMissing) {
		t.Errorf("expected local capability missing, got %v", err)
	}
	if o.State() != StateIdle {
		t.Errorf("expected idle, got %s", o.State())
	}
}
