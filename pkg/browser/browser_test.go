package browser

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestOptions(t *testing.T) {
	m := New(WithHeadless(false), WithTimeout(5*time.Second), WithBinary("/usr/bin/chromium"))
	if m.headless {
		t.Error("expected headless=false")
	}
	if m.timeout != 5*time.Second {
		t.Errorf("unexpected timeout %v", m.timeout)
	}
	if m.bin != "/usr/bin/chromium" {
		t.Errorf("unexpected binary %q", m.bin)
	}

	m = New(WithTimeout(0))
	if m.timeout != defaultRenderTimeout {
		t.Errorf("zero timeout should keep default, got %v", m.timeout)
	}
}

func TestRenderAfterStop(t *testing.T) {
	m := New()
	if err := m.Stop(context.Background()); err != nil {
		t.Fatalf("stop without start: %v", err)
	}
	if _, err := m.Render(context.Background(), "https://example.com"); !errors.Is(err, ErrNotRunning) {
		t.Errorf("expected ErrNotRunning, got %v", err)
	}
}
