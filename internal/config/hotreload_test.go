package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcherReloadsOnWrite(t *testing.T) {
	noKeyring(t)
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.json5")
	if err := os.WriteFile(path, []byte(`{gateway: {port: 9001}}`), 0o600); err != nil {
		t.Fatal(err)
	}

	w, err := NewWatcher(path)
	if err != nil {
		t.Fatal(err)
	}
	w.debounce = 20 * time.Millisecond
	got := make(chan int, 4)
	w.OnReload(func(cfg *Config) { got <- cfg.Gateway.Port })
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := os.WriteFile(path, []byte(`{gateway: {port: 9002}}`), 0o600); err != nil {
		t.Fatal(err)
	}
	select {
	case port := <-got:
		if port != 9002 {
			t.Errorf("expected reloaded port 9002, got %d", port)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no reload observed")
	}
}

func TestWatcherKeepsConfigOnInvalidFile(t *testing.T) {
	noKeyring(t)
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.json5")
	os.WriteFile(path, []byte(`{}`), 0o600)

	w, err := NewWatcher(path)
	if err != nil {
		t.Fatal(err)
	}
	w.debounce = 10 * time.Millisecond
	called := make(chan struct{}, 1)
	w.OnReload(func(*Config) { called <- struct{}{} })
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	os.WriteFile(path, []byte(`{gateway: {port: -1}}`), 0o600)
	select {
	case <-called:
		t.Error("handler should not run for an invalid config")
	case <-time.After(150 * time.Millisecond):
	}
	w.Stop()
}
