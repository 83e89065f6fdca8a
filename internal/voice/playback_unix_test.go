//go:build unix

package voice

import (
	"context"
	"testing"
	"time"
)

func TestProcessPlaybackLifecycle(t *testing.T) {
	pb, err := startProcess(context.Background(), []string{"sleep", "5"}, nil)
	if err != nil {
		t.Skipf("sleep unavailable: %v", err)
	}
	if err := pb.Pause(); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if err := pb.Resume(); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if err := pb.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
	select {
	case err := <-pb.Done():
		if err != nil {
			t.Errorf("stopped playback should report nil, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("playback did not finish after stop")
	}
}

func TestProcessPlaybackFailure(t *testing.T) {
	cleaned := false
	pb, err := startProcess(context.Background(), []string{"false"}, func() { cleaned = true })
	if err != nil {
		t.Skipf("false unavailable: %v", err)
	}
	select {
	case err := <-pb.Done():
		if err == nil {
			t.Error("expected exit error")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("process did not exit")
	}
	if !cleaned {
		t.Error("cleanup should run before Done")
	}
}
