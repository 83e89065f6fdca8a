package article

import (
	"errors"
	"strings"
	"testing"
)

func TestChunkSplitsOnBlankLines(t *testing.T) {
	got, err := Chunk("Para one.\n\nPara two.\n\nPara three.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"Para one.", "Para two.", "Para three."}
	if len(got) != len(want) {
		t.Fatalf("expected %d chunks, got %d: %q", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("chunk %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestChunkEmptyContent(t *testing.T) {
	for _, in := range []string{"", "   \n\n   ", "\n\n\n", "\t\r\n\r\n "} {
		if _, err := Chunk(in); !errors.Is(err, ErrEmptyContent) {
			t.Errorf("Chunk(%q): expected ErrEmptyContent, got %v", in, err)
		}
	}
}

func TestChunkTrimsAndDropsEmpty(t *testing.T) {
	in := "  first line\nstill first  \n \n\t\n\n   \n  second  \r\n\r\nthird"
	got, err := Chunk(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"first line\nstill first", "second", "third"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("expected %q, got %q", want, got)
	}
	for _, c := range got {
		if c == "" || c != strings.TrimSpace(c) {
			t.Errorf("chunk %q is empty or untrimmed", c)
		}
	}
}

func TestChunkRecoversVisibleContent(t *testing.T) {
	in := "Alpha beta.\n\n\n  Gamma delta.  \n\nEpsilon."
	got, err := Chunk(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Join(strings.Fields(strings.Join(got, " ")), " ") != strings.Join(strings.Fields(in), " ") {
		t.Errorf("visible content not preserved: %q", got)
	}
}

func TestChunkSingleParagraph(t *testing.T) {
	got, err := Chunk("just one paragraph\nwith two lines")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("expected 1 chunk, got %d", len(got))
	}
}
