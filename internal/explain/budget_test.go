package explain

import (
	"reflect"
	"testing"
)

type wordCounter struct{}

func (wordCounter) Count(text string) int { return len(text) }

func TestTrimToBudget(t *testing.T) {
	prev := []string{"aaaa", "bbb", "cc", "d"}
	tests := []struct {
		budget int
		want   []string
	}{
		{0, prev},
		{100, prev},
		{6, []string{"bbb", "cc", "d"}},
		{3, []string{"cc", "d"}},
		{1, []string{"d"}},
	}
	for _, tt := range tests {
		got := trimToBudget(prev, tt.budget, wordCounter{})
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("budget %d: got %q, want %q", tt.budget, got, tt.want)
		}
	}
}

func TestTrimToBudgetNewestTooLarge(t *testing.T) {
	got := trimToBudget([]string{"a", "this one is too long"}, 5, wordCounter{})
	if len(got) != 0 {
		t.Errorf("expected nothing to fit, got %q", got)
	}
}

func TestEstimateTokens(t *testing.T) {
	if EstimateTokens("") != 0 {
		t.Error("empty text should be zero tokens")
	}
	if got := EstimateTokens("abcdefgh"); got != 2 {
		t.Errorf("expected 2, got %d", got)
	}
	if got := EstimateTokens("日本語"); got != 1 {
		t.Errorf("expected 1, got %d", got)
	}
}
