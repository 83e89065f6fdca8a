package voice

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		in   string
		want IntentKind
	}{
		{"What does this mean?", IntentQuestion},
		{"please continue", IntentContinue},
		{"can you repeat that", IntentRepeat},
		{"NEXT", IntentContinue},
		{"go on then", IntentContinue},
		{"say that again", IntentRepeat},
		{"replay it", IntentRepeat},
		{"go back one", IntentPrevious},
		{"the previous part", IntentPrevious},
		{"stop", IntentStop},
		{"why is steel used", IntentQuestion},
		{"How come", IntentQuestion},
		{"this is about bridges?", IntentQuestion},
		{"what's next", IntentContinue},
		{"okay", IntentContinue},
		{"", IntentContinue},
		{"  Stop please  ", IntentStop},
	}
	for _, tt := range tests {
		got := Classify(tt.in)
		if got.Kind != tt.want {
			t.Errorf("Classify(%q) = %s, want %s", tt.in, got.Kind, tt.want)
		}
		if got.Text != tt.in {
			t.Errorf("Classify(%q) changed text to %q", tt.in, got.Text)
		}
	}
}
