package author

import "testing"

func TestParseProfileStrict(t *testing.T) {
	raw := `{"vocabulary":["basically","right?"],"tone":"casual","sentencePatterns":"not a list","personality":["curious",3]}`
	p, err := parseProfile("Ada", raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Name != "Ada" {
		t.Errorf("name should come from input, got %q", p.Name)
	}
	if len(p.Vocabulary) != 2 || p.Tone != "casual" {
		t.Errorf("unexpected profile %+v", p)
	}
	if len(p.SentencePatterns) != 0 || p.SentencePatterns == nil {
		t.Errorf("mistyped list should default to empty, got %#v", p.SentencePatterns)
	}
	if len(p.Personality) != 1 {
		t.Errorf("non-string items should be dropped, got %v", p.Personality)
	}
	if p.ExplanationStyle != defaultExplanationStyle {
		t.Errorf("expected default explanation style, got %q", p.ExplanationStyle)
	}
}

func TestParseProfileLenient(t *testing.T) {
	raw := "```json\n{\n  // model commentary\n  \"tone\": \"dry\",\n  \"analogies\": [\"engines\",],\n}\n```"
	p, err := parseProfile("Bo", raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Tone != "dry" || len(p.Analogies) != 1 {
		t.Errorf("unexpected profile %+v", p)
	}
}

func TestParseProfileGarbage(t *testing.T) {
	for _, raw := range []string{"", "I cannot help with that.", "[1,2,3]"} {
		if _, err := parseProfile("X", raw); err == nil {
			t.Errorf("expected error for %q", raw)
		}
	}
}

func TestProfileClone(t *testing.T) {
	p := &Profile{Name: "A", Vocabulary: []string{"x"}}
	c := p.Clone()
	c.Vocabulary[0] = "y"
	if p.Vocabulary[0] != "x" {
		t.Error("clone shares backing array")
	}
	if (*Profile)(nil).Clone() != nil {
		t.Error("nil clone should be nil")
	}
}
