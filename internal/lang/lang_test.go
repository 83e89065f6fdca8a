package lang

import "testing"

func TestLookup(t *testing.T) {
	l, ok := Lookup("hi")
	if !ok || l.Name != "Hindi" || l.Locale != "hi-IN" {
		t.Errorf("unexpected lookup result %+v", l)
	}
	if _, ok := Lookup("pt"); ok {
		t.Error("pt should not be supported")
	}
	if len(All()) != 7 {
		t.Errorf("expected 7 languages, got %d", len(All()))
	}
}

func TestNameAndLocaleFallback(t *testing.T) {
	if NameOf("xx") != "English" {
		t.Errorf("unexpected fallback name %q", NameOf("xx"))
	}
	if LocaleOf("") != "en-US" {
		t.Errorf("unexpected fallback locale %q", LocaleOf(""))
	}
	if LocaleOf("ja") != "ja-JP" {
		t.Errorf("unexpected locale %q", LocaleOf("ja"))
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"en", "en", true},
		{"EN", "en", true},
		{"fr-CA", "fr", true},
		{"de_DE", "de", true},
		{"es-MX", "es", true},
		{"", "en", false},
		{"not a tag", "en", false},
	}
	for _, tt := range tests {
		got, ok := Normalize(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("Normalize(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}
