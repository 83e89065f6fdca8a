// Package author builds and caches communication style profiles for named
// authors so explanations can be written in their voice.
package author

import (
	"errors"
	"regexp"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/titanous/json5"
)

const (
	defaultTone             = "conversational"
	defaultExplanationStyle = "clear and direct"
)

// Profile describes how an author communicates.
type Profile struct {
	Name             string   `json:"name"`
	Vocabulary       []string `json:"vocabulary"`
	SentencePatterns []string `json:"sentencePatterns"`
	Analogies        []string `json:"analogies"`
	Tone             string   `json:"tone"`
	ExplanationStyle string   `json:"explanationStyle"`
	Personality      []string `json:"personality"`
	SampleQuotes     []string `json:"sampleQuotes"`
}

// Clone returns a deep copy.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	c := *p
	c.Vocabulary = cloneStrings(p.Vocabulary)
	c.SentencePatterns = cloneStrings(p.SentencePatterns)
	c.Analogies = cloneStrings(p.Analogies)
	c.Personality = cloneStrings(p.Personality)
	c.SampleQuotes = cloneStrings(p.SampleQuotes)
	return &c
}

func cloneStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}

var errUnparsable = errors.New("style analysis is not a JSON object")

var reFence = regexp.MustCompile("(?s)^```[a-zA-Z0-9]*\\s*(.*?)\\s*```$")

// parseProfile decodes a model response into a Profile. Strict JSON is tried
// first; models occasionally wrap the object in a code fence or leave
// trailing commas, which the JSON5 decoder accepts. Fields that are missing
// or of the wrong type fall back to defaults. The name always comes from the
// caller.
func parseProfile(name, raw string) (*Profile, error) {
	var loose map[string]any
	if err := sonic.UnmarshalString(raw, &loose); err != nil || loose == nil {
		body := strings.TrimSpace(raw)
		if m := reFence.FindStringSubmatch(body); m != nil {
			body = m[1]
		}
		loose = nil
		if err := json5.Unmarshal([]byte(body), &loose); err != nil || loose == nil {
			return nil, errUnparsable
		}
	}

	return &Profile{
		Name:             name,
		Vocabulary:       stringList(loose["vocabulary"]),
		SentencePatterns: stringList(loose["sentencePatterns"]),
		Analogies:        stringList(loose["analogies"]),
		Tone:             stringOr(loose["tone"], defaultTone),
		ExplanationStyle: stringOr(loose["explanationStyle"], defaultExplanationStyle),
		Personality:      stringList(loose["personality"]),
		SampleQuotes:     stringList(loose["sampleQuotes"]),
	}, nil
}

func stringList(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}

func stringOr(v any, def string) string {
	if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
		return strings.TrimSpace(s)
	}
	return def
}
