// Package voice handles spoken input and output around a session: utterance
// classification, speech recognition and speech playback with fallback.
package voice

import "strings"

// IntentKind is what an utterance asks for.
type IntentKind string

const (
	IntentContinue IntentKind = "continue"
	IntentRepeat   IntentKind = "repeat"
	IntentPrevious IntentKind = "previous"
	IntentStop     IntentKind = "stop"
	IntentQuestion IntentKind = "question"
)

// Intent is a classified utterance. Text is the original utterance.
type Intent struct {
	Kind IntentKind `json:"kind"`
	Text string     `json:"text"`
}

type rule struct {
	kind  IntentKind
	match func(s string) bool
}

func containsAny(words ...string) func(string) bool {
	return func(s string) bool {
		for _, w := range words {
			if strings.Contains(s, w) {
				return true
			}
		}
		return false
	}
}

func looksLikeQuestion(s string) bool {
	if strings.HasSuffix(s, "?") {
		return true
	}
	for _, p := range []string{"what", "how", "why", "can you"} {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// rules are evaluated in order; the first match wins.
var rules = []rule{
	{IntentContinue, containsAny("continue", "next", "go on")},
	{IntentRepeat, containsAny("repeat", "say that again", "replay")},
	{IntentPrevious, containsAny("previous", "go back")},
	{IntentStop, containsAny("stop")},
	{IntentQuestion, looksLikeQuestion},
}

// Classify maps an utterance onto an intent. Matching is case-insensitive
// substring search; anything unrecognised advances.
func Classify(utterance string) Intent {
	s := strings.ToLower(strings.TrimSpace(utterance))
	for _, r := range rules {
		if r.match(s) {
			return Intent{Kind: r.kind, Text: utterance}
		}
	}
	return Intent{Kind: IntentContinue, Text: utterance}
}
