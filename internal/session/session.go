// Package session is the chunk-walking state machine. A nil *Session is the
// Empty state; every transition is a plain function so the rules can be
// tested without any I/O. Controller adds the live, concurrent owner.
package session

import (
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/author"
	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/lang"
)

var (
	ErrNoChunks            = errors.New("article has no chunks")
	ErrBlankChunk          = errors.New("chunk is blank")
	ErrUnsupportedLanguage = errors.New("unsupported language")
	ErrNoSession           = errors.New("no active session")
)

// QA is one answered user question.
type QA struct {
	ChunkIndex int       `json:"chunkIndex"`
	Question   string    `json:"question"`
	Answer     string    `json:"answer"`
	AskedAt    time.Time `json:"askedAt"`
}

// Session is the Active state.
type Session struct {
	ID           string          `json:"id"`
	Chunks       []string        `json:"chunks"`
	CurrentIndex int             `json:"currentIndex"`
	Explanations map[int]string  `json:"explanations"`
	Questions    []QA            `json:"questions"`
	Language     string          `json:"language"`
	AuthorName   string          `json:"authorName,omitempty"`
	StyleProfile *author.Profile `json:"authorStyleProfile,omitempty"`
	IsSpeaking   bool            `json:"isSpeaking"`
	IsListening  bool            `json:"isListening"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// Start creates a fresh session. Any previous session is simply replaced by
// the caller; nothing carries over.
func Start(chunks []string, language, authorName string) (*Session, error) {
	if len(chunks) == 0 {
		return nil, ErrNoChunks
	}
	if language == "" {
		language = lang.Default
	}
	if !lang.IsSupported(language) {
		return nil, ErrUnsupportedLanguage
	}
	cp := make([]string, len(chunks))
	copy(cp, chunks)
	return &Session{
		ID:           uuid.NewString(),
		Chunks:       cp,
		Explanations: make(map[int]string),
		Questions:    []QA{},
		Language:     language,
		AuthorName:   authorName,
		CreatedAt:    time.Now(),
	}, nil
}

// InBounds reports whether index addresses a chunk of s.
func InBounds(s *Session, index int) bool {
	return s != nil && index >= 0 && index < len(s.Chunks)
}

// GoTo moves to index. Out-of-range indices and the Empty state are no-ops.
func GoTo(s *Session, index int) *Session {
	if InBounds(s, index) {
		s.CurrentIndex = index
	}
	return s
}

// RecordExplanation stores text under index, replacing any earlier text.
func RecordExplanation(s *Session, index int, text string) *Session {
	if InBounds(s, index) {
		s.Explanations[index] = text
	}
	return s
}

// RecordQuestion appends an answered question.
func RecordQuestion(s *Session, index int, question, answer string) *Session {
	if s != nil {
		s.Questions = append(s.Questions, QA{ChunkIndex: index, Question: question, Answer: answer, AskedAt: time.Now()})
	}
	return s
}

// AttachStyleProfile sets the profile only when it belongs to the session's
// author, so a late fetch for a previous author is dropped.
func AttachStyleProfile(s *Session, p *author.Profile) *Session {
	if s != nil && p != nil && p.Name == s.AuthorName {
		s.StyleProfile = p
	}
	return s
}

// Reset returns the Empty state.
func Reset() *Session { return nil }

// PreviousExplanations returns explanations for indices strictly below
// index, in ascending order. Gaps are skipped.
func PreviousExplanations(s *Session, index int) []string {
	if s == nil {
		return []string{}
	}
	keys := make([]int, 0, len(s.Explanations))
	for k := range s.Explanations {
		if k < index {
			keys = append(keys, k)
		}
	}
	sort.Ints(keys)
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = s.Explanations[k]
	}
	return out
}

// IsLast reports whether the current chunk is the final one.
func IsLast(s *Session) bool {
	return s != nil && s.CurrentIndex == len(s.Chunks)-1
}

// Snapshot returns a deep copy safe to hand to readers.
func Snapshot(s *Session) *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.Chunks = append([]string(nil), s.Chunks...)
	c.Explanations = make(map[int]string, len(s.Explanations))
	for k, v := range s.Explanations {
		c.Explanations[k] = v
	}
	c.Questions = append([]QA{}, s.Questions...)
	c.StyleProfile = s.StyleProfile.Clone()
	return &c
}
