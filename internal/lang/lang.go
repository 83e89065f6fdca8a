// Package lang is the closed set of languages an explanation can be given in.
package lang

import (
	"strings"

	"golang.org/x/text/language"
)

// Default is used when no language is selected.
const Default = "en"

// Language describes one supported language.
type Language struct {
	Code   string `json:"code"`   // ISO 639-1
	Name   string `json:"name"`   // English name, used in prompts
	Locale string `json:"locale"` // BCP 47 tag for speech engines
}

var supported = []Language{
	{Code: "en", Name: "English", Locale: "en-US"},
	{Code: "es", Name: "Spanish", Locale: "es-ES"},
	{Code: "fr", Name: "French", Locale: "fr-FR"},
	{Code: "de", Name: "German", Locale: "de-DE"},
	{Code: "hi", Name: "Hindi", Locale: "hi-IN"},
	{Code: "zh", Name: "Chinese", Locale: "zh-CN"},
	{Code: "ja", Name: "Japanese", Locale: "ja-JP"},
}

var matcher = func() language.Matcher {
	tags := make([]language.Tag, len(supported))
	for i, l := range supported {
		tags[i] = language.MustParse(l.Locale)
	}
	return language.NewMatcher(tags)
}()

// All returns the supported languages in display order.
func All() []Language {
	out := make([]Language, len(supported))
	copy(out, supported)
	return out
}

// Lookup returns the language for an exact code.
func Lookup(code string) (Language, bool) {
	for _, l := range supported {
		if l.Code == code {
			return l, true
		}
	}
	return Language{}, false
}

// IsSupported reports whether code is an exact supported code.
func IsSupported(code string) bool {
	_, ok := Lookup(code)
	return ok
}

// Normalize maps free-form input ("EN", "en-GB", "zh_Hans", "") onto a
// supported code. ok is false when nothing matched confidently; the
// returned code is then Default.
func Normalize(input string) (code string, ok bool) {
	input = strings.TrimSpace(strings.ReplaceAll(input, "_", "-"))
	if input == "" {
		return Default, false
	}
	tag, err := language.Parse(input)
	if err != nil {
		return Default, false
	}
	_, idx, conf := matcher.Match(tag)
	if conf < language.High {
		return Default, false
	}
	return supported[idx].Code, true
}

// NameOf returns the English name of code, falling back to English.
func NameOf(code string) string {
	if l, ok := Lookup(code); ok {
		return l.Name
	}
	return "English"
}

// LocaleOf returns the speech locale of code, falling back to en-US.
func LocaleOf(code string) string {
	if l, ok := Lookup(code); ok {
		return l.Locale
	}
	return "en-US"
}
