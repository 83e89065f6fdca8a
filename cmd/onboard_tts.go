package cmd

import (
	"fmt"
	"slices"

	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/config"
)

// promptSpeechConfig asks which speech backends to enable and fills their
// settings in tc. Returns early on any error (e.g. Ctrl+C).
func promptSpeechConfig(tc *config.TTSConfig) error {
	var current []string
	if tc.SoVITS.Enabled {
		current = append(current, "sovits")
	}
	if tc.ElevenLabs.APIKey != "" {
		current = append(current, "elevenlabs")
	}
	if tc.OpenAI.APIKey != "" {
		current = append(current, "openai")
	}
	if tc.Edge.Enabled {
		current = append(current, "edge")
	}

	chosen, err := promptMultiSelect("Step 3 · Speech backends", "Tried in this order; the browser's own voice is the last resort", []SelectOption[string]{
		{"GPT-SoVITS  (self-hosted, cloned author voices)", "sovits"},
		{"ElevenLabs  (hosted, cloned author voices)", "elevenlabs"},
		{"OpenAI      (tts-1, stock voices; also on with an OpenAI chat key)", "openai"},
		{"Edge        (free, no API key)", "edge"},
	}, current)
	if err != nil {
		return err
	}

	tc.SoVITS.Enabled = slices.Contains(chosen, "sovits")
	if tc.SoVITS.Enabled {
		tc.SoVITS.BaseURL, err = promptString("GPT-SoVITS URL", "api_v2 server address", tc.SoVITS.BaseURL, validHTTPURL)
		if err != nil {
			return err
		}
		fmt.Println("  Add reference clips per author under tts.sovits.references in the config.")
	}

	if slices.Contains(chosen, "elevenlabs") {
		tc.ElevenLabs.APIKey, err = promptSecret("ElevenLabs API Key", "From elevenlabs.io profile settings", tc.ElevenLabs.APIKey)
		if err != nil {
			return err
		}
		fmt.Println("  Map authors to voice IDs under tts.elevenlabs.voices in the config.")
	} else {
		tc.ElevenLabs.APIKey = ""
	}

	if slices.Contains(chosen, "openai") {
		if tc.OpenAI.Voice == "" {
			tc.OpenAI.Voice = "alloy"
		}
		tc.OpenAI.Voice, err = promptSelect("OpenAI voice", []SelectOption[string]{
			{"alloy", "alloy"}, {"echo", "echo"}, {"fable", "fable"},
			{"onyx", "onyx"}, {"nova", "nova"}, {"shimmer", "shimmer"},
		}, tc.OpenAI.Voice)
		if err != nil {
			return err
		}
		tc.OpenAI.APIKey, err = promptSecret("OpenAI API Key for speech", "Leave empty to reuse the OpenAI chat key", tc.OpenAI.APIKey)
		if err != nil {
			return err
		}
	} else {
		tc.OpenAI.APIKey = ""
	}

	tc.Edge.Enabled = slices.Contains(chosen, "edge")
	fmt.Println()
	return nil
}
