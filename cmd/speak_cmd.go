package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/tts"
	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/voice"
)

func speakCmd() *cobra.Command {
	var (
		language string
		author   string
		out      string
	)
	cmd := &cobra.Command{
		Use:   "speak <text>",
		Short: "Synthesize speech and write the audio to a file",
		Example: `  explainer speak "Hello there" --out hello.mp3
  echo "Some text" | explainer speak - --author "Richard Feynman"`,
		Args: cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			text := strings.Join(args, " ")
			if text == "-" {
				data, err := readAllStdin()
				if err != nil {
					fmt.Fprintf(os.Stderr, "Error: %v\n", err)
					os.Exit(1)
				}
				text = string(data)
			}

			ctx := cmd.Context()
			_, a := newApp(ctx)
			defer a.Close()

			res := a.GenerateSpeech(ctx, tts.SpeechRequest{Text: text, Language: language, AuthorName: author})
			if !res.OK() {
				fmt.Fprintf(os.Stderr, "No speech backend produced audio: %s\n", res.Error)
				if res.Fallback == tts.FallbackLocal {
					fmt.Fprintln(os.Stderr, "Use a local speak command instead (voice.speak in the config).")
				}
				os.Exit(1)
			}

			audio, err := voice.FetchAudio(ctx, nil, res.AudioURL)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			if out == "" {
				out = "speech." + res.Format
			}
			if err := os.WriteFile(out, audio, 0o644); err != nil {
				fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", out, err)
				os.Exit(1)
			}
			fmt.Printf("Wrote %s (%d bytes, %s via %s)\n", out, len(audio), res.Format, res.Method)
		},
	}
	cmd.Flags().StringVarP(&language, "lang", "l", "", "speech language (default en)")
	cmd.Flags().StringVarP(&author, "author", "a", "", "use this author's cloned voice when available")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default speech.<format>)")
	return cmd
}
