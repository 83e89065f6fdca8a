package cmd

import (
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/app"
	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/config"
	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/reader"
	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/session"
	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/tts"
	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/voice"
)

func readCmd() *cobra.Command {
	var (
		src      articleSource
		language string
		author   string
		voiceOn  bool
		logPath  string
	)
	cmd := &cobra.Command{
		Use:   "read",
		Short: "Walk through an article interactively in the terminal",
		Example: `  explainer read --url https://example.com/post
  explainer read --file essay.txt --author "Paul Graham" --voice`,
		Run: func(cmd *cobra.Command, args []string) {
			if src.empty() {
				fmt.Fprintln(os.Stderr, "Error: --url or --file is required")
				os.Exit(1)
			}
			ctx := cmd.Context()
			cfg, a := newApp(ctx)
			defer a.Close()

			// The alternate screen owns stdout and stderr from here on.
			var logOut io.Writer = io.Discard
			if logPath != "" {
				f, err := os.OpenFile(config.ExpandHome(logPath), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
				if err != nil {
					fmt.Fprintf(os.Stderr, "Error: open log: %v\n", err)
					os.Exit(1)
				}
				defer f.Close()
				logOut = f
			}

			fmt.Fprintln(os.Stderr, "Loading article...")
			res, err := src.parse(ctx, a)
			if err != nil {
				exitWithError(err)
			}
			setupLogging(cfg.Log, logOut)

			events := reader.NewEvents()
			var ctl *session.Controller
			out := newTerminalVoice(cfg, a, func() string { return ctl.AuthorName() })
			ctl = session.NewController(a,
				session.WithStyleFetcher(a),
				session.WithSpeaker(out),
				session.WithEventSink(events),
			)
			if _, err := ctl.Start(ctx, session.StartRequest{
				Chunks:     res.Chunks,
				Language:   language,
				AuthorName: author,
			}); err != nil {
				exitWithError(err)
			}
			defer ctl.Reset()

			m := reader.New(ctx, ctl, events, reader.Options{Title: res.Title, Voice: voiceOn})
			if _, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
		},
	}
	src.bind(cmd)
	cmd.Flags().StringVarP(&language, "lang", "l", "", "explanation language code (default en)")
	cmd.Flags().StringVarP(&author, "author", "a", "", "explain in this author's style and voice")
	cmd.Flags().BoolVar(&voiceOn, "voice", false, "read each explanation aloud")
	cmd.Flags().StringVar(&logPath, "log", "", "write logs to this file while the reader is open")
	return cmd
}

// newTerminalVoice builds the speaker for the terminal: the author's cloned
// voice through the speech service when a style is active, the configured
// local command or Edge synthesis otherwise.
func newTerminalVoice(cfg *config.Config, a *app.App, authorName func() string) *voice.Output {
	player, _ := voice.ParseCommand(cfg.Voice.Player)

	var speak voice.Command
	if cfg.Voice.Speak != "" {
		var err error
		if speak, err = voice.ParseCommand(cfg.Voice.Speak); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: voice.speak ignored: %v\n", err)
		}
	}

	var synth voice.Synthesizer
	if cfg.Tts.Edge.Enabled {
		edge, err := tts.NewEdgeProvider(tts.EdgeConfig{
			Binary:    cfg.Tts.Edge.Binary,
			ExtraArgs: cfg.Tts.Edge.ExtraArgs,
			Voice:     cfg.Tts.Edge.Voice,
			Rate:      cfg.Tts.Edge.Rate,
			TimeoutMs: cfg.Tts.Edge.TimeoutMs,
		})
		if err == nil && edge.Available() {
			synth = edge
		}
	}

	local := voice.NewLocalBackend(speak, synth, player)
	if !local.Available() {
		fmt.Fprintln(os.Stderr, "Note: no local voice configured (voice.speak, or edge-tts with voice.player); speech will fail without a cloned voice.")
	}

	opts := []voice.OutputOption{}
	if !player.IsZero() {
		opts = append(opts, voice.WithClonedBackend(voice.NewClonedBackend(a, player, authorName)))
	}
	return voice.NewOutput(local, opts...)
}
