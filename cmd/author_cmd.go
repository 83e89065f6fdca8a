package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/author"
)

func authorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "author",
		Short: "Inspect author style profiles",
	}
	cmd.AddCommand(authorStyleCmd())
	cmd.AddCommand(authorAnalyzeCmd())
	cmd.AddCommand(authorSearchCmd())
	return cmd
}

func authorStyleCmd() *cobra.Command {
	var noKnowledge bool
	cmd := &cobra.Command{
		Use:   "style <name>",
		Short: "Show the (cached) style profile for an author",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			ctx := cmd.Context()
			_, a := newApp(ctx)
			defer a.Close()

			res, err := a.GetAuthorStyle(ctx, strings.Join(args, " "), !noKnowledge)
			if err != nil {
				exitWithError(err)
			}
			printJSON(res)
		},
	}
	cmd.Flags().BoolVar(&noKnowledge, "no-llm-knowledge", false, "do not derive the profile from model knowledge")
	return cmd
}

func authorAnalyzeCmd() *cobra.Command {
	var (
		transcripts []string
		noKnowledge bool
	)
	cmd := &cobra.Command{
		Use:   "analyze <name>",
		Short: "Build a fresh style profile from transcripts and/or model knowledge",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			req := author.AnalyzeRequest{AuthorName: strings.Join(args, " ")}
			for _, path := range transcripts {
				data, err := os.ReadFile(path)
				if err != nil {
					fmt.Fprintf(os.Stderr, "Error reading transcript: %v\n", err)
					os.Exit(1)
				}
				req.Transcripts = append(req.Transcripts, string(data))
			}
			if noKnowledge {
				use := false
				req.UseLLMKnowledge = &use
			}

			ctx := cmd.Context()
			_, a := newApp(ctx)
			defer a.Close()

			res, err := a.AnalyzeAuthorStyle(ctx, req)
			if err != nil {
				exitWithError(err)
			}
			printJSON(res)
		},
	}
	cmd.Flags().StringArrayVarP(&transcripts, "transcript", "t", nil, "transcript file (repeatable)")
	cmd.Flags().BoolVar(&noKnowledge, "no-llm-knowledge", false, "use transcripts only")
	return cmd
}

func authorSearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <name>",
		Short: "Suggest search queries for an author's talks and interviews",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			ctx := cmd.Context()
			_, a := newApp(ctx)
			defer a.Close()

			res, err := a.SearchAuthorContent(ctx, strings.Join(args, " "))
			if err != nil {
				exitWithError(err)
			}
			for _, q := range res.SearchQueries {
				fmt.Println(q)
			}
			if res.Message != "" {
				fmt.Fprintln(os.Stderr, res.Message)
			}
		},
	}
}

func printJSON(v any) {
	data, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(data))
}
