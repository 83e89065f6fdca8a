package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/app"
	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/article"
	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/explain"
)

// articleSource holds the --url / --file flags shared by several commands.
type articleSource struct {
	url  string
	file string
}

func (s *articleSource) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&s.url, "url", "u", "", "article URL")
	cmd.Flags().StringVarP(&s.file, "file", "f", "", "read article text from a file (- for stdin)")
}

func (s *articleSource) empty() bool { return s.url == "" && s.file == "" }

// parse fetches or reads the article and chunks it.
func (s *articleSource) parse(ctx context.Context, a *app.App) (*article.ParseResult, error) {
	req := article.ParseRequest{URL: s.url}
	if s.file != "" {
		var (
			data []byte
			err  error
		)
		if s.file == "-" {
			data, err = readAllStdin()
		} else {
			data, err = os.ReadFile(s.file)
		}
		if err != nil {
			return nil, fmt.Errorf("read article: %w", err)
		}
		req = article.ParseRequest{Text: string(data)}
	}
	return a.ParseArticle(ctx, req)
}

func parseCmd() *cobra.Command {
	var (
		src     articleSource
		jsonOut bool
	)
	cmd := &cobra.Command{
		Use:   "parse",
		Short: "Fetch or read an article and print its chunks",
		Example: `  explainer parse --url https://example.com/post
  explainer parse --file notes.txt --json`,
		Run: func(cmd *cobra.Command, args []string) {
			if src.empty() {
				fmt.Fprintln(os.Stderr, "Error: --url or --file is required")
				os.Exit(1)
			}
			ctx := cmd.Context()
			_, a := newApp(ctx)
			defer a.Close()

			res, err := src.parse(ctx, a)
			if err != nil {
				exitWithError(err)
			}
			if jsonOut {
				printJSON(res)
				return
			}
			if res.Title != "" {
				fmt.Printf("%s\n\n", res.Title)
			}
			for i, c := range res.Chunks {
				fmt.Printf("[%d/%d] %s\n\n", i+1, res.TotalChunks, c)
			}
		},
	}
	src.bind(cmd)
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print the parse result as JSON")
	return cmd
}

func explainCmd() *cobra.Command {
	var (
		src      articleSource
		chunk    string
		index    int
		language string
		author   string
		question string
	)
	cmd := &cobra.Command{
		Use:   "explain",
		Short: "Explain one chunk, or answer a question about it",
		Example: `  explainer explain --chunk "Entropy always increases in a closed system."
  explainer explain --url https://example.com/post --index 2 --author "Richard Feynman"
  explainer explain --file post.txt --question "What is the main claim?"`,
		Run: func(cmd *cobra.Command, args []string) {
			if chunk == "" && src.empty() {
				fmt.Fprintln(os.Stderr, "Error: --chunk, --url or --file is required")
				os.Exit(1)
			}
			ctx := cmd.Context()
			_, a := newApp(ctx)
			defer a.Close()

			req := explain.Request{
				Chunk:        chunk,
				ChunkIndex:   index,
				Language:     language,
				UserQuestion: question,
				AuthorName:   strings.TrimSpace(author),
			}
			if chunk == "" {
				res, err := src.parse(ctx, a)
				if err != nil {
					exitWithError(err)
				}
				if index < 0 || index >= len(res.Chunks) {
					fmt.Fprintf(os.Stderr, "Error: --index must be between 0 and %d\n", len(res.Chunks)-1)
					os.Exit(1)
				}
				req.Chunk = res.Chunks[index]
			}
			if req.AuthorName != "" {
				style, err := a.GetAuthorStyle(ctx, req.AuthorName, true)
				if err != nil {
					fmt.Fprintf(os.Stderr, "Note: %s Explaining without the author's style.\n", formatError(err))
				} else {
					req.AuthorStyleProfile = style.Profile
				}
			}

			res, err := a.Explain(ctx, req)
			if err != nil {
				exitWithError(err)
			}
			fmt.Println(res.Explanation)
		},
	}
	src.bind(cmd)
	cmd.Flags().StringVarP(&chunk, "chunk", "c", "", "chunk text to explain")
	cmd.Flags().IntVarP(&index, "index", "i", 0, "chunk index when reading from --url or --file")
	cmd.Flags().StringVarP(&language, "lang", "l", "", "explanation language (default en)")
	cmd.Flags().StringVarP(&author, "author", "a", "", "explain in this author's style")
	cmd.Flags().StringVarP(&question, "question", "q", "", "answer a question about the chunk instead")
	return cmd
}
