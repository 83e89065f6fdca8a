package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/mcp"
)

func mcpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the explainer tools over MCP on stdio",
		Long: `Run a Model Context Protocol server on stdin/stdout. Logs go to stderr.

Example client entry:
  {"command": "explainer", "args": ["mcp"]}`,
		Run: func(cmd *cobra.Command, args []string) {
			_, a := newApp(cmd.Context())
			defer a.Close()

			if err := mcp.ServeStdio(a, Version); err != nil {
				fmt.Fprintf(os.Stderr, "MCP server error: %v\n", err)
				os.Exit(1)
			}
		},
	}
}
