// Package mcp exposes the explainer operations as Model Context Protocol
// tools so editors and agents can drive them over stdio.
package mcp

import (
	"context"
	"log/slog"

	"github.com/bytedance/sonic"
	mcpgo "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/apperr"
	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/article"
	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/author"
	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/explain"
	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/tts"
	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/voice"
)

// Backend is the operation set served as tools. *app.App satisfies it.
type Backend interface {
	ParseArticle(ctx context.Context, req article.ParseRequest) (*article.ParseResult, error)
	Explain(ctx context.Context, req explain.Request) (*explain.Result, error)
	GetAuthorStyle(ctx context.Context, name string, useLLMKnowledge bool) (*author.StyleResult, error)
	SearchAuthorContent(ctx context.Context, name string) (*author.SearchResult, error)
	GenerateSpeech(ctx context.Context, req tts.SpeechRequest) *tts.SpeechResult
}

// NewServer builds an MCP server with one tool per operation.
func NewServer(b Backend, version string) *server.MCPServer {
	s := server.NewMCPServer("explainer", version, server.WithToolCapabilities(false))
	h := &handlers{b: b}

	s.AddTool(mcpgo.NewTool("parse_article",
		mcpgo.WithDescription("Fetch an article URL or take pasted text and split it into explanation chunks."),
		mcpgo.WithString("url", mcpgo.Description("Article URL (http or https)")),
		mcpgo.WithString("text", mcpgo.Description("Pasted article text, used when url is empty")),
	), h.parseArticle)

	s.AddTool(mcpgo.NewTool("explain_chunk",
		mcpgo.WithDescription("Explain one article chunk conversationally, or answer a question about it."),
		mcpgo.WithString("chunk", mcpgo.Required(), mcpgo.Description("The chunk text")),
		mcpgo.WithNumber("chunk_index", mcpgo.Description("Zero-based chunk position")),
		mcpgo.WithArray("previous_explanations",
			mcpgo.Description("Earlier explanations, oldest first"),
			mcpgo.Items(map[string]any{"type": "string"})),
		mcpgo.WithString("language", mcpgo.Description("Language code, default en")),
		mcpgo.WithString("question", mcpgo.Description("Answer this question instead of explaining")),
		mcpgo.WithString("author_name", mcpgo.Description("Explain in this author's voice")),
	), h.explainChunk)

	s.AddTool(mcpgo.NewTool("get_author_style",
		mcpgo.WithDescription("Return the style profile for an author."),
		mcpgo.WithString("author_name", mcpgo.Required()),
		mcpgo.WithBoolean("use_llm_knowledge", mcpgo.Description("Derive the profile from model knowledge, default true")),
	), h.getAuthorStyle)

	s.AddTool(mcpgo.NewTool("search_author_content",
		mcpgo.WithDescription("Suggest search queries for finding an author's talks and transcripts."),
		mcpgo.WithString("author_name", mcpgo.Required()),
	), h.searchAuthorContent)

	s.AddTool(mcpgo.NewTool("generate_speech",
		mcpgo.WithDescription("Synthesize speech. Returns an audio URL, or a local fallback marker when no backend succeeds."),
		mcpgo.WithString("text", mcpgo.Required()),
		mcpgo.WithString("language", mcpgo.Description("Language code, default en")),
		mcpgo.WithString("author_name", mcpgo.Description("Use this author's cloned voice when available")),
	), h.generateSpeech)

	s.AddTool(mcpgo.NewTool("classify_utterance",
		mcpgo.WithDescription("Map a spoken command onto continue, repeat, previous, stop or question."),
		mcpgo.WithString("utterance", mcpgo.Required()),
	), h.classifyUtterance)

	return s
}

// ServeStdio runs the server on stdin/stdout until the input closes.
func ServeStdio(b Backend, version string) error {
	return server.ServeStdio(NewServer(b, version))
}

type handlers struct {
	b Backend
}

func (h *handlers) parseArticle(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	res, err := h.b.ParseArticle(ctx, article.ParseRequest{
		URL:  req.GetString("url", ""),
		Text: req.GetString("text", ""),
	})
	if err != nil {
		return toolError("parse_article", err), nil
	}
	return jsonResult(res)
}

func (h *handlers) explainChunk(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	chunk, err := req.RequireString("chunk")
	if err != nil {
		return mcpgo.NewToolResultError(err.Error()), nil
	}
	er := explain.Request{
		Chunk:                chunk,
		ChunkIndex:           req.GetInt("chunk_index", 0),
		PreviousExplanations: req.GetStringSlice("previous_explanations", nil),
		Language:             req.GetString("language", ""),
		UserQuestion:         req.GetString("question", ""),
		AuthorName:           req.GetString("author_name", ""),
	}
	if er.AuthorName != "" {
		// A missing profile only loses the styling; the explanation still runs.
		if style, err := h.b.GetAuthorStyle(ctx, er.AuthorName, true); err == nil {
			er.AuthorStyleProfile = style.Profile
		} else {
			slog.Warn("mcp.author_style_failed", "author", er.AuthorName, "error", err)
		}
	}
	res, err := h.b.Explain(ctx, er)
	if err != nil {
		return toolError("explain_chunk", err), nil
	}
	return jsonResult(res)
}

func (h *handlers) getAuthorStyle(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	name, err := req.RequireString("author_name")
	if err != nil {
		return mcpgo.NewToolResultError(err.Error()), nil
	}
	res, err := h.b.GetAuthorStyle(ctx, name, req.GetBool("use_llm_knowledge", true))
	if err != nil {
		return toolError("get_author_style", err), nil
	}
	return jsonResult(res)
}

func (h *handlers) searchAuthorContent(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	name, err := req.RequireString("author_name")
	if err != nil {
		return mcpgo.NewToolResultError(err.Error()), nil
	}
	res, err := h.b.SearchAuthorContent(ctx, name)
	if err != nil {
		return toolError("search_author_content", err), nil
	}
	return jsonResult(res)
}

func (h *handlers) generateSpeech(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcpgo.NewToolResultError(err.Error()), nil
	}
	return jsonResult(h.b.GenerateSpeech(ctx, tts.SpeechRequest{
		Text:       text,
		Language:   req.GetString("language", ""),
		AuthorName: req.GetString("author_name", ""),
	}))
}

func (h *handlers) classifyUtterance(_ context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	utterance, err := req.RequireString("utterance")
	if err != nil {
		return mcpgo.NewToolResultError(err.Error()), nil
	}
	return jsonResult(voice.Classify(utterance))
}

func jsonResult(v any) (*mcpgo.CallToolResult, error) {
	data, err := sonic.Marshal(v)
	if err != nil {
		return nil, err
	}
	return mcpgo.NewToolResultText(string(data)), nil
}

func toolError(tool string, err error) *mcpgo.CallToolResult {
	slog.Warn("mcp.tool_failed", "tool", tool, "kind", apperr.KindOf(err), "error", err)
	return mcpgo.NewToolResultError(apperr.UserMessage(err))
}
