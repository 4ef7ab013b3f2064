package mcpadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/batikgram/internal/core/domain"
	"github.com/kirillkom/batikgram/internal/core/ports"
)

const (
	serverName = "batikgram"

	toolSearchPatterns  = "search_patterns"
	toolDescribePattern = "describe_pattern"
	toolAskBatik        = "ask_batik"
)

// Server exposes the pattern catalog and the batik assistant as MCP tools.
type Server struct {
	catalog ports.PatternBrowser
	chat    ports.ChatResponder
	mcp     *server.MCPServer
}

func NewServer(version string, catalog ports.PatternBrowser, chat ports.ChatResponder) *Server {
	s := &Server{
		catalog: catalog,
		chat:    chat,
		mcp:     server.NewMCPServer(serverName, version, server.WithToolCapabilities(false)),
	}

	s.mcp.AddTool(mcp.NewTool(toolSearchPatterns,
		mcp.WithDescription("Search the batik motif catalog by name or description. An empty query lists every motif."),
		mcp.WithString("query", mcp.Description("Case-insensitive text to look for.")),
	), s.searchPatterns)

	s.mcp.AddTool(mcp.NewTool(toolDescribePattern,
		mcp.WithDescription("Return one batik motif by id, including its reference image URL."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Motif id, e.g. sekar_kemuning.")),
	), s.describePattern)

	s.mcp.AddTool(mcp.NewTool(toolAskBatik,
		mcp.WithDescription("Ask the BatikGram assistant a question about batik motifs, history, regions or how batik is made."),
		mcp.WithString("question", mcp.Required(), mcp.Description("The question in Indonesian or English.")),
		mcp.WithString("pattern_id", mcp.Description("Currently selected motif, used as context.")),
	), s.askBatik)

	return s
}

// ServeStdio blocks until stdin closes.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) searchPatterns(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	patterns, err := s.catalog.Search(ctx, req.GetString("query", ""))
	if err != nil {
		return mcp.NewToolResultError(toolMessage(err)), nil
	}
	return jsonResult(map[string]any{"count": len(patterns), "patterns": patterns})
}

func (s *Server) describePattern(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	pattern, err := s.catalog.Find(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(toolMessage(err)), nil
	}
	return jsonResult(pattern)
}

func (s *Server) askBatik(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := req.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	reply, _, err := s.chat.Respond(ctx, question, req.GetString("pattern_id", ""))
	if err != nil {
		return mcp.NewToolResultError(toolMessage(err)), nil
	}
	return mcp.NewToolResultText(reply), nil
}

func jsonResult(payload any) (*mcp.CallToolResult, error) {
	raw, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode tool result: %w", err)
	}
	return mcp.NewToolResultText(string(raw)), nil
}

func toolMessage(err error) string {
	switch {
	case domain.IsKind(err, domain.ErrPatternNotFound):
		return "pattern not found: " + err.Error()
	case domain.IsKind(err, domain.ErrCatalogUnavailable):
		return "the pattern catalog is unavailable right now: " + err.Error()
	case domain.IsKind(err, domain.ErrInvalidInput):
		return "invalid input: " + err.Error()
	default:
		return strings.TrimSpace(err.Error())
	}
}
