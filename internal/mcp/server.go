package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/codexankiiit31/career-retrieval/internal/index"
	"github.com/codexankiiit31/career-retrieval/internal/pipeline"
	"github.com/codexankiiit31/career-retrieval/internal/retriever"
)

// Server wraps the MCP server with the engine's components.
type Server struct {
	server *mcp.Server
	handle *index.Handle
}

// Config holds server dependencies. Tagger may be nil; match requests
// then score with default importance weights.
type Config struct {
	Handle    *index.Handle
	Retriever *retriever.Retriever
	Embedder  pipeline.Embedder
	Tagger    pipeline.Tagger
}

// NewServer creates a configured MCP server with tools registered.
func NewServer(cfg *Config) *Server {
	impl := &mcp.Implementation{
		Name:    "career-retrieval-server",
		Version: "v0.1.0",
	}

	server := mcp.NewServer(impl, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_content",
		Description: "Semantic search over scraped career and learning content. Returns a diverse ranked chunk set plus a citation-tagged context block sized to a token budget.",
	}, makeSearchHandler(cfg.Retriever))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "match_resume",
		Description: "Score how well a resume matches a job description. Returns a 0-100 match score with per-requirement contributions.",
	}, makeMatchHandler(cfg.Embedder, cfg.Tagger))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "index_status",
		Description: "Report the published index's chunk count and vector dimensionality.",
	}, makeStatusHandler(cfg.Handle))

	return &Server{
		server: server,
		handle: cfg.Handle,
	}
}

// Run starts the server with stdio transport (blocks until client disconnects).
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// MCPServer returns the underlying MCP server instance.
// Used by transport handlers that need to wrap the server.
func (s *Server) MCPServer() *mcp.Server {
	return s.server
}
