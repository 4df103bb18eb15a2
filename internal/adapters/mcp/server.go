package mcpadapter

import (
	"context"
	"io"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/bookmark-search/internal/core/ports"
)

const (
	ServerName    = "bookmark-search"
	ServerVersion = "1.0.0"
)

// Server exposes bookmark search as MCP tools on behalf of a single user.
type Server struct {
	mcp    *server.MCPServer
	search ports.SearchService
	userID string
}

func NewServer(search ports.SearchService, userID string) *Server {
	s := &Server{
		mcp:    server.NewMCPServer(ServerName, ServerVersion),
		search: search,
		userID: userID,
	}
	s.mcp.AddTool(searchBookmarksTool(), s.handleSearchBookmarks)
	s.mcp.AddTool(findSimilarBookmarksTool(), s.handleFindSimilarBookmarks)
	return s
}

// Serve blocks on stdio until the client disconnects or ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	return s.ServeIO(ctx, os.Stdin, os.Stdout)
}

// ServeIO speaks the stdio transport over in and out. Cancellation is a clean shutdown.
func (s *Server) ServeIO(ctx context.Context, in io.Reader, out io.Writer) error {
	err := server.NewStdioServer(s.mcp).Listen(ctx, in, out)
	if ctx.Err() != nil {
		return nil
	}
	return err
}
