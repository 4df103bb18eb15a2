package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	mcpadapter "github.com/kirillkom/bookmark-search/internal/adapters/mcp"
	"github.com/kirillkom/bookmark-search/internal/bootstrap"
	"github.com/kirillkom/bookmark-search/internal/config"
	"github.com/kirillkom/bookmark-search/internal/observability/logging"
)

func main() {
	// stdout carries the MCP protocol.
	log.SetOutput(os.Stderr)

	cfg, err := config.LoadWithFile()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if strings.TrimSpace(cfg.MCPUserID) == "" {
		log.Fatalf("MCP_USER_ID is required")
	}
	logger := logging.NewJSONLoggerTo(os.Stderr, "mcp", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{Logger: logger, SkipQueue: true})
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	server := mcpadapter.NewServer(app.SearchUC, cfg.MCPUserID)
	if err := server.Serve(ctx); err != nil {
		log.Fatalf("mcp server error: %v", err)
	}
}
