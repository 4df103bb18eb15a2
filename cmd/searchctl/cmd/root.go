// Package cmd holds the searchctl operator commands.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/kirillkom/bookmark-search/internal/bootstrap"
	"github.com/kirillkom/bookmark-search/internal/config"
	"github.com/kirillkom/bookmark-search/internal/core/ports"
	"github.com/kirillkom/bookmark-search/internal/observability/logging"
)

// services is what the commands need from a bootstrapped app.
type services struct {
	search   ports.SearchService
	embedder ports.BookmarkEmbeddingProcessor
	close    func()
}

type servicesFactory func(ctx context.Context) (*services, error)

func bootstrapServices(ctx context.Context) (*services, error) {
	cfg, err := config.LoadWithFile()
	if err != nil {
		return nil, err
	}
	logger := logging.NewJSONLoggerTo(os.Stderr, "searchctl", cfg.LogLevel)
	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{Logger: logger, SkipQueue: true})
	if err != nil {
		return nil, fmt.Errorf("bootstrap: %w", err)
	}
	return &services{search: app.SearchUC, embedder: app.EmbedUC, close: app.Close}, nil
}

func NewRootCmd() *cobra.Command {
	return newRootCmd(bootstrapServices)
}

func newRootCmd(factory servicesFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "searchctl",
		Short:         "Operate the bookmark search service from the command line",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.AddCommand(
		newTranslateCmd(),
		newSearchCmd(factory),
		newSimilarCmd(factory),
		newEmbedCmd(factory),
	)
	return cmd
}

func Execute() error {
	return NewRootCmd().Execute()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
