package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kirillkom/bookmark-search/internal/core/domain"
	"github.com/kirillkom/bookmark-search/internal/core/ports"
)

// EmbedBookmarkUseCase keeps stored bookmark embeddings in sync with their text.
type EmbedBookmarkUseCase struct {
	bookmarks  ports.BookmarkReader
	writer     ports.EmbeddingWriter
	embedder   ports.Embedder
	queue      ports.MessageQueue
	dimensions int
	logger     *slog.Logger
	now        func() time.Time
}

func NewEmbedBookmarkUseCase(
	bookmarks ports.BookmarkReader,
	writer ports.EmbeddingWriter,
	embedder ports.Embedder,
	queue ports.MessageQueue,
	dimensions int,
	logger *slog.Logger,
) *EmbedBookmarkUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &EmbedBookmarkUseCase{
		bookmarks:  bookmarks,
		writer:     writer,
		embedder:   embedder,
		queue:      queue,
		dimensions: dimensions,
		logger:     logger,
		now:        time.Now,
	}
}

// Enqueue schedules an embedding refresh for a bookmark the user owns.
func (uc *EmbedBookmarkUseCase) Enqueue(ctx context.Context, userID, bookmarkID string) error {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(bookmarkID) == "" {
		return domain.WrapError(domain.ErrInvalidInput, "enqueue embedding", fmt.Errorf("user id and bookmark id are required"))
	}

	found, err := uc.bookmarks.GetByIDs(ctx, userID, []string{bookmarkID})
	if err != nil {
		return fmt.Errorf("check bookmark owner: %w", err)
	}
	if _, ok := found[bookmarkID]; !ok {
		return domain.WrapError(domain.ErrBookmarkNotFound, "enqueue embedding", fmt.Errorf("bookmark %s", bookmarkID))
	}

	if uc.queue == nil {
		return fmt.Errorf("publish embedding request: queue is not configured")
	}
	if err := uc.queue.PublishEmbeddingRequested(ctx, bookmarkID); err != nil {
		return fmt.Errorf("publish embedding request: %w", err)
	}
	return nil
}

// EmbedByID recomputes and stores the embedding of one bookmark.
func (uc *EmbedBookmarkUseCase) EmbedByID(ctx context.Context, bookmarkID string) error {
	bookmark, err := uc.bookmarks.GetByID(ctx, bookmarkID)
	if err != nil {
		return fmt.Errorf("load bookmark: %w", err)
	}

	text := bookmark.TextForEmbedding()
	vectors, err := uc.embedder.Embed(ctx, []string{text})
	if err != nil {
		return domain.WrapError(domain.ErrEmbeddingFailure, "embed bookmark", err)
	}
	if len(vectors) != 1 {
		return domain.WrapError(domain.ErrEmbeddingFailure, "embed bookmark", fmt.Errorf("expected 1 vector, got %d", len(vectors)))
	}
	if uc.dimensions > 0 && len(vectors[0]) != uc.dimensions {
		return domain.WrapError(domain.ErrEmbeddingFailure, "embed bookmark",
			fmt.Errorf("expected %d dimensions, got %d", uc.dimensions, len(vectors[0])))
	}

	updated := bookmark.WithEmbedding(vectors[0], uc.now().UTC())
	if err := uc.writer.SaveEmbedding(ctx, updated.ID, updated.Embedding); err != nil {
		return fmt.Errorf("save embedding: %w", err)
	}

	uc.logger.Info("bookmark_embedded", "bookmark_id", updated.ID, "text_length", len(text))
	return nil
}
