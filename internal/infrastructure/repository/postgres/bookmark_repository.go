package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pgvector/pgvector-go"

	"github.com/kirillkom/bookmark-search/internal/core/domain"
)

const bookmarkColumns = `id, user_id, url, title, description, notes, domain, favicon_url, og_image_url, created_at, updated_at, last_accessed_at`

type BookmarkRepository struct {
	db *sql.DB
}

func NewBookmarkRepository(db *sql.DB) *BookmarkRepository {
	return &BookmarkRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

// EnsureSchema creates the bookmarks table together with its pgvector and BM25 indexes.
func (r *BookmarkRepository) EnsureSchema(ctx context.Context, dimensions int) error {
	if dimensions <= 0 {
		return fmt.Errorf("embedding dimensions must be positive, got %d", dimensions)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026101901)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	query := fmt.Sprintf(`
CREATE EXTENSION IF NOT EXISTS vector;
CREATE EXTENSION IF NOT EXISTS pg_search;

CREATE TABLE IF NOT EXISTS bookmarks (
	id UUID PRIMARY KEY,
	user_id UUID NOT NULL,
	url TEXT NOT NULL,
	title TEXT NOT NULL,
	description TEXT,
	notes TEXT,
	domain TEXT,
	favicon_url TEXT,
	og_image_url TEXT,
	embedding vector(%d),
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ,
	last_accessed_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_bookmarks_user_created ON bookmarks(user_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_bookmarks_embedding ON bookmarks USING hnsw (embedding vector_cosine_ops);
CREATE INDEX IF NOT EXISTS idx_bookmarks_bm25 ON bookmarks
	USING bm25 (id, title, description, notes, url, domain)
	WITH (key_field = 'id');
`, dimensions)
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *BookmarkRepository) GetByID(ctx context.Context, id string) (*domain.Bookmark, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+bookmarkColumns+`
FROM bookmarks
WHERE id = $1
`, id)

	bookmark, err := scanBookmark(row, false)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrBookmarkNotFound, "get bookmark", fmt.Errorf("id=%s", id))
		}
		return nil, fmt.Errorf("scan bookmark: %w", err)
	}
	return &bookmark, nil
}

// GetByIDs loads the user's bookmarks among ids in one round trip. Unknown or foreign
// ids are absent from the result.
func (r *BookmarkRepository) GetByIDs(ctx context.Context, userID string, ids []string) (map[string]domain.Bookmark, error) {
	out := make(map[string]domain.Bookmark, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT `+bookmarkColumns+`
FROM bookmarks
WHERE user_id = $1 AND id = ANY($2::uuid[])
`, userID, ids)
	if err != nil {
		return nil, fmt.Errorf("query bookmarks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		bookmark, err := scanBookmark(rows, false)
		if err != nil {
			return nil, fmt.Errorf("scan bookmark: %w", err)
		}
		out[bookmark.ID] = bookmark
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bookmarks: %w", err)
	}
	return out, nil
}

// GetEmbedding returns the bookmark with its stored embedding. A bookmark owned by
// another user is reported as not found.
func (r *BookmarkRepository) GetEmbedding(ctx context.Context, userID, bookmarkID string) (*domain.Bookmark, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+bookmarkColumns+`, embedding::text
FROM bookmarks
WHERE id = $1 AND user_id = $2
`, bookmarkID, userID)

	bookmark, err := scanBookmark(row, true)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrBookmarkNotFound, "get embedding", fmt.Errorf("id=%s", bookmarkID))
		}
		return nil, fmt.Errorf("scan bookmark: %w", err)
	}
	return &bookmark, nil
}

func (r *BookmarkRepository) SaveEmbedding(ctx context.Context, bookmarkID string, vector []float32) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE bookmarks
SET embedding = $2::vector, updated_at = $3
WHERE id = $1
`, bookmarkID, pgvector.NewVector(vector), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save embedding: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("save embedding rows affected: %w", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrBookmarkNotFound, "save embedding", fmt.Errorf("id=%s", bookmarkID))
	}
	return nil
}

type bookmarkScanner interface {
	Scan(dest ...any) error
}

// scanBookmark reads bookmarkColumns, plus a trailing embedding column when withEmbedding is set.
func scanBookmark(scanner bookmarkScanner, withEmbedding bool) (domain.Bookmark, error) {
	var p domain.BookmarkParams
	var description, notes, site, favicon, ogImage sql.NullString
	var embedding *pgvector.Vector
	var updatedAt, lastAccessedAt sql.NullTime

	dest := []any{
		&p.ID, &p.UserID, &p.URL, &p.Title, &description, &notes, &site, &favicon, &ogImage,
		&p.CreatedAt, &updatedAt, &lastAccessedAt,
	}
	if withEmbedding {
		dest = append(dest, &embedding)
	}
	if err := scanner.Scan(dest...); err != nil {
		return domain.Bookmark{}, err
	}

	p.Description = description.String
	p.Notes = notes.String
	p.Domain = site.String
	p.FaviconURL = favicon.String
	p.OGImageURL = ogImage.String
	if updatedAt.Valid {
		p.UpdatedAt = &updatedAt.Time
	}
	if lastAccessedAt.Valid {
		p.LastAccessedAt = &lastAccessedAt.Time
	}
	if embedding != nil {
		p.Embedding = embedding.Slice()
	}
	return domain.NewBookmark(p), nil
}
