package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/pgvector/pgvector-go"

	"github.com/kirillkom/bookmark-search/internal/core/domain"
	"github.com/kirillkom/bookmark-search/internal/core/ports"
)

// SearchIndex answers nearest-neighbor queries through pgvector and BM25 queries through
// ParadeDB pg_search, both over the bookmarks table.
type SearchIndex struct {
	db               *sql.DB
	minimumBM25Score float64
}

func NewSearchIndex(db *sql.DB, minimumBM25Score float64) *SearchIndex {
	return &SearchIndex{db: db, minimumBM25Score: minimumBM25Score}
}

func (s *SearchIndex) NearestByVector(ctx context.Context, query ports.VectorQuery) ([]ports.VectorMatch, error) {
	if len(query.Vector) == 0 {
		return nil, fmt.Errorf("query vector is empty")
	}

	args := []any{pgvector.NewVector(query.Vector), query.UserID}
	var sb strings.Builder
	sb.WriteString(`
SELECT id, embedding <=> $1::vector AS distance
FROM bookmarks
WHERE user_id = $2 AND embedding IS NOT NULL`)
	args = appendFilterClauses(&sb, args, query.Filter)
	if query.ExcludeID != "" {
		args = append(args, query.ExcludeID)
		fmt.Fprintf(&sb, " AND id <> $%d", len(args))
	}
	args = append(args, query.Limit)
	fmt.Fprintf(&sb, "\nORDER BY distance ASC\nLIMIT $%d", len(args))

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("query nearest bookmarks: %w", err)
	}
	defer rows.Close()

	out := make([]ports.VectorMatch, 0, query.Limit)
	for rows.Next() {
		var match ports.VectorMatch
		if err := rows.Scan(&match.BookmarkID, &match.Distance); err != nil {
			return nil, fmt.Errorf("scan vector match: %w", err)
		}
		out = append(out, match)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate vector matches: %w", err)
	}
	return out, nil
}

func (s *SearchIndex) SearchBM25(ctx context.Context, query ports.LexicalQuery) ([]ports.LexicalMatch, error) {
	args := []any{query.Expression, query.UserID, s.minimumBM25Score}
	var sb strings.Builder
	sb.WriteString(`
SELECT id, paradedb.score(id) AS score
FROM bookmarks
WHERE id @@@ paradedb.parse($1, lenient => true)
	AND user_id = $2
	AND paradedb.score(id) >= $3`)
	args = appendFilterClauses(&sb, args, query.Filter)
	args = append(args, query.Limit)
	fmt.Fprintf(&sb, "\nORDER BY score DESC\nLIMIT $%d", len(args))

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("query bm25 bookmarks: %w", err)
	}
	defer rows.Close()

	out := make([]ports.LexicalMatch, 0, query.Limit)
	for rows.Next() {
		var match ports.LexicalMatch
		if err := rows.Scan(&match.BookmarkID, &match.Score); err != nil {
			return nil, fmt.Errorf("scan lexical match: %w", err)
		}
		out = append(out, match)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lexical matches: %w", err)
	}
	return out, nil
}

// appendFilterClauses adds the shared created_at/domain predicates with numbered placeholders.
func appendFilterClauses(sb *strings.Builder, args []any, filter domain.SearchFilter) []any {
	if filter.FromDate != nil {
		args = append(args, filter.FromDate.UTC())
		fmt.Fprintf(sb, "\n\tAND created_at >= $%d", len(args))
	}
	if filter.ToDate != nil {
		args = append(args, filter.ToDate.UTC())
		fmt.Fprintf(sb, "\n\tAND created_at <= $%d", len(args))
	}
	if domainFilter := strings.TrimSpace(filter.Domain); domainFilter != "" {
		args = append(args, domainFilter)
		fmt.Fprintf(sb, "\n\tAND domain = $%d", len(args))
	}
	return args
}
