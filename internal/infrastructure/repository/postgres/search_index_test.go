package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/kirillkom/bookmark-search/internal/core/domain"
	"github.com/kirillkom/bookmark-search/internal/core/ports"
)

func newIndexWithMock(t *testing.T) (*SearchIndex, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return NewSearchIndex(db, 1.0), mock, func() { _ = db.Close() }
}

func TestNearestByVectorBuildsScopedQuery(t *testing.T) {
	index, mock, done := newIndexWithMock(t)
	defer done()

	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("(?s)"+regexp.QuoteMeta("embedding <=> $1::vector")+
		".*"+regexp.QuoteMeta("AND created_at >= $3")+
		".*"+regexp.QuoteMeta("AND domain = $4")+
		".*"+regexp.QuoteMeta("AND id <> $5")+
		".*"+regexp.QuoteMeta("LIMIT $6")).
		WithArgs("[1,0]", "u1", from, "go.dev", "b0", 5).
		WillReturnRows(sqlmock.NewRows([]string{"id", "distance"}).
			AddRow("b1", 0.0).
			AddRow("b2", 0.4))

	matches, err := index.NearestByVector(context.Background(), ports.VectorQuery{
		UserID:    "u1",
		Vector:    []float32{1, 0},
		Filter:    domain.SearchFilter{FromDate: &from, Domain: "go.dev"},
		Limit:     5,
		ExcludeID: "b0",
	})
	if err != nil {
		t.Fatalf("NearestByVector() error = %v", err)
	}
	if len(matches) != 2 || matches[1].BookmarkID != "b2" || matches[1].Distance != 0.4 {
		t.Fatalf("unexpected matches %+v", matches)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSearchBM25UsesParadeDBParse(t *testing.T) {
	index, mock, done := newIndexWithMock(t)
	defer done()

	to := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("(?s)"+regexp.QuoteMeta("paradedb.parse($1, lenient => true)")+
		".*"+regexp.QuoteMeta("paradedb.score(id) >= $3")+
		".*"+regexp.QuoteMeta("AND created_at <= $4")+
		".*"+regexp.QuoteMeta("LIMIT $5")).
		WithArgs("golang OR tips", "u1", 1.0, to, 50).
		WillReturnRows(sqlmock.NewRows([]string{"id", "score"}).AddRow("b1", 8.5))

	matches, err := index.SearchBM25(context.Background(), ports.LexicalQuery{
		UserID:     "u1",
		Expression: "golang OR tips",
		Filter:     domain.SearchFilter{ToDate: &to},
		Limit:      50,
	})
	if err != nil {
		t.Fatalf("SearchBM25() error = %v", err)
	}
	if len(matches) != 1 || matches[0].Score != 8.5 {
		t.Fatalf("unexpected matches %+v", matches)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSearchBM25PropagatesQueryError(t *testing.T) {
	index, mock, done := newIndexWithMock(t)
	defer done()

	mock.ExpectQuery("paradedb").WillReturnError(errors.New("index missing"))
	if _, err := index.SearchBM25(context.Background(), ports.LexicalQuery{UserID: "u1", Expression: "x", Limit: 1}); err == nil {
		t.Fatalf("expected error")
	}
}
