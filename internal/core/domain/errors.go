package domain

import (
	"errors"
	"fmt"
)

var (
	ErrBookmarkNotFound = errors.New("bookmark not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrTemporary        = errors.New("temporary failure")
	ErrEmbeddingFailure = errors.New("embedding failure")
	ErrRetrievalFailure = errors.New("retrieval failure")
	ErrRerankFailure    = errors.New("rerank failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

// ErrorCategory returns the stable category name reported to callers.
// Validation and not-found win over transport kinds because they are never retried.
func ErrorCategory(err error) string {
	switch {
	case err == nil:
		return ""
	case IsKind(err, ErrInvalidInput):
		return "validation_failure"
	case IsKind(err, ErrBookmarkNotFound):
		return "not_found"
	case IsKind(err, ErrUnauthorized):
		return "unauthorized"
	case IsKind(err, ErrEmbeddingFailure):
		return "embedding_failure"
	case IsKind(err, ErrRerankFailure):
		return "rerank_failure"
	case IsKind(err, ErrRetrievalFailure):
		return "retrieval_failure"
	case IsKind(err, ErrTemporary):
		return "temporary_failure"
	default:
		return "internal"
	}
}
