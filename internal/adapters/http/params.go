package httpadapter

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"

	"github.com/kirillkom/bookmark-search/internal/core/domain"
)

const userIDHeader = "X-User-Id"

// callerID returns the user id set by the authenticating gateway.
func callerID(r *http.Request) (string, error) {
	raw := strings.TrimSpace(r.Header.Get(userIDHeader))
	if raw == "" {
		return "", domain.WrapError(domain.ErrUnauthorized, "resolve caller", fmt.Errorf("%s header is required", userIDHeader))
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", domain.WrapError(domain.ErrUnauthorized, "resolve caller", fmt.Errorf("%s is not a valid uuid", userIDHeader))
	}
	return id.String(), nil
}

func bookmarkIDParam(r *http.Request) (string, error) {
	var raw string
	err := runtime.BindStyledParameterWithOptions("simple", "bookmarkId", r.PathValue("bookmarkId"), &raw, runtime.BindStyledParameterOptions{
		ParamLocation: runtime.ParamLocationPath,
		Explode:       false,
		Required:      true,
	})
	if err != nil {
		return "", domain.WrapError(domain.ErrInvalidInput, "bind bookmarkId", err)
	}
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", domain.WrapError(domain.ErrInvalidInput, "bind bookmarkId", fmt.Errorf("bookmark id is not a valid uuid"))
	}
	return id.String(), nil
}

// limitParam binds the optional limit query parameter. Absent means 0 so the use case applies its default.
func limitParam(r *http.Request) (int, error) {
	var limit *int
	if err := runtime.BindQueryParameter("form", true, false, "limit", r.URL.Query(), &limit); err != nil {
		return 0, domain.WrapError(domain.ErrInvalidInput, "bind limit", err)
	}
	if limit == nil {
		return 0, nil
	}
	return *limit, nil
}
