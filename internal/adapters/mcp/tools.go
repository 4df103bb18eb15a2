package mcpadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/kirillkom/bookmark-search/internal/core/domain"
)

const (
	ErrorCodeInvalidParams    = -32602
	ErrorCodeInternalError    = -32603
	ErrorCodeBookmarkNotFound = -32001
	ErrorCodeUpstreamFailure  = -32002
)

const defaultMinimumScore = 0.5

type ToolError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

func newToolError(code int, message string, data interface{}) error {
	return &ToolError{Code: code, Message: message, Data: data}
}

func (s *Server) handleSearchBookmarks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newToolError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	query, ok := args["query"].(string)
	if !ok || strings.TrimSpace(query) == "" {
		return nil, newToolError(ErrorCodeInvalidParams, "query parameter is required", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}

	filter := domain.SearchFilter{Domain: getStringDefault(args, "domain", "")}
	var err error
	if filter.FromDate, err = getTimeArg(args, "from_date"); err != nil {
		return nil, err
	}
	if filter.ToDate, err = getTimeArg(args, "to_date"); err != nil {
		return nil, err
	}

	resp, err := s.search.Search(ctx, s.userID, domain.SearchQuery{
		Text:         query,
		Limit:        getIntDefault(args, "limit", 0),
		MinimumScore: getFloatDefault(args, "minimum_score", defaultMinimumScore),
		Filter:       filter,
		Mode:         domain.SearchMode(getStringDefault(args, "mode", "")),
	})
	if err != nil {
		return nil, toolErrorFromDomain(err)
	}
	return mcp.NewToolResultText(formatJSON(resp)), nil
}

func (s *Server) handleFindSimilarBookmarks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newToolError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	bookmarkID, ok := args["bookmark_id"].(string)
	if !ok || strings.TrimSpace(bookmarkID) == "" {
		return nil, newToolError(ErrorCodeInvalidParams, "bookmark_id parameter is required", map[string]interface{}{
			"param":  "bookmark_id",
			"reason": "missing or empty",
		})
	}
	if _, err := uuid.Parse(bookmarkID); err != nil {
		return nil, toolErrorFromDomain(domain.WrapError(domain.ErrInvalidInput, "find similar", fmt.Errorf("bookmark_id must be a uuid: %w", err)))
	}

	resp, err := s.search.FindSimilar(ctx, s.userID, bookmarkID, getIntDefault(args, "limit", 0))
	if err != nil {
		return nil, toolErrorFromDomain(err)
	}
	return mcp.NewToolResultText(formatJSON(resp)), nil
}

func toolErrorFromDomain(err error) error {
	data := map[string]interface{}{
		"category": domain.ErrorCategory(err),
		"error":    err.Error(),
	}
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return newToolError(ErrorCodeInvalidParams, "invalid search request", data)
	case domain.IsKind(err, domain.ErrBookmarkNotFound):
		return newToolError(ErrorCodeBookmarkNotFound, "bookmark not found", data)
	case domain.IsKind(err, domain.ErrEmbeddingFailure),
		domain.IsKind(err, domain.ErrRerankFailure),
		domain.IsKind(err, domain.ErrTemporary):
		return newToolError(ErrorCodeUpstreamFailure, "inference service unavailable", data)
	default:
		return newToolError(ErrorCodeInternalError, "search failed", data)
	}
}

func formatJSON(data interface{}) string {
	payload, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"error": %q}`, err.Error())
	}
	return string(payload)
}

func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

func getFloatDefault(args map[string]interface{}, key string, defaultValue float64) float64 {
	if val, ok := args[key].(float64); ok {
		return val
	}
	return defaultValue
}

func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}

func getTimeArg(args map[string]interface{}, key string) (*time.Time, error) {
	raw := strings.TrimSpace(getStringDefault(args, key, ""))
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, newToolError(ErrorCodeInvalidParams, key+" must be RFC 3339", map[string]interface{}{
			"param": key,
			"value": raw,
		})
	}
	return &parsed, nil
}
