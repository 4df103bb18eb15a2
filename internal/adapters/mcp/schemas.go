package mcpadapter

import (
	"github.com/mark3labs/mcp-go/mcp"
)

func searchBookmarksTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_bookmarks",
		Description: "Search saved bookmarks by meaning, keywords, or both",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Natural language or keyword query (2-500 characters). Supports \"phrases\", AND, OR",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results to return (1-100)",
					"default":     20,
					"minimum":     1,
					"maximum":     100,
				},
				"minimum_score": map[string]interface{}{
					"type":        "number",
					"description": "Minimum vector similarity in [0,1]",
					"default":     0.5,
				},
				"mode": map[string]interface{}{
					"type":        "string",
					"description": "Retrieval mode",
					"enum":        []string{"hybrid", "vector", "keyword"},
					"default":     "hybrid",
				},
				"domain": map[string]interface{}{
					"type":        "string",
					"description": "Only return bookmarks from this domain",
				},
				"from_date": map[string]interface{}{
					"type":        "string",
					"description": "RFC 3339 lower bound on bookmark creation time",
				},
				"to_date": map[string]interface{}{
					"type":        "string",
					"description": "RFC 3339 upper bound on bookmark creation time",
				},
			},
			Required: []string{"query"},
		},
	}
}

func findSimilarBookmarksTool() mcp.Tool {
	return mcp.Tool{
		Name:        "find_similar_bookmarks",
		Description: "Find bookmarks semantically close to an existing bookmark",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"bookmark_id": map[string]interface{}{
					"type":        "string",
					"description": "Id of the source bookmark",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results to return (1-100)",
					"default":     10,
					"minimum":     1,
					"maximum":     100,
				},
			},
			Required: []string{"bookmark_id"},
		},
	}
}
