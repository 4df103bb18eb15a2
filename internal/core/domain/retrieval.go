package domain

import (
	"fmt"
	"strings"
	"time"
)

type SearchMode string

const (
	SearchModeVector  SearchMode = "vector"
	SearchModeKeyword SearchMode = "keyword"
	SearchModeHybrid  SearchMode = "hybrid"
)

// ParseSearchMode accepts the three mode names case-insensitively. An empty value
// yields an empty mode, meaning the configured default applies.
func ParseSearchMode(raw string) (SearchMode, error) {
	switch SearchMode(strings.ToLower(strings.TrimSpace(raw))) {
	case "":
		return "", nil
	case SearchModeVector:
		return SearchModeVector, nil
	case SearchModeKeyword:
		return SearchModeKeyword, nil
	case SearchModeHybrid:
		return SearchModeHybrid, nil
	default:
		return "", WrapError(ErrInvalidInput, "parse search mode", fmt.Errorf("unknown mode %q", raw))
	}
}

// SearchFilter narrows both retrieval channels identically.
type SearchFilter struct {
	FromDate *time.Time
	ToDate   *time.Time
	Domain   string
}

type SearchQuery struct {
	Text         string
	Limit        int
	MinimumScore float64
	Filter       SearchFilter
	Mode         SearchMode
}

// RetrievalResult is one hit of a single channel. Rank is 1-based and dense.
type RetrievalResult struct {
	BookmarkID string
	Score      float64
	Rank       int
}

// FusedResult carries RRF score plus provenance. A nil rank or score means the channel
// did not return the candidate.
type FusedResult struct {
	BookmarkID   string
	RRFScore     float64
	VectorRank   *int
	VectorScore  *float64
	LexicalRank  *int
	LexicalScore *float64
}

// RankedResult is the final ordering unit of every search mode.
type RankedResult struct {
	FusedResult
	CrossEncoderScore *float64
	// ChannelScore is set by single-channel modes, where no fusion happens.
	ChannelScore *float64
}

// FinalScore prefers the cross-encoder score, then a single-channel score, then RRF.
func (r RankedResult) FinalScore() float64 {
	switch {
	case r.CrossEncoderScore != nil:
		return *r.CrossEncoderScore
	case r.ChannelScore != nil:
		return *r.ChannelScore
	default:
		return r.RRFScore
	}
}

type SearchResultItem struct {
	ID                string    `json:"id"`
	URL               string    `json:"url"`
	Title             string    `json:"title"`
	Description       string    `json:"description,omitempty"`
	Domain            string    `json:"domain,omitempty"`
	FaviconURL        string    `json:"favicon_url,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	SimilarityScore   float64   `json:"similarity_score"`
	HybridScore       *float64  `json:"hybrid_score,omitempty"`
	VectorRank        *int      `json:"vector_rank,omitempty"`
	VectorScore       *float64  `json:"vector_score,omitempty"`
	KeywordRank       *int      `json:"keyword_rank,omitempty"`
	KeywordScore      *float64  `json:"keyword_score,omitempty"`
	CrossEncoderScore *float64  `json:"cross_encoder_score,omitempty"`
}

type SearchResponse struct {
	Query              string             `json:"query"`
	Results            []SearchResultItem `json:"results"`
	TotalResults       int                `json:"total_results"`
	ProcessingTimeMs   int64              `json:"processing_time_ms"`
	Mode               SearchMode         `json:"mode"`
	VectorResultCount  int                `json:"vector_result_count"`
	KeywordResultCount int                `json:"keyword_result_count"`
}
