package domain

import (
	"strings"
	"time"
)

// Bookmark is an immutable snapshot of a saved URL. Use NewBookmark and the With* helpers
// instead of mutating fields in place.
type Bookmark struct {
	ID             string     `json:"id"`
	UserID         string     `json:"user_id"`
	URL            string     `json:"url"`
	Title          string     `json:"title"`
	Description    string     `json:"description,omitempty"`
	Notes          string     `json:"notes,omitempty"`
	Domain         string     `json:"domain,omitempty"`
	FaviconURL     string     `json:"favicon_url,omitempty"`
	OGImageURL     string     `json:"og_image_url,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      *time.Time `json:"updated_at,omitempty"`
	LastAccessedAt *time.Time `json:"last_accessed_at,omitempty"`
	Embedding      []float32  `json:"-"`
}

type BookmarkParams struct {
	ID             string
	UserID         string
	URL            string
	Title          string
	Description    string
	Notes          string
	Domain         string
	FaviconURL     string
	OGImageURL     string
	CreatedAt      time.Time
	UpdatedAt      *time.Time
	LastAccessedAt *time.Time
	Embedding      []float32
}

func NewBookmark(p BookmarkParams) Bookmark {
	return Bookmark{
		ID:             p.ID,
		UserID:         p.UserID,
		URL:            p.URL,
		Title:          p.Title,
		Description:    p.Description,
		Notes:          p.Notes,
		Domain:         p.Domain,
		FaviconURL:     p.FaviconURL,
		OGImageURL:     p.OGImageURL,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      copyTime(p.UpdatedAt),
		LastAccessedAt: copyTime(p.LastAccessedAt),
		Embedding:      copyVector(p.Embedding),
	}
}

// WithEmbedding returns a copy of b carrying vector.
func (b Bookmark) WithEmbedding(vector []float32, at time.Time) Bookmark {
	next := b
	next.Embedding = copyVector(vector)
	next.UpdatedAt = &at
	return next
}

func (b Bookmark) HasEmbedding() bool {
	return len(b.Embedding) > 0
}

// TextForEmbedding is the document text the embedding model sees for this bookmark.
func (b Bookmark) TextForEmbedding() string {
	parts := []string{b.Title}
	if strings.TrimSpace(b.Description) != "" {
		parts = append(parts, b.Description)
	}
	if strings.TrimSpace(b.Notes) != "" {
		parts = append(parts, b.Notes)
	}
	return strings.Join(parts, " ")
}

// TextForRerank is the candidate text handed to the cross-encoder.
func (b Bookmark) TextForRerank() string {
	parts := make([]string, 0, 3)
	for _, part := range []string{b.Title, b.Description, b.URL} {
		if part = strings.TrimSpace(part); part != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, " ")
}

func copyVector(v []float32) []float32 {
	if v == nil {
		return nil
	}
	out := make([]float32, len(v))
	copy(out, v)
	return out
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
