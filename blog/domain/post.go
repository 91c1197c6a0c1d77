package domain

import (
	"context"
	"time"
)

// PostMetadata is decoded from the metadata block at the top of a post.
type PostMetadata struct {
	Title       string    `json:"title"`
	Author      string    `json:"author"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
}

// Post is the result of rendering a post source document.
type Post struct {
	HTML     string
	Metadata PostMetadata
}

// PostRecord is the index entry written after each successful render.
// Only metadata is kept; the rendered HTML lives in the in-memory cache.
type PostRecord struct {
	Number      uint64
	Slug        string
	Title       string
	Author      string
	Description string
	Date        time.Time
	RenderedAt  time.Time
}

// ID returns the identifier the record was rendered from.
func (r *PostRecord) ID() PostID {
	return PostID{Number: r.Number, Slug: r.Slug}
}

type PostRepository interface {
	UpsertPost(ctx context.Context, p *PostRecord) error
	GetPost(ctx context.Context, number uint64) (*PostRecord, error)
	ListPosts(ctx context.Context, limit int, offset int) ([]*PostRecord, error)
}

// RenderCache holds rendered post HTML keyed by PostID.CacheKey.
type RenderCache interface {
	// GetOrRender returns the cached HTML for id if it is fresh, otherwise it
	// calls render and stores the result. Failed renders are not stored.
	GetOrRender(id PostID, render func() (string, error)) (string, error)
}
