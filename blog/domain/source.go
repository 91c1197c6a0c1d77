package domain

import (
	"context"
)

// SourceRepository locates and reads the markdown source of a post.
// Implementations return ErrNotFound when no document exists for the id.
type SourceRepository interface {
	GetPostSource(ctx context.Context, id PostID) ([]byte, error)
}
