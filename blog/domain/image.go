package domain

import (
	"context"
	"errors"
	"path"
	"strings"
)

var (
	ErrImageNotFound    = errors.New("image not found")
	ErrInvalidImageName = errors.New("invalid image name")
)

// Image is a static file referenced from a post. Relative image links in
// posts are rewritten to /images/<name>.
type Image struct {
	Name        string
	Content     []byte
	ContentType string
}

type ImageRepository interface {
	// GetImage reads images/<name> from the post source.
	GetImage(ctx context.Context, name string) (*Image, error)
}

// ValidateImageName accepts a plain file name only: no separators and no
// traversal.
func ValidateImageName(name string) error {
	if name == "" || name == "." || strings.Contains(name, "..") {
		return ErrInvalidImageName
	}
	if strings.ContainsAny(name, `/\`) || path.Base(name) != name {
		return ErrInvalidImageName
	}
	return nil
}
