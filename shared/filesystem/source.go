package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/dfryer1193/goblog/blog/domain"
)

const (
	postsDir  = "posts"
	imagesDir = "images"
)

var (
	_ domain.SourceRepository = (*SourceRepository)(nil)
	_ domain.ImageRepository  = (*SourceRepository)(nil)
)

// SourceRepository reads post sources from <root>/posts and images from
// <root>/images on the local disk.
type SourceRepository struct {
	root string // absolute path to the site root
}

// NewSourceRepository creates a source rooted at root. The directory must
// already exist.
func NewSourceRepository(root string) (*SourceRepository, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("filesystem: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("filesystem: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("filesystem: root is not a directory: %s", abs)
	}
	return &SourceRepository{root: abs}, nil
}

// GetPostSource reads posts/<number>-<slug>.md. An id without a slug also
// matches posts/<number>.md, then the lexically first posts/<number>-*.md.
func (r *SourceRepository) GetPostSource(_ context.Context, id domain.PostID) ([]byte, error) {
	for _, name := range r.candidates(id) {
		abs, err := r.safePath(filepath.Join(postsDir, name))
		if err != nil {
			return nil, err
		}
		data, err := os.ReadFile(abs)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("filesystem: read %s: %w", name, err)
		}
		return data, nil
	}
	return nil, domain.ErrNotFound
}

// GetImage reads images/<name>.
func (r *SourceRepository) GetImage(_ context.Context, name string) (*domain.Image, error) {
	if err := domain.ValidateImageName(name); err != nil {
		return nil, err
	}
	abs, err := r.safePath(filepath.Join(imagesDir, name))
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, domain.ErrImageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("filesystem: read image %s: %w", name, err)
	}
	return &domain.Image{
		Name:        name,
		Content:     data,
		ContentType: mimetype.Detect(data).String(),
	}, nil
}

func (r *SourceRepository) candidates(id domain.PostID) []string {
	number := strconv.FormatUint(id.Number, 10)
	if id.Slug != "" {
		return []string{number + "-" + id.Slug + ".md"}
	}

	names := []string{number + "-.md", number + ".md"}
	matches, err := filepath.Glob(filepath.Join(r.root, postsDir, number+"-*.md"))
	if err != nil {
		return names
	}
	sort.Strings(matches)
	for _, m := range matches {
		names = append(names, filepath.Base(m))
	}
	return names
}

// safePath resolves rel against the root and rejects any result that
// escapes it.
func (r *SourceRepository) safePath(rel string) (string, error) {
	cleaned := filepath.Clean(rel)
	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("filesystem: absolute paths not allowed: %s", rel)
	}
	abs, err := filepath.Abs(filepath.Join(r.root, cleaned))
	if err != nil {
		return "", fmt.Errorf("filesystem: resolve path: %w", err)
	}
	if !strings.HasPrefix(abs, r.root+string(os.PathSeparator)) {
		return "", fmt.Errorf("filesystem: path escapes site root: %s", rel)
	}
	return abs, nil
}
