package github

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/go-github/v75/github"

	"github.com/dfryer1193/goblog/blog/domain"
)

const (
	postsDir  = "posts"
	imagesDir = "images"
)

var (
	_ domain.SourceRepository = (*GithubSourceRepository)(nil)
	_ domain.ImageRepository  = (*GithubSourceRepository)(nil)
)

// GithubSourceRepository is an implementation of domain.SourceRepository that
// reads post sources from a GitHub repository through the contents API.
type GithubSourceRepository struct {
	client  *github.Client
	owner   string
	gitRepo string
	ref     string
}

// NewGithubSourceRepository creates a new GithubSourceRepository. An empty ref
// reads from the repository's default branch.
func NewGithubSourceRepository(client *github.Client, owner string, gitRepo string, ref string) *GithubSourceRepository {
	return &GithubSourceRepository{
		client:  client,
		owner:   owner,
		gitRepo: gitRepo,
		ref:     ref,
	}
}

// GetPostSource fetches posts/<number>-<slug>.md. When the id has no slug the
// posts directory is listed and the first file for the number is used.
func (g *GithubSourceRepository) GetPostSource(ctx context.Context, id domain.PostID) ([]byte, error) {
	filePath := path.Join(postsDir, id.String()+".md")
	if id.Slug == "" {
		resolved, err := g.resolvePath(ctx, id.Number)
		if err != nil {
			return nil, err
		}
		filePath = resolved
	}
	return g.GetFileContents(ctx, filePath)
}

// GetImage fetches images/<name>. Files larger than 1MB are not returned
// inline by the contents API and are downloaded instead.
func (g *GithubSourceRepository) GetImage(ctx context.Context, name string) (*domain.Image, error) {
	if err := domain.ValidateImageName(name); err != nil {
		return nil, err
	}

	filePath := path.Join(imagesDir, name)
	op := fmt.Sprintf("downloading %s at ref %q", filePath, g.ref)
	rc, _, err := g.client.Repositories.DownloadContents(ctx, g.owner, g.gitRepo, filePath, g.contentOptions())
	if err != nil {
		err = handleGithubError(op, err)
		if errors.Is(err, domain.ErrNotFound) || strings.Contains(err.Error(), "no file named") {
			return nil, domain.ErrImageNotFound
		}
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("github: %s failed to read content: %w", op, err)
	}

	return &domain.Image{
		Name:        name,
		Content:     data,
		ContentType: mimetype.Detect(data).String(),
	}, nil
}

// GetFileContents fetches the contents of a file at the configured ref.
func (g *GithubSourceRepository) GetFileContents(ctx context.Context, filePath string) ([]byte, error) {
	op := fmt.Sprintf("getting file %s at ref %q", filePath, g.ref)
	fileContent, _, _, err := g.client.Repositories.GetContents(ctx, g.owner, g.gitRepo, filePath, g.contentOptions())
	if err != nil {
		return nil, handleGithubError(op, err)
	}

	if fileContent == nil {
		// A directory listing came back instead of a file.
		return nil, domain.ErrNotFound
	}

	content, err := fileContent.GetContent()
	if err != nil {
		return nil, fmt.Errorf("github: %s failed to decode content: %w", op, err)
	}

	return []byte(content), nil
}

// GetRepoFullName returns the repository's full name (e.g., "owner/repo").
func (g *GithubSourceRepository) GetRepoFullName() string {
	return fmt.Sprintf("%s/%s", g.owner, g.gitRepo)
}

func (g *GithubSourceRepository) resolvePath(ctx context.Context, number uint64) (string, error) {
	op := fmt.Sprintf("listing %s at ref %q", postsDir, g.ref)
	_, entries, _, err := g.client.Repositories.GetContents(ctx, g.owner, g.gitRepo, postsDir, g.contentOptions())
	if err != nil {
		return "", handleGithubError(op, err)
	}

	prefix := strconv.FormatUint(number, 10)
	exact := prefix + ".md"
	var candidates []string
	for _, entry := range entries {
		if entry.GetType() != "file" {
			continue
		}
		name := entry.GetName()
		if name == exact {
			return entry.GetPath(), nil
		}
		if strings.HasPrefix(name, prefix+"-") && strings.HasSuffix(name, ".md") {
			candidates = append(candidates, entry.GetPath())
		}
	}
	if len(candidates) == 0 {
		return "", domain.ErrNotFound
	}
	sort.Strings(candidates)
	return candidates[0], nil
}

func (g *GithubSourceRepository) contentOptions() *github.RepositoryContentGetOptions {
	if g.ref == "" {
		return nil
	}
	return &github.RepositoryContentGetOptions{Ref: g.ref}
}

// handleGithubError inspects an error from the go-github client and returns a more informative, structured error.
// A 404 becomes domain.ErrNotFound.
func handleGithubError(op string, err error) error {
	if err == nil {
		return nil
	}

	var errResp *github.ErrorResponse
	if errors.As(err, &errResp) {
		if errResp.Response != nil && errResp.Response.StatusCode == http.StatusNotFound {
			return domain.ErrNotFound
		}
		status := 0
		if errResp.Response != nil {
			status = errResp.Response.StatusCode
		}
		return fmt.Errorf("github: %s failed with status %d: %s", op, status, errResp.Message)
	}

	return fmt.Errorf("github: %s failed: %w", op, err)
}
