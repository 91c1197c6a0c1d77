package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dfryer1193/goblog/blog/domain"
	"github.com/dfryer1193/goblog/blog/markdown"
)

// PostService loads, renders and caches posts.
type PostService struct {
	sourceRepo domain.SourceRepository
	engine     *markdown.Engine
	rewriter   *Rewriter
	cache      domain.RenderCache

	// repo is optional; when set every fresh render is recorded in the index.
	repo domain.PostRepository
	now  func() time.Time
}

func NewPostService(
	sourceRepo domain.SourceRepository,
	engine *markdown.Engine,
	rewriter *Rewriter,
	cache domain.RenderCache,
	repo domain.PostRepository,
) *PostService {
	return &PostService{
		sourceRepo: sourceRepo,
		engine:     engine,
		rewriter:   rewriter,
		cache:      cache,
		repo:       repo,
		now:        time.Now,
	}
}

// LoadPostContent renders the post identified by id. The HTML may come from
// the render cache; metadata is always decoded from the current source.
// Every error returned is a *domain.PostLoadError.
func (s *PostService) LoadPostContent(ctx context.Context, id domain.PostID) (*domain.Post, error) {
	source, err := s.sourceRepo.GetPostSource(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		log.Error().Err(err).Str("postID", id.String()).Msg("Failed to read post source")
		return nil, domain.AsLoadError(err)
	}

	doc := s.engine.Parse(source)

	var rendered *domain.Post
	html, err := s.cache.GetOrRender(id, func() (string, error) {
		post, err := s.rewriter.Rewrite(source, doc)
		if err != nil {
			return "", err
		}
		rendered = post
		return post.HTML, nil
	})
	if err != nil {
		log.Warn().Err(err).Str("postID", id.String()).Msg("Failed to render post")
		return nil, domain.AsLoadError(err)
	}

	if rendered != nil {
		s.recordPost(ctx, id, rendered.Metadata)
		return rendered, nil
	}

	// Cache hit, or another request rendered the post concurrently: doc is
	// still untouched, so the metadata block can be decoded from it directly.
	meta, err := ExtractMetadata(source, doc)
	if err != nil {
		return nil, domain.AsLoadError(err)
	}
	return &domain.Post{HTML: html, Metadata: meta}, nil
}

// ListPosts returns index entries for previously rendered posts.
func (s *PostService) ListPosts(ctx context.Context, limit int, offset int) ([]*domain.PostRecord, error) {
	if s.repo == nil {
		return []*domain.PostRecord{}, nil
	}
	records, err := s.repo.ListPosts(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("could not list posts: %w", err)
	}
	return records, nil
}

func (s *PostService) recordPost(ctx context.Context, id domain.PostID, meta domain.PostMetadata) {
	if s.repo == nil {
		return
	}

	record := &domain.PostRecord{
		Number:      id.Number,
		Slug:        id.Slug,
		Title:       meta.Title,
		Author:      meta.Author,
		Description: meta.Description,
		Date:        meta.Date,
		RenderedAt:  s.now().UTC(),
	}
	if err := s.repo.UpsertPost(ctx, record); err != nil {
		log.Error().Err(err).Str("postID", id.String()).Msg("Failed to record post in index")
	}
}
