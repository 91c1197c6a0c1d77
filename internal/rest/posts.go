package rest

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/dfryer1193/goblog/api"
	"github.com/dfryer1193/goblog/blog/domain"
)

const (
	dateLayout       = "2006-01-02"
	defaultPageLimit = 10
	maxPageLimit     = 100
)

func (h *Handler) GetPosts(c *gin.Context) {
	limit, err := queryInt(c, "limit", defaultPageLimit)
	if err != nil || limit <= 0 || limit > maxPageLimit {
		c.JSON(http.StatusBadRequest, api.Error{Error: "invalid_query", Message: "limit must be between 1 and 100"})
		return
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil || offset < 0 {
		c.JSON(http.StatusBadRequest, api.Error{Error: "invalid_query", Message: "offset must be a non-negative integer"})
		return
	}

	records, err := h.posts.ListPosts(c.Request.Context(), limit, offset)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list posts")
		c.JSON(http.StatusInternalServerError, api.Error{Error: domain.KindUnknown.String(), Message: "could not list posts"})
		return
	}

	list := api.PostList{
		Posts:  make([]api.PostSummary, 0, len(records)),
		Limit:  limit,
		Offset: offset,
	}
	for _, r := range records {
		list.Posts = append(list.Posts, api.PostSummary{
			ID:          r.ID().String(),
			Number:      r.Number,
			Slug:        r.Slug,
			Title:       r.Title,
			Author:      r.Author,
			Description: r.Description,
			Date:        r.Date.Format(dateLayout),
		})
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) GetPost(c *gin.Context) {
	value, present := c.Params.Get("postId")
	id, err := domain.PostIDFromParam(value, present)
	if err != nil {
		writeLoadError(c, domain.InvalidIDError(err))
		return
	}

	post, err := h.posts.LoadPostContent(c.Request.Context(), id)
	if err != nil {
		writeLoadError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.Post{
		HTML: post.HTML,
		Metadata: api.PostMetadata{
			Title:       post.Metadata.Title,
			Author:      post.Metadata.Author,
			Description: post.Metadata.Description,
			Date:        post.Metadata.Date.Format(dateLayout),
		},
	})
}

func (h *Handler) GetHighlightCSS(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.stylesheet.WriteCSS(&buf); err != nil {
		log.Error().Err(err).Msg("Failed to write highlight stylesheet")
		c.Status(http.StatusInternalServerError)
		return
	}
	c.Data(http.StatusOK, "text/css; charset=utf-8", buf.Bytes())
}

// writeLoadError maps the pipeline error taxonomy onto HTTP statuses.
func writeLoadError(c *gin.Context, err error) {
	loadErr := domain.AsLoadError(err)

	status := http.StatusInternalServerError
	switch {
	case errors.Is(loadErr, domain.ErrInvalidID):
		status = http.StatusBadRequest
	case errors.Is(loadErr, domain.ErrNotFound):
		status = http.StatusNotFound
	}

	c.JSON(status, api.Error{
		Error:   loadErr.Kind.String(),
		Message: loadErr.Error(),
	})
}

func queryInt(c *gin.Context, key string, fallback int) (int, error) {
	raw, ok := c.GetQuery(key)
	if !ok || raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}
