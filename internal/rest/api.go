package rest

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dfryer1193/goblog/blog/domain"
)

// PostService is the part of the application layer the transport needs.
type PostService interface {
	LoadPostContent(ctx context.Context, id domain.PostID) (*domain.Post, error)
	ListPosts(ctx context.Context, limit int, offset int) ([]*domain.PostRecord, error)
}

// StylesheetWriter writes the CSS matching highlighted code blocks.
type StylesheetWriter interface {
	WriteCSS(w io.Writer) error
}

type Handler struct {
	posts      PostService
	stylesheet StylesheetWriter
	images     domain.ImageRepository
}

// NewHandler builds the HTTP handlers. images may be nil, in which case no
// image route is served.
func NewHandler(posts PostService, stylesheet StylesheetWriter, images domain.ImageRepository) *Handler {
	return &Handler{
		posts:      posts,
		stylesheet: stylesheet,
		images:     images,
	}
}

func NewApi(router *gin.Engine, h *Handler) {
	postsV1 := router.Group("posts/v1")
	{
		postsV1.GET("/", h.GetPosts)
		postsV1.GET("/:postId", h.GetPost)
	}

	router.GET("/assets/highlight.css", h.GetHighlightCSS)
	if h.images != nil {
		router.GET("/images/:name", h.GetImage)
	}

	router.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
