package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/dfryer1193/goblog/api"
	"github.com/dfryer1193/goblog/blog/domain"
)

const imageCacheControl = "public, max-age=3600"

func (h *Handler) GetImage(c *gin.Context) {
	name := c.Param("name")

	img, err := h.images.GetImage(c.Request.Context(), name)
	switch {
	case errors.Is(err, domain.ErrInvalidImageName):
		c.JSON(http.StatusBadRequest, api.Error{Error: "invalid_image_name", Message: err.Error()})
		return
	case errors.Is(err, domain.ErrImageNotFound):
		c.JSON(http.StatusNotFound, api.Error{Error: "image_not_found", Message: err.Error()})
		return
	case err != nil:
		log.Error().Err(err).Str("image", name).Msg("Failed to load image")
		c.JSON(http.StatusInternalServerError, api.Error{Error: domain.KindUnknown.String(), Message: "could not load image"})
		return
	}

	c.Header("Cache-Control", imageCacheControl)
	c.Data(http.StatusOK, img.ContentType, img.Content)
}
