package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "moments-backend/internal/common/errors"
	"moments-backend/internal/features/media/service"
)

type MediaHandler struct {
	service service.MediaService
}

func NewMediaHandler(service service.MediaService) *MediaHandler {
	return &MediaHandler{service: service}
}

func (h *MediaHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/media", h.upload)
}

// @Summary Upload media
// @Description Stores an image or video and returns its sha256 content hash and URL.
// @Tags media
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Media file"
// @Success 201 {object} models.UploadResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 502 {object} middleware.ErrorResponse
// @Router /media [post]
func (h *MediaHandler) upload(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		c.Error(apperrors.NewValidationError("file", "is required"))
		return
	}
	f, err := header.Open()
	if err != nil {
		c.Error(apperrors.NewValidationError("file", "could not be read"))
		return
	}
	defer f.Close()

	res, err := h.service.Upload(c.Request.Context(), header.Filename, f)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, res)
}
