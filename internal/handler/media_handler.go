package handler

import (
	"errors"
	"net/http"

	"github.com/Baaaki/instagallery/internal/service"
	"github.com/Baaaki/instagallery/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// room for multipart boundaries and headers on top of the file itself
const multipartOverhead = 1 << 20

type MediaHandler struct {
	mediaService *service.MediaService
}

func NewMediaHandler(mediaService *service.MediaService) *MediaHandler {
	return &MediaHandler{
		mediaService: mediaService,
	}
}

// Upload accepts a multipart "file" field and returns its public URL
// POST /api/upload
func (h *MediaHandler) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.mediaService.MaxSize()+multipartOverhead)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File too large"})
			return
		}
		logger.Log.Warn("Upload request parsing failed", zap.Error(err))
		badRequest(c, "file is required")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	defer file.Close()

	result, err := h.mediaService.Upload(c.Request.Context(), fileHeader.Filename, file)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// GET /api/filters
func (h *MediaHandler) ListFilters(c *gin.Context) {
	filters, err := h.mediaService.ListFilters(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"filters": filters,
	})
}
