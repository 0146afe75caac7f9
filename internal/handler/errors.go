package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Baaaki/instagallery/internal/models"
	"github.com/Baaaki/instagallery/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var statusByKind = map[models.ErrorKind]int{
	models.KindNotFound:         http.StatusNotFound,
	models.KindForbidden:        http.StatusForbidden,
	models.KindUnauthenticated:  http.StatusUnauthorized,
	models.KindValidationFailed: http.StatusBadRequest,
	models.KindConflict:         http.StatusConflict,
	models.KindInternal:         http.StatusInternalServerError,
}

// respondError writes err as {"error": message}. Internal details stay in
// the log.
func respondError(c *gin.Context, err error) {
	var appErr *models.AppError
	if !errors.As(err, &appErr) {
		appErr = models.NewInternalError(err)
	}

	status, ok := statusByKind[appErr.Kind]
	if !ok {
		status = http.StatusInternalServerError
	}
	if status == http.StatusInternalServerError {
		logger.Log.Error("Internal error",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
		_ = c.Error(err)
		c.JSON(status, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(status, gin.H{"error": appErr.Message})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": message})
}

// pathID parses a positive numeric path parameter
func pathID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		badRequest(c, "Invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// pageParams reads ?page=&size=. Missing values are zero and get their
// defaults downstream; non-numeric values are rejected.
func pageParams(c *gin.Context) (page, size int, ok bool) {
	if v := c.Query("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			badRequest(c, "Invalid page parameter")
			return 0, 0, false
		}
		page = n
	}
	if v := c.Query("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			badRequest(c, "Invalid size parameter")
			return 0, 0, false
		}
		size = n
	}
	return page, size, true
}
