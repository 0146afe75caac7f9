package handler

import (
	"net/http"

	"github.com/Baaaki/instagallery/internal/authz"
	"github.com/Baaaki/instagallery/internal/middleware"
	"github.com/Baaaki/instagallery/internal/service"
	"github.com/Baaaki/instagallery/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AdminHandler struct {
	postService *service.PostService
	userService *service.UserService
}

func NewAdminHandler(postService *service.PostService, userService *service.UserService) *AdminHandler {
	return &AdminHandler{
		postService: postService,
		userService: userService,
	}
}

// ListUsers returns every account
// GET /api/admin/users
func (h *AdminHandler) ListUsers(c *gin.Context) {
	p := middleware.PrincipalFrom(c)
	if admin, ok := authz.AsUser(p); ok {
		logger.Log.Info("Admin fetching all users",
			zap.Uint("admin_id", admin.UserID),
		)
	}

	users, err := h.userService.ListUsers(c.Request.Context(), p)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"users": users,
	})
}

// DeleteAllPosts wipes every post. The service rejects non-admins.
// DELETE /api/admin/delAllPost
func (h *AdminHandler) DeleteAllPosts(c *gin.Context) {
	deleted, err := h.postService.DeleteAllPosts(c.Request.Context(), middleware.PrincipalFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "All posts deleted successfully",
		"deleted": deleted,
	})
}
