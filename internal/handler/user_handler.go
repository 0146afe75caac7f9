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

type UserHandler struct {
	userService *service.UserService
	secure      bool
}

func NewUserHandler(userService *service.UserService, secureCookies bool) *UserHandler {
	return &UserHandler{
		userService: userService,
		secure:      secureCookies,
	}
}

// GetProfile returns the full profile of a user
// GET /api/auth/profile/:id
func (h *UserHandler) GetProfile(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	profile, err := h.userService.GetProfile(c.Request.Context(), id, middleware.PrincipalFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// UpdateProfile applies a partial update
// PUT /api/auth/profile/:id
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var patch service.ProfilePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		logger.Log.Warn("Profile update request parsing failed",
			zap.Uint("user_id", id),
			zap.Error(err),
		)
		badRequest(c, "Invalid request body")
		return
	}

	profile, err := h.userService.UpdateProfile(c.Request.Context(), id, middleware.PrincipalFrom(c), patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// DeleteProfile removes an account with its posts and sessions
// DELETE /api/auth/profile/:id
func (h *UserHandler) DeleteProfile(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	p := middleware.PrincipalFrom(c)
	if err := h.userService.DeleteUser(c.Request.Context(), id, p); err != nil {
		respondError(c, err)
		return
	}

	if u, ok := authz.AsUser(p); ok && u.UserID == id {
		clearTokenCookie(c, h.secure)
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "User deleted successfully",
	})
}

// GetPublicProfile
// GET /api/users/:username
func (h *UserHandler) GetPublicProfile(c *gin.Context) {
	profile, err := h.userService.GetPublicProfile(c.Request.Context(), c.Param("username"), middleware.PrincipalFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// POST /api/users/:username/follow
func (h *UserHandler) Follow(c *gin.Context) {
	if err := h.userService.Follow(c.Request.Context(), middleware.PrincipalFrom(c), c.Param("username")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Now following " + c.Param("username"),
	})
}

// DELETE /api/users/:username/follow
func (h *UserHandler) Unfollow(c *gin.Context) {
	if err := h.userService.Unfollow(c.Request.Context(), middleware.PrincipalFrom(c), c.Param("username")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Unfollowed " + c.Param("username"),
	})
}
