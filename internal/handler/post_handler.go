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

type PostHandler struct {
	postService *service.PostService
}

func NewPostHandler(postService *service.PostService) *PostHandler {
	return &PostHandler{
		postService: postService,
	}
}

// Create publishes a post for the caller
// POST /api/posts
func (h *PostHandler) Create(c *gin.Context) {
	user, ok := authz.AsUser(middleware.PrincipalFrom(c))
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var draft service.PostDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		logger.Log.Warn("Create post request parsing failed",
			zap.Uint("user_id", user.UserID),
			zap.Error(err),
		)
		badRequest(c, "Invalid request body")
		return
	}

	post, err := h.postService.CreatePost(c.Request.Context(), user.UserID, draft)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

// GET /api/posts/:id
func (h *PostHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	post, err := h.postService.GetPost(c.Request.Context(), id, middleware.PrincipalFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

// Update applies a partial update; a "media" list replaces all media
// PUT /api/posts/:id
func (h *PostHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var patch service.PostPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		logger.Log.Warn("Update post request parsing failed",
			zap.Uint("post_id", id),
			zap.Error(err),
		)
		badRequest(c, "Invalid request body")
		return
	}

	post, err := h.postService.UpdatePost(c.Request.Context(), id, middleware.PrincipalFrom(c), patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

// DELETE /api/posts/:id
func (h *PostHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if _, err := h.postService.DeletePost(c.Request.Context(), id, middleware.PrincipalFrom(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Post deleted successfully",
	})
}

// Feed is the caller's own posts plus those of everyone they follow
// GET /api/posts/feed?page=&size=
func (h *PostHandler) Feed(c *gin.Context) {
	user, ok := authz.AsUser(middleware.PrincipalFrom(c))
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}
	page, size, ok := pageParams(c)
	if !ok {
		return
	}

	result, err := h.postService.Feed(c.Request.Context(), user.UserID, page, size)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GET /api/posts/explore?page=&size=
func (h *PostHandler) Explore(c *gin.Context) {
	page, size, ok := pageParams(c)
	if !ok {
		return
	}

	result, err := h.postService.Explore(c.Request.Context(), page, size)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GET /api/users/:username/posts?page=&size=
func (h *PostHandler) ListUserPosts(c *gin.Context) {
	page, size, ok := pageParams(c)
	if !ok {
		return
	}

	result, err := h.postService.ListUserPosts(c.Request.Context(), c.Param("username"), middleware.PrincipalFrom(c), page, size)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
