package handler

import (
	"net/http"

	"github.com/Baaaki/instagallery/internal/middleware"
	"github.com/Baaaki/instagallery/internal/models"
	"github.com/Baaaki/instagallery/internal/service"
	"github.com/Baaaki/instagallery/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

type RegisterRequest struct {
	Username string          `json:"username" binding:"required"`
	Email    string          `json:"email" binding:"required"`
	Password string          `json:"password" binding:"required"`
	FullName string          `json:"full_name"`
	UserType models.UserType `json:"user_type"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest

	// 1. Parse JSON request
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Log.Warn("Registration request parsing failed",
			zap.String("ip", c.ClientIP()),
			zap.Error(err),
		)
		badRequest(c, "Invalid request body")
		return
	}

	logger.Log.Info("User registration attempt",
		zap.String("username", req.Username),
		zap.String("email", req.Email),
		zap.String("ip", c.ClientIP()),
	)

	// 2. Call service
	result, err := h.authService.Register(c.Request.Context(), service.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
		UserType: req.UserType,
	}, clientInfo(c))
	if err != nil {
		respondError(c, err)
		return
	}

	// 3. Set token in HTTP-only cookie
	h.setTokenCookie(c, result.Token)

	c.JSON(http.StatusCreated, gin.H{
		"message":    "User registered successfully",
		"token":      result.Token,
		"expires_in": int(result.ExpiresIn.Seconds()),
		"user":       result.User,
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest

	// 1. Parse JSON request
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Log.Warn("Login request parsing failed",
			zap.String("ip", c.ClientIP()),
			zap.Error(err),
		)
		badRequest(c, "Invalid request body")
		return
	}

	logger.Log.Info("User login attempt",
		zap.String("email", req.Email),
		zap.String("ip", c.ClientIP()),
	)

	// 2. Call service
	result, err := h.authService.Login(c.Request.Context(), req.Email, req.Password, clientInfo(c))
	if err != nil {
		respondError(c, err)
		return
	}

	// 3. Set token in HTTP-only cookie
	h.setTokenCookie(c, result.Token)

	c.JSON(http.StatusOK, gin.H{
		"message":    "Login successful",
		"token":      result.Token,
		"expires_in": int(result.ExpiresIn.Seconds()),
		"user":       result.User,
	})
}

// Logout revokes the session behind the current token
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.authService.Logout(c.Request.Context(), middleware.TokenFrom(c)); err != nil {
		respondError(c, err)
		return
	}

	clearTokenCookie(c, h.authService.IsProduction())
	c.JSON(http.StatusOK, gin.H{
		"message": "Logged out successfully",
	})
}

func (h *AuthHandler) setTokenCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode) // CSRF protection
	c.SetCookie(
		middleware.TokenCookie,
		token,
		int(h.authService.TokenTTL().Seconds()),
		"/",
		"",                           // current domain
		h.authService.IsProduction(), // HTTPS-only in production
		true,                         // httpOnly
	)
}

func clearTokenCookie(c *gin.Context, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.TokenCookie, "", -1, "/", "", secure, true)
}

func clientInfo(c *gin.Context) service.ClientInfo {
	return service.ClientInfo{
		IP:     c.ClientIP(),
		Device: c.Request.UserAgent(),
	}
}
