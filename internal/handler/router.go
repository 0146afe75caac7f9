package handler

import (
	"net/http"
	"time"

	"github.com/Baaaki/instagallery/internal/metrics"
	"github.com/Baaaki/instagallery/internal/middleware"
	"github.com/Baaaki/instagallery/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RouterConfig carries everything the HTTP surface needs
type RouterConfig struct {
	AuthService  *service.AuthService
	UserService  *service.UserService
	PostService  *service.PostService
	MediaService *service.MediaService

	CORSAllowedOrigins []string
	IsProduction       bool

	// MediaDir is served under /media when uploads are kept on local disk
	MediaDir string
	// MediaOrigins are the hosts uploaded media URLs point at
	MediaOrigins []string
}

// NewRouter builds the gin engine with middleware and every route
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger())
	router.Use(metrics.Middleware())
	router.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		HSTS:         cfg.IsProduction,
		MediaOrigins: cfg.MediaOrigins,
		MediaPrefix:  "/media/",
	}))
	if len(cfg.CORSAllowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORSAllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
			ExposeHeaders:    []string{middleware.RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	authHandler := NewAuthHandler(cfg.AuthService)
	userHandler := NewUserHandler(cfg.UserService, cfg.IsProduction)
	postHandler := NewPostHandler(cfg.PostService)
	adminHandler := NewAdminHandler(cfg.PostService, cfg.UserService)
	mediaHandler := NewMediaHandler(cfg.MediaService)

	requireAuth := middleware.AuthMiddleware(cfg.AuthService)
	optionalAuth := middleware.OptionalAuth(cfg.AuthService)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
	if cfg.MediaDir != "" {
		router.Static("/media", cfg.MediaDir)
	}

	api := router.Group("/api")

	// Auth and account management
	auth := api.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/logout", requireAuth, authHandler.Logout)
		auth.GET("/profile/:id", requireAuth, userHandler.GetProfile)
		auth.PUT("/profile/:id", requireAuth, userHandler.UpdateProfile)
		auth.DELETE("/profile/:id", requireAuth, userHandler.DeleteProfile)
	}

	users := api.Group("/users")
	{
		users.GET("/:username", optionalAuth, userHandler.GetPublicProfile)
		users.GET("/:username/posts", optionalAuth, postHandler.ListUserPosts)
		users.POST("/:username/follow", requireAuth, userHandler.Follow)
		users.DELETE("/:username/follow", requireAuth, userHandler.Unfollow)
	}

	posts := api.Group("/posts")
	{
		posts.POST("", requireAuth, postHandler.Create)
		posts.GET("/feed", requireAuth, postHandler.Feed)
		posts.GET("/explore", optionalAuth, postHandler.Explore)
		posts.GET("/:id", optionalAuth, postHandler.Get)
		posts.PUT("/:id", requireAuth, postHandler.Update)
		posts.DELETE("/:id", requireAuth, postHandler.Delete)
	}

	admin := api.Group("/admin", requireAuth)
	{
		admin.DELETE("/delAllPost", adminHandler.DeleteAllPosts)
		admin.GET("/users", middleware.AdminMiddleware(), adminHandler.ListUsers)
	}

	api.POST("/upload", requireAuth, mediaHandler.Upload)
	api.GET("/filters", mediaHandler.ListFilters)

	return router
}
