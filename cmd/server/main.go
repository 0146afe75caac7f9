package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"net/url"
	"os/signal"
	"syscall"
	"time"

	"github.com/Baaaki/instagallery/internal/audit"
	"github.com/Baaaki/instagallery/internal/authz"
	"github.com/Baaaki/instagallery/internal/config"
	"github.com/Baaaki/instagallery/internal/database"
	"github.com/Baaaki/instagallery/internal/feed"
	"github.com/Baaaki/instagallery/internal/handler"
	"github.com/Baaaki/instagallery/internal/metrics"
	"github.com/Baaaki/instagallery/internal/repository"
	"github.com/Baaaki/instagallery/internal/service"
	"github.com/Baaaki/instagallery/internal/session"
	"github.com/Baaaki/instagallery/internal/storage"
	"github.com/Baaaki/instagallery/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	var logOpts []logger.Option
	if cfg.LogFile != "" {
		logOpts = append(logOpts, logger.WithFile(cfg.LogFile))
	}
	if cfg.LogLevel != "" {
		logOpts = append(logOpts, logger.WithLevel(cfg.LogLevel))
	}
	if err := logger.Init(!cfg.IsProduction(), logOpts...); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Database
	db, err := database.Connect(cfg)
	if err != nil {
		logger.Log.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		logger.Log.Fatal("Failed to run migrations", zap.Error(err))
	}
	if err := metrics.InstrumentDB(db); err != nil {
		logger.Log.Fatal("Failed to instrument database", zap.Error(err))
	}

	// Sessions
	sessions, err := session.NewRedisStore(cfg.RedisURL)
	if err != nil {
		logger.Log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer sessions.Close()

	// Audit journal
	journal, err := audit.NewJournal(cfg.AuditLogPath)
	if err != nil {
		logger.Log.Fatal("Failed to open audit journal", zap.Error(err))
	}
	defer journal.Close()

	// Media storage: Cloudinary when configured, local disk otherwise
	var store storage.Storage
	var mediaOrigins []string
	mediaDir := ""
	if cfg.CloudinaryURL != "" {
		store, err = storage.NewCloudinaryStorage(cfg.CloudinaryURL, cfg.CloudinaryFolder)
		if err != nil {
			logger.Log.Fatal("Failed to initialize Cloudinary", zap.Error(err))
		}
		mediaOrigins = append(mediaOrigins, "https://res.cloudinary.com")
		logger.Log.Info("Media storage: cloudinary", zap.String("folder", cfg.CloudinaryFolder))
	} else {
		local, err := storage.NewLocalStorage(cfg.MediaDir, cfg.MediaBaseURL)
		if err != nil {
			logger.Log.Fatal("Failed to initialize media directory", zap.Error(err))
		}
		store = local
		mediaDir = local.Dir()
		if u, err := url.Parse(cfg.MediaBaseURL); err == nil && u.Host != "" {
			mediaOrigins = append(mediaOrigins, u.Scheme+"://"+u.Host)
		}
		logger.Log.Info("Media storage: local", zap.String("dir", mediaDir))
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	followRepo := repository.NewFollowRepository(db)
	filterRepo := repository.NewFilterRepository(db)

	// Initialize services
	policy := authz.Policy{AllowSelfDelete: cfg.AllowSelfDelete}
	authService := service.NewAuthService(userRepo, sessions, cfg.JWTSecret, cfg.JWTExpiry, cfg.Environment)
	userService := service.NewUserService(userRepo, postRepo, followRepo, sessions, journal, policy)
	postService := service.NewPostService(postRepo, userRepo, filterRepo, feed.NewComposer(followRepo, postRepo), journal, policy)
	mediaService := service.NewMediaService(store, filterRepo, cfg.MaxUploadSize)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := handler.NewRouter(handler.RouterConfig{
		AuthService:        authService,
		UserService:        userService,
		PostService:        postService,
		MediaService:       mediaService,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		IsProduction:       cfg.IsProduction(),
		MediaDir:           mediaDir,
		MediaOrigins:       mediaOrigins,
	})

	srv := &http.Server{
		Addr:              cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Log.Info("Server starting",
			zap.String("addr", cfg.ServerPort),
			zap.String("environment", cfg.Environment),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Warn("Server shutdown failed", zap.Error(err))
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	logger.Log.Info("Server stopped")
}
