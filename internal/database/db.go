package database

import (
	"fmt"
	"time"

	"github.com/Baaaki/instagallery/internal/config"
	"github.com/Baaaki/instagallery/internal/models"
	"github.com/Baaaki/instagallery/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultFilters are inserted by Migrate when missing
var DefaultFilters = []models.Filter{
	{Name: "Normal", Description: "No adjustments"},
	{Name: "Clarendon", Description: "Brightens, highlights and intensifies shadows"},
	{Name: "Gingham", Description: "Vintage wash with a soft glow"},
	{Name: "Juno", Description: "Warm tint with vivid whites"},
	{Name: "Lark", Description: "Desaturated reds, boosted blues and greens"},
	{Name: "Moon", Description: "Black and white with strong contrast"},
	{Name: "Reyes", Description: "Dusty, faded vintage look"},
}

// Connect opens the database selected by cfg.DatabaseDriver
func Connect(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DatabaseDriver {
	case "postgres":
		dialector = postgres.Open(cfg.DatabaseURL)
	case "sqlite":
		dialector = sqlite.Open(cfg.DatabaseURL)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	logger.Log.Info("Database connected successfully",
		zap.String("driver", cfg.DatabaseDriver),
	)

	return db, nil
}

// Migrate creates or updates the schema and inserts the default filters
func Migrate(db *gorm.DB) error {
	start := time.Now()

	err := db.AutoMigrate(
		&models.User{},
		&models.Filter{},
		&models.Post{},
		&models.PostMedia{},
		&models.Follow{},
	)
	if err != nil {
		return err
	}

	filters := make([]models.Filter, len(DefaultFilters))
	copy(filters, DefaultFilters)
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&filters).Error; err != nil {
		return err
	}

	logger.Log.Info("Database migration completed",
		zap.Duration("duration", time.Since(start)),
	)

	return nil
}
