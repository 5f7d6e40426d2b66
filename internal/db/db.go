package db

import (
	"fmt"
	"strings"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"customerapp/internal/config"
	"customerapp/internal/models"
)

// Open connects to the database named by cfg. Supported drivers are
// "postgres" and "sqlite".
func Open(cfg config.Database) (*gorm.DB, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("DB_DSN is empty (check your .env)")
	}

	var dialector gorm.Dialector
	switch strings.ToLower(cfg.Driver) {
	case "", "postgres", "postgresql":
		dialector = postgres.Open(cfg.DSN)
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	return db, nil
}

// MustOpen opens the database and migrates the schema, exiting on failure.
func MustOpen(cfg config.Database) *gorm.DB {
	db, err := Open(cfg)
	if err != nil {
		zap.L().Fatal("open database", zap.Error(err))
	}
	if err := Migrate(db); err != nil {
		zap.L().Fatal("migrate database", zap.Error(err))
	}
	zap.L().Info("database ready", zap.String("driver", cfg.Driver))
	return db
}

// Migrate creates or updates every table in models.Tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.Tables...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
