package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/phuslu/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/govjobalert/govjobalert/internal/models"
)

// ErrNotFound is returned by stores when a lookup by id has no match.
var ErrNotFound = errors.New("record not found")

type Config struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	AutoMigrate     bool
}

// Connect opens the postgres pool and verifies it with a ping.
func Connect(ctx context.Context, cfg Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("gorm.Open: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sql handle: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}
	log.Info().Int("max_open_conns", cfg.MaxOpenConns).Msg("database connection established")

	if cfg.AutoMigrate {
		if err := Migrate(ctx, db); err != nil {
			_ = sqlDB.Close()
			return nil, err
		}
	}
	return db, nil
}

// Migrate creates or updates the jobs, categories and locations tables.
func Migrate(ctx context.Context, db *gorm.DB) error {
	log.Info().Msg("running migrations")
	if err := db.WithContext(ctx).AutoMigrate(&models.Category{}, &models.Location{}, &models.Job{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

func Close(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.Warn().Err(err).Msg("closing database")
	}
}
