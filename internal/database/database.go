// Package database opens the postgres connection and owns the schema.
package database

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/petermazzocco/recipe-api/internal/config"
	"github.com/petermazzocco/recipe-api/internal/logger"
	"github.com/petermazzocco/recipe-api/models"
)

// Open connects to postgres. Constraint violations come back as gorm's
// ErrDuplicatedKey and friends.
func Open(dsn string, level logger.Level) (*gorm.DB, error) {
	mode := gormlogger.Warn
	if level == logger.DEBUG {
		mode = gormlogger.Info
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(mode),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return db, nil
}

// Wait calls check until it succeeds, giving up after attempts tries.
func Wait(ctx context.Context, attempts int, interval time.Duration, check func(context.Context) error) error {
	log := logger.With("attempts", attempts)
	var err error
	for i := 1; i <= attempts; i++ {
		if err = check(ctx); err == nil {
			return nil
		}
		log.Warn("database unavailable, waiting", "attempt", i, "error", err)
		if i == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
	return fmt.Errorf("database not available after %d attempts: %w", attempts, err)
}

// Connect opens the database, retrying while it is still starting up.
func Connect(ctx context.Context, cfg config.DatabaseConfig, level logger.Level) (*gorm.DB, error) {
	var db *gorm.DB
	err := Wait(ctx, cfg.WaitAttempts, cfg.WaitInterval(), func(ctx context.Context) error {
		var err error
		if db, err = Open(cfg.DSN, level); err != nil {
			return err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		if err := sqlDB.PingContext(ctx); err != nil {
			sqlDB.Close()
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Info("database available")
	return db, nil
}

// Migrate creates or updates every table, including the recipe join tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
