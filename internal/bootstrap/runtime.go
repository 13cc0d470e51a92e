// Package bootstrap connects the runtime dependencies shared by the binaries.
package bootstrap

import (
	"context"
	"fmt"

	"journal/internal/auth"
	"journal/internal/cache"
	"journal/internal/config"
	"journal/internal/database"
	"journal/internal/middleware"
	"journal/internal/models"
	"journal/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SeedDemo fills an empty database with demo content.
	SeedDemo bool
}

// InitRuntime connects to the database (creating the schema) and to Redis.
// The Redis client is nil when REDIS_URL is unset or unreachable.
func InitRuntime(cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	r := cache.InitRedis(cfg.RedisURL)

	if opts.SeedDemo {
		if err := seedIfEmpty(cfg, db); err != nil {
			return nil, nil, fmt.Errorf("failed to seed demo data: %w", err)
		}
	}

	return db, r, nil
}

func seedIfEmpty(cfg *config.Config, db *gorm.DB) error {
	var users int64
	if err := db.Model(&models.User{}).Count(&users).Error; err != nil {
		return err
	}
	if users > 0 {
		middleware.Logger.Info("database already has users, skipping demo seed")
		return nil
	}

	seeder := seed.NewSeeder(db, auth.NewHasher(cfg.PasswordIterations, cfg.PasswordSaltLength))
	_, err := seeder.Run(context.Background(), seed.DefaultOptions())
	return err
}
