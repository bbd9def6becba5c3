// Package bootstrap wires the process-level dependencies shared by the
// command entry points.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"atelier/internal/cache"
	"atelier/internal/config"
	"atelier/internal/database"
	"atelier/internal/middleware"
	"atelier/internal/observability"
	"atelier/internal/seed"
	"atelier/internal/storage"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SeedPreset names an embedded seed preset to apply after the schema is
	// in place. Empty skips seeding.
	SeedPreset string
}

// Runtime holds the connections a server process needs.
type Runtime struct {
	DB    *gorm.DB
	Redis *redis.Client
	Blobs storage.BlobStore
}

// InitRuntime connects to the database, Redis and the blob store, and
// optionally seeds demo data. Redis is optional: when it cannot be reached
// the returned Runtime has a nil client and the server runs degraded.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*Runtime, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	if err := observability.InstrumentDB(db); err != nil {
		return nil, fmt.Errorf("instrument database: %w", err)
	}

	rt := &Runtime{DB: db}

	if cfg.RedisURL != "" {
		redisOpts, err := cache.Options(cfg.RedisURL, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, err
		}
		client, err := cache.Connect(ctx, redisOpts)
		if err != nil {
			middleware.Logger.Warn("redis unavailable, continuing without cache and notifications",
				slog.String("error", err.Error()))
		} else {
			rt.Redis = client
		}
	}

	blobs, err := storage.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("blob store: %w", err)
	}
	rt.Blobs = blobs

	if opts.SeedPreset != "" {
		var existing int64
		if err := db.WithContext(ctx).Table("accounts").Count(&existing).Error; err != nil {
			return nil, fmt.Errorf("count accounts: %w", err)
		}
		if existing > 0 {
			middleware.Logger.Info("database already populated, skipping seed", slog.String("preset", opts.SeedPreset))
			return rt, nil
		}
		preset, err := seed.LoadPreset(opts.SeedPreset)
		if err != nil {
			return nil, err
		}
		if _, err := seed.NewSeeder(db, seed.Options{}).Run(ctx, preset); err != nil {
			return nil, fmt.Errorf("seed preset %s: %w", opts.SeedPreset, err)
		}
	}

	return rt, nil
}

// Close releases the connections held by rt.
func (rt *Runtime) Close() error {
	var firstErr error
	if rt.Redis != nil {
		firstErr = rt.Redis.Close()
	}
	if sqlDB, err := rt.DB.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil && firstErr == nil {
			firstErr = cerr
		}
	}
	return firstErr
}
