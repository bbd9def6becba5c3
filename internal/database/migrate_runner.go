package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"atelier/internal/middleware"

	"gorm.io/gorm"
)

// SchemaMigration records an applied migration version.
type SchemaMigration struct {
	Version   int       `gorm:"primaryKey;autoIncrement:false"`
	Name      string    `gorm:"size:255;not null"`
	AppliedAt time.Time `gorm:"autoCreateTime"`
}

// TableName pins the bookkeeping table name.
func (SchemaMigration) TableName() string {
	return "schema_migrations"
}

// MigrationStore tracks which versions have been applied.
type MigrationStore interface {
	Applied(ctx context.Context) (map[int]bool, error)
	Apply(ctx context.Context, m Migration) error
	Revert(ctx context.Context, m Migration) error
}

type migrationStore struct {
	db *gorm.DB
}

// NewMigrationStore creates a MigrationStore backed by db, creating the
// bookkeeping table when missing.
func NewMigrationStore(ctx context.Context, db *gorm.DB) (MigrationStore, error) {
	if err := db.WithContext(ctx).AutoMigrate(&SchemaMigration{}); err != nil {
		return nil, fmt.Errorf("ensure schema_migrations: %w", err)
	}
	return &migrationStore{db: db}, nil
}

func (s *migrationStore) Applied(ctx context.Context) (map[int]bool, error) {
	var versions []int
	if err := s.db.WithContext(ctx).Model(&SchemaMigration{}).Pluck("version", &versions).Error; err != nil {
		return nil, fmt.Errorf("list applied migrations: %w", err)
	}
	out := make(map[int]bool, len(versions))
	for _, v := range versions {
		out[v] = true
	}
	return out, nil
}

// Apply runs the up script and records it in one transaction.
func (s *migrationStore) Apply(ctx context.Context, m Migration) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(m.Up).Error; err != nil {
			return fmt.Errorf("apply %s: %w", m, err)
		}
		return tx.Create(&SchemaMigration{Version: m.Version, Name: m.Name}).Error
	})
}

func (s *migrationStore) Revert(ctx context.Context, m Migration) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if m.Down != "" {
			if err := tx.Exec(m.Down).Error; err != nil {
				return fmt.Errorf("revert %s: %w", m, err)
			}
		}
		return tx.Where("version = ?", m.Version).Delete(&SchemaMigration{}).Error
	})
}

// RunMigrations applies every embedded migration not yet recorded.
func RunMigrations(ctx context.Context, db *gorm.DB) error {
	all, err := Migrations()
	if err != nil {
		return err
	}
	store, err := NewMigrationStore(ctx, db)
	if err != nil {
		return err
	}
	return applyPending(ctx, store, all)
}

func applyPending(ctx context.Context, store MigrationStore, all []Migration) error {
	applied, err := store.Applied(ctx)
	if err != nil {
		return err
	}
	for _, m := range all {
		if applied[m.Version] {
			continue
		}
		middleware.Logger.Info("Applying migration", slog.Int("version", m.Version), slog.String("name", m.Name))
		if err := store.Apply(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

// PendingMigrations lists embedded migrations that have not been applied.
func PendingMigrations(ctx context.Context, db *gorm.DB) ([]Migration, error) {
	all, err := Migrations()
	if err != nil {
		return nil, err
	}
	store, err := NewMigrationStore(ctx, db)
	if err != nil {
		return nil, err
	}
	applied, err := store.Applied(ctx)
	if err != nil {
		return nil, err
	}
	var pending []Migration
	for _, m := range all {
		if !applied[m.Version] {
			pending = append(pending, m)
		}
	}
	return pending, nil
}

// RollbackMigration reverts one applied migration by version.
func RollbackMigration(ctx context.Context, db *gorm.DB, version int) error {
	all, err := Migrations()
	if err != nil {
		return err
	}
	store, err := NewMigrationStore(ctx, db)
	if err != nil {
		return err
	}
	applied, err := store.Applied(ctx)
	if err != nil {
		return err
	}
	if !applied[version] {
		return fmt.Errorf("migration %d has not been applied", version)
	}
	for _, m := range all {
		if m.Version == version {
			middleware.Logger.Info("Rolling back migration", slog.Int("version", version), slog.String("name", m.Name))
			return store.Revert(ctx, m)
		}
	}
	return fmt.Errorf("migration version %d not found", version)
}
