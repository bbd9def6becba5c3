package testutil

import (
	"testing"
	"time"

	"atelier/internal/database"
	"atelier/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewTestDB opens an in-memory SQLite database with every persistent model
// migrated.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	// Every connection to :memory: is a separate database.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// CreateAccount inserts an account with a default artist profile.
func CreateAccount(t *testing.T, db *gorm.DB, username string) *models.Account {
	t.Helper()
	account := &models.Account{
		Username: username,
		Email:    username + "@example.com",
		Password: "x",
		Profile: &models.Profile{
			Role:     models.RoleArtist,
			JoinedAt: time.Now().UTC(),
		},
	}
	if err := db.Create(account).Error; err != nil {
		t.Fatalf("create account %s: %v", username, err)
	}
	return account
}
