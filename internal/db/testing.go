package db

import (
	"testing"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"workshopbuddy/internal/config"
)

// NewTestDB opens a migrated, private in-memory SQLite database for tests.
func NewTestDB(t testing.TB) *gorm.DB {
	t.Helper()

	gormDB, err := Open(config.DatabaseConfig{
		Driver: "sqlite",
		DSN:    "file::memory:?_pragma=foreign_keys(1)",
		// A single connection keeps the in-memory database alive and shared.
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	}, zerolog.Nop())
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := Migrate(gormDB); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := gormDB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return gormDB
}
