// Package testutil holds helpers shared by package tests.
package testutil

import (
	"testing"

	"github.com/jmoiron/sqlx"

	"github.com/keyxmakerx/tasktags/internal/config"
	"github.com/keyxmakerx/tasktags/internal/database"
)

// NewTestDB opens a private in-memory SQLite database with all migrations
// applied. It is closed automatically when the test completes.
func NewTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	db, err := database.NewSQLite(config.DatabaseConfig{
		Driver: config.DriverSQLite,
		Path:   database.MemoryPath,
	})
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}

	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("closing test database: %v", err)
		}
	})

	if err := database.RunMigrations(db); err != nil {
		t.Fatalf("migrating test database: %v", err)
	}

	return db
}
