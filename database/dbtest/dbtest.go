// Package dbtest provides migrated throwaway databases for tests.
package dbtest

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"spendwise/backend/database"
	"spendwise/backend/migrations"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// New returns a pool over a fresh, fully migrated SQLite file that is removed
// when the test ends.
func New(t testing.TB) *sqlx.DB {
	t.Helper()

	dsn := database.SQLiteDSN(filepath.Join(t.TempDir(), "test.db"))
	if err := migrations.RunMigrations(database.DriverSQLite, dsn); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	db, err := database.Open(context.Background(), database.DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// CreateUser inserts a user row directly and returns its id. The password hash
// is a placeholder, so the user cannot log in.
func CreateUser(t testing.TB, db *sqlx.DB, email string) string {
	t.Helper()

	id := uuid.NewString()
	now := time.Now().UTC()
	_, err := db.Exec(db.Rebind(`
		INSERT INTO users (id, email, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`), id, email, "x", now, now)
	if err != nil {
		t.Fatalf("Failed to insert test user: %v", err)
	}
	return id
}

// CreateCategory inserts a category for userID and returns its id
func CreateCategory(t testing.TB, db *sqlx.DB, userID, name string) string {
	t.Helper()

	id := uuid.NewString()
	_, err := db.Exec(db.Rebind(`
		INSERT INTO categories (id, name, icon, color, user_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`), id, name, "📁", "#6366f1", userID, time.Now().UTC())
	if err != nil {
		t.Fatalf("Failed to insert test category: %v", err)
	}
	return id
}
