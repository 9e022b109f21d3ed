//go:build integration

package dbtest

import (
	"context"
	"testing"

	"spendwise/backend/database"
	"spendwise/backend/migrations"

	"github.com/jmoiron/sqlx"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

// NewPostgres starts a throwaway PostgreSQL container, migrates it and returns
// a pool over it. Needs a working Docker daemon.
func NewPostgres(t *testing.T) *sqlx.DB {
	t.Helper()

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("spendwise"),
		tcpostgres.WithUsername("spendwise"),
		tcpostgres.WithPassword("spendwise"),
		tcpostgres.BasicWaitStrategies(),
	)
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("failed to terminate postgres container: %v", err)
		}
	})
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get postgres connection string: %v", err)
	}

	if err := migrations.RunMigrations(database.DriverPostgres, dsn); err != nil {
		t.Fatalf("failed to migrate postgres: %v", err)
	}

	db, err := database.Open(ctx, database.DriverPostgres, dsn)
	if err != nil {
		t.Fatalf("failed to open postgres: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}
