package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"           // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Supported database/sql driver names
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// DB is the process-wide connection pool, set by InitDB
var DB *sqlx.DB

// InitDB opens the pool for driver/dsn and stores it in DB
func InitDB(ctx context.Context, driver, dsn string) error {
	db, err := Open(ctx, driver, dsn)
	if err != nil {
		return err
	}
	DB = db
	return nil
}

// Open connects to the database and tunes the pool for the driver in use
func Open(ctx context.Context, driver, dsn string) (*sqlx.DB, error) {
	slog.Info("connecting to database", "driver", driver, "dsn", MaskPassword(dsn))

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s connection: %w", driver, err)
	}

	switch driver {
	case DriverSQLite:
		db.SetMaxOpenConns(5)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	case DriverPostgres:
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(30 * time.Minute)
	default:
		db.Close()
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	return db, nil
}

// SQLiteDSN builds a go-sqlite3 DSN with WAL, a busy timeout and foreign keys on.
// Write transactions take the lock up front so concurrent writers queue
// instead of failing with SQLITE_BUSY on upgrade.
func SQLiteDSN(path string) string {
	return path + "?_journal=WAL&_busy_timeout=10000&_foreign_keys=on&_txlock=immediate"
}
