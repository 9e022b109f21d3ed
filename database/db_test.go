package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

func TestOpenSQLite(t *testing.T) {
	dsn := SQLiteDSN(filepath.Join(t.TempDir(), "open.db"))

	db, err := Open(context.Background(), DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer db.Close()

	var fk int
	if err := db.Get(&fk, "PRAGMA foreign_keys"); err != nil {
		t.Fatalf("Error reading pragma: %v", err)
	}
	if fk != 1 {
		t.Errorf("Expected foreign keys to be enabled, got %d", fk)
	}

	var mode string
	if err := db.Get(&mode, "PRAGMA journal_mode"); err != nil {
		t.Fatalf("Error reading pragma: %v", err)
	}
	if mode != "wal" {
		t.Errorf("Expected WAL journal mode, got %q", mode)
	}
}

func TestOpenUnsupportedDriver(t *testing.T) {
	if _, err := Open(context.Background(), "mysql", "whatever"); err == nil {
		t.Error("Expected an error for an unknown driver")
	}
}

func TestInitDB(t *testing.T) {
	dsn := SQLiteDSN(filepath.Join(t.TempDir(), "init.db"))
	if err := InitDB(context.Background(), DriverSQLite, dsn); err != nil {
		t.Fatalf("InitDB failed: %v", err)
	}
	defer DB.Close()

	if err := DB.Ping(); err != nil {
		t.Errorf("Expected a live pool, got %v", err)
	}
}

func TestConstraintErrors(t *testing.T) {
	db, err := Open(context.Background(), DriverSQLite, SQLiteDSN(filepath.Join(t.TempDir(), "constraints.db")))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer db.Close()

	db.MustExec(`CREATE TABLE parents (id TEXT PRIMARY KEY, name TEXT UNIQUE)`)
	db.MustExec(`CREATE TABLE children (id TEXT PRIMARY KEY, parent_id TEXT NOT NULL REFERENCES parents(id))`)
	db.MustExec(`INSERT INTO parents (id, name) VALUES ('p1', 'one')`)

	_, err = db.Exec(`INSERT INTO parents (id, name) VALUES ('p2', 'one')`)
	if !IsUniqueViolation(err) {
		t.Errorf("Expected a unique violation, got %v", err)
	}
	if IsForeignKeyViolation(err) {
		t.Error("Unique violation misreported as foreign key violation")
	}

	_, err = db.Exec(`INSERT INTO children (id, parent_id) VALUES ('c1', 'missing')`)
	if !IsForeignKeyViolation(err) {
		t.Errorf("Expected a foreign key violation, got %v", err)
	}

	_, err = db.Exec(`DELETE FROM parents WHERE id = 'p1'`)
	if err != nil {
		t.Errorf("Deleting an unreferenced parent failed: %v", err)
	}
}

func TestConstraintErrorsPostgres(t *testing.T) {
	unique := &pq.Error{Code: "23505"}
	foreign := &pq.Error{Code: "23503"}

	if !IsUniqueViolation(unique) || IsUniqueViolation(foreign) {
		t.Error("IsUniqueViolation misclassified a postgres error")
	}
	if !IsForeignKeyViolation(foreign) || IsForeignKeyViolation(unique) {
		t.Error("IsForeignKeyViolation misclassified a postgres error")
	}
	if IsUniqueViolation(errors.New("boom")) || IsUniqueViolation(nil) {
		t.Error("Plain errors are not constraint violations")
	}
	if !IsUniqueViolation(sqlite3.Error{ExtendedCode: sqlite3.ErrConstraintPrimaryKey}) {
		t.Error("Primary key conflicts count as unique violations")
	}
}

func TestConnectionString(t *testing.T) {
	cfg := PostgresConfig{Host: "db", Port: "5432", User: "app", Password: "s3cr3t", DBName: "spendwise", SSLMode: "disable"}

	got := cfg.ConnectionString()
	want := "postgres://app:s3cr3t@db:5432/spendwise?sslmode=disable"
	if got != want {
		t.Errorf("ConnectionString() = %q, want %q", got, want)
	}

	if masked := MaskPassword(got); masked != "postgres://app:xxxxx@db:5432/spendwise?sslmode=disable" {
		t.Errorf("MaskPassword() = %q", masked)
	}
	if path := MaskPassword("./spendwise.db?_journal=WAL"); path != "./spendwise.db?_journal=WAL" {
		t.Errorf("File DSNs should pass through unchanged, got %q", path)
	}
}
