//go:build integration

package services

import (
	"testing"

	"spendwise/backend/database/dbtest"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/suite"
)

// TestServiceSuitePostgres runs the service suite against PostgreSQL. All
// tests share one container; tables are emptied before each test.
func TestServiceSuitePostgres(t *testing.T) {
	db := dbtest.NewPostgres(t)

	suite.Run(t, &ServiceSuite{
		newDB: func(t *testing.T) *sqlx.DB {
			if _, err := db.Exec(`TRUNCATE users, categories, expenses, budgets, bill_reminders, savings_goals CASCADE`); err != nil {
				t.Fatalf("failed to reset postgres tables: %v", err)
			}
			return db
		},
	})
}
