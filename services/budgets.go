package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"spendwise/backend/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

const budgetSelect = `
	SELECT b.id, b.amount, b.category_id, b.month, b.year, b.user_id, b.created_at, b.updated_at,
	       c.id AS "category.id", c.name AS "category.name", c.icon AS "category.icon",
	       c.color AS "category.color", c.user_id AS "category.user_id", c.created_at AS "category.created_at"
	FROM budgets b
	JOIN categories c ON c.id = b.category_id`

// BudgetInput sets the budget of one category for one month
type BudgetInput struct {
	Amount     decimal.Decimal
	CategoryID string
	Month      int
	Year       int
}

// BudgetService manages monthly category budgets
type BudgetService struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewBudgetService creates a new budget service
func NewBudgetService(db *sqlx.DB) *BudgetService {
	return &BudgetService{db: db, now: time.Now}
}

// List returns the user's budgets for one month, ordered by category name
func (s *BudgetService) List(ctx context.Context, userID string, period Period) ([]models.Budget, error) {
	budgets := []models.Budget{}
	err := s.db.SelectContext(ctx, &budgets, s.db.Rebind(
		budgetSelect+` WHERE b.user_id = ? AND b.month = ? AND b.year = ? ORDER BY c.name ASC`),
		userID, period.Month, period.Year)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	return budgets, nil
}

// Set creates or replaces the budget for (user, category, month, year) in a
// single statement; concurrent writers to the same key resolve last-write-wins.
func (s *BudgetService) Set(ctx context.Context, userID string, in BudgetInput) (models.Budget, error) {
	if in.Amount.IsNegative() {
		return models.Budget{}, NewValidationError("amount", "Amount cannot be negative")
	}
	period, err := NewPeriod(in.Month, in.Year)
	if err != nil {
		return models.Budget{}, err
	}
	if err := requireOwnedCategory(ctx, s.db, userID, in.CategoryID); err != nil {
		return models.Budget{}, err
	}

	now := s.now().UTC()
	_, err = s.db.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO budgets (id, amount, category_id, month, year, user_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, category_id, month, year)
		DO UPDATE SET amount = excluded.amount, updated_at = excluded.updated_at`),
		uuid.NewString(), in.Amount, in.CategoryID, period.Month, period.Year, userID, now, now)
	if err != nil {
		return models.Budget{}, fmt.Errorf("upsert budget: %w", err)
	}

	var b models.Budget
	err = s.db.GetContext(ctx, &b, s.db.Rebind(
		budgetSelect+` WHERE b.user_id = ? AND b.category_id = ? AND b.month = ? AND b.year = ?`),
		userID, in.CategoryID, period.Month, period.Year)
	if err != nil {
		return models.Budget{}, fmt.Errorf("reload budget: %w", err)
	}
	return b, nil
}

// Delete removes a budget owned by the user
func (s *BudgetService) Delete(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM budgets WHERE id = ? AND user_id = ?`), id, userID)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Get returns one budget owned by the user
func (s *BudgetService) Get(ctx context.Context, userID, id string) (models.Budget, error) {
	var b models.Budget
	err := s.db.GetContext(ctx, &b, s.db.Rebind(budgetSelect+` WHERE b.id = ? AND b.user_id = ?`), id, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Budget{}, ErrNotFound
	}
	if err != nil {
		return models.Budget{}, fmt.Errorf("get budget: %w", err)
	}
	return b, nil
}
