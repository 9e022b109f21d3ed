package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"spendwise/backend/metrics"
	"spendwise/backend/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

const expenseSelect = `
	SELECT e.id, e.amount, e.description, e.date, e.category_id, e.user_id, e.created_at, e.updated_at,
	       c.id AS "category.id", c.name AS "category.name", c.icon AS "category.icon",
	       c.color AS "category.color", c.user_id AS "category.user_id", c.created_at AS "category.created_at"
	FROM expenses e
	JOIN categories c ON c.id = e.category_id`

// ExpenseInput is the full set of writable expense fields. A nil Date means
// "now" on create and "unchanged" on update.
type ExpenseInput struct {
	Amount      decimal.Decimal
	Description string
	CategoryID  string
	Date        *time.Time
}

func (in ExpenseInput) validate() error {
	if !in.Amount.IsPositive() {
		return NewValidationError("amount", "Amount must be greater than zero")
	}
	if strings.TrimSpace(in.Description) == "" {
		return NewValidationError("description", "Description is required")
	}
	return nil
}

// ExpenseService records and queries expenses
type ExpenseService struct {
	db      *sqlx.DB
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewExpenseService creates a new expense service
func NewExpenseService(db *sqlx.DB, m *metrics.Metrics) *ExpenseService {
	return &ExpenseService{db: db, metrics: m, now: time.Now}
}

// List returns the user's expenses newest first. A nil period lists all time.
func (s *ExpenseService) List(ctx context.Context, userID string, period *Period) ([]models.Expense, error) {
	query := expenseSelect + ` WHERE e.user_id = ?`
	args := []any{userID}
	if period != nil {
		query += ` AND e.date >= ? AND e.date <= ?`
		args = append(args, period.Start(), period.End())
	}
	query += ` ORDER BY e.date DESC, e.created_at DESC`

	expenses := []models.Expense{}
	if err := s.db.SelectContext(ctx, &expenses, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return expenses, nil
}

// Get returns one expense owned by the user
func (s *ExpenseService) Get(ctx context.Context, userID, id string) (models.Expense, error) {
	var e models.Expense
	err := s.db.GetContext(ctx, &e, s.db.Rebind(expenseSelect+` WHERE e.id = ? AND e.user_id = ?`), id, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Expense{}, ErrNotFound
	}
	if err != nil {
		return models.Expense{}, fmt.Errorf("get expense: %w", err)
	}
	return e, nil
}

// Create records an expense against one of the user's categories
func (s *ExpenseService) Create(ctx context.Context, userID string, in ExpenseInput) (models.Expense, error) {
	if err := in.validate(); err != nil {
		return models.Expense{}, err
	}
	if err := requireOwnedCategory(ctx, s.db, userID, in.CategoryID); err != nil {
		return models.Expense{}, err
	}

	now := s.now().UTC()
	date := now
	if in.Date != nil {
		date = in.Date.UTC()
	}

	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO expenses (id, amount, description, date, category_id, user_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		id, in.Amount, strings.TrimSpace(in.Description), date, in.CategoryID, userID, now, now)
	if err != nil {
		return models.Expense{}, fmt.Errorf("insert expense: %w", err)
	}
	s.metrics.IncExpensesCreated()

	return s.Get(ctx, userID, id)
}

// Update replaces amount, description and category, and the date when given
func (s *ExpenseService) Update(ctx context.Context, userID, id string, in ExpenseInput) (models.Expense, error) {
	if err := in.validate(); err != nil {
		return models.Expense{}, err
	}
	if err := requireOwnedCategory(ctx, s.db, userID, in.CategoryID); err != nil {
		return models.Expense{}, err
	}

	query := `UPDATE expenses SET amount = ?, description = ?, category_id = ?, updated_at = ?`
	args := []any{in.Amount, strings.TrimSpace(in.Description), in.CategoryID, s.now().UTC()}
	if in.Date != nil {
		query += `, date = ?`
		args = append(args, in.Date.UTC())
	}
	query += ` WHERE id = ? AND user_id = ?`
	args = append(args, id, userID)

	res, err := s.db.ExecContext(ctx, s.db.Rebind(query), args...)
	if err != nil {
		return models.Expense{}, fmt.Errorf("update expense: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.Expense{}, ErrNotFound
	}

	return s.Get(ctx, userID, id)
}

// Delete removes an expense owned by the user
func (s *ExpenseService) Delete(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM expenses WHERE id = ? AND user_id = ?`), id, userID)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
