package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"spendwise/backend/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

const savingsColumns = `id, name, target_amount, current_amount, deadline, user_id, created_at, updated_at`

// SavingsInput is a new savings goal
type SavingsInput struct {
	Name         string
	TargetAmount decimal.Decimal
	Deadline     *time.Time
}

// SavingsUpdate carries the fields to change; nil leaves a field as is.
// ClearDeadline removes an existing deadline and wins over Deadline.
type SavingsUpdate struct {
	Name          *string
	TargetAmount  *decimal.Decimal
	CurrentAmount *decimal.Decimal
	Deadline      *time.Time
	ClearDeadline bool
}

// SavingsService manages savings goals
type SavingsService struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewSavingsService creates a new savings service
func NewSavingsService(db *sqlx.DB) *SavingsService {
	return &SavingsService{db: db, now: time.Now}
}

// List returns the user's goals, newest first
func (s *SavingsService) List(ctx context.Context, userID string) ([]models.SavingsGoal, error) {
	goals := []models.SavingsGoal{}
	err := s.db.SelectContext(ctx, &goals, s.db.Rebind(
		`SELECT `+savingsColumns+` FROM savings_goals WHERE user_id = ? ORDER BY created_at DESC`), userID)
	if err != nil {
		return nil, fmt.Errorf("list savings goals: %w", err)
	}
	return goals, nil
}

// Get returns one goal owned by the user
func (s *SavingsService) Get(ctx context.Context, userID, id string) (models.SavingsGoal, error) {
	var g models.SavingsGoal
	err := s.db.GetContext(ctx, &g, s.db.Rebind(
		`SELECT `+savingsColumns+` FROM savings_goals WHERE id = ? AND user_id = ?`), id, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.SavingsGoal{}, ErrNotFound
	}
	if err != nil {
		return models.SavingsGoal{}, fmt.Errorf("get savings goal: %w", err)
	}
	return g, nil
}

// Create adds a goal with nothing saved yet
func (s *SavingsService) Create(ctx context.Context, userID string, in SavingsInput) (models.SavingsGoal, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return models.SavingsGoal{}, NewValidationError("name", "Name is required")
	}
	if !in.TargetAmount.IsPositive() {
		return models.SavingsGoal{}, NewValidationError("targetAmount", "Target amount must be greater than zero")
	}

	now := s.now().UTC()
	g := models.SavingsGoal{
		ID:            uuid.NewString(),
		Name:          name,
		TargetAmount:  in.TargetAmount,
		CurrentAmount: decimal.Zero,
		UserID:        userID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if in.Deadline != nil {
		d := in.Deadline.UTC()
		g.Deadline = &d
	}

	_, err := s.db.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO savings_goals (`+savingsColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		g.ID, g.Name, g.TargetAmount, g.CurrentAmount, g.Deadline, g.UserID, g.CreatedAt, g.UpdatedAt)
	if err != nil {
		return models.SavingsGoal{}, fmt.Errorf("insert savings goal: %w", err)
	}
	return g, nil
}

// Update applies a partial change to a goal
func (s *SavingsService) Update(ctx context.Context, userID, id string, in SavingsUpdate) (models.SavingsGoal, error) {
	current, err := s.Get(ctx, userID, id)
	if err != nil {
		return models.SavingsGoal{}, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return models.SavingsGoal{}, NewValidationError("name", "Name cannot be empty")
		}
		current.Name = name
	}
	if in.TargetAmount != nil {
		if !in.TargetAmount.IsPositive() {
			return models.SavingsGoal{}, NewValidationError("targetAmount", "Target amount must be greater than zero")
		}
		current.TargetAmount = *in.TargetAmount
	}
	if in.CurrentAmount != nil {
		if in.CurrentAmount.IsNegative() {
			return models.SavingsGoal{}, NewValidationError("currentAmount", "Current amount cannot be negative")
		}
		current.CurrentAmount = *in.CurrentAmount
	}
	switch {
	case in.ClearDeadline:
		current.Deadline = nil
	case in.Deadline != nil:
		d := in.Deadline.UTC()
		current.Deadline = &d
	}
	current.UpdatedAt = s.now().UTC()

	res, err := s.db.ExecContext(ctx, s.db.Rebind(`
		UPDATE savings_goals
		SET name = ?, target_amount = ?, current_amount = ?, deadline = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`),
		current.Name, current.TargetAmount, current.CurrentAmount, current.Deadline, current.UpdatedAt,
		id, userID)
	if err != nil {
		return models.SavingsGoal{}, fmt.Errorf("update savings goal: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.SavingsGoal{}, ErrNotFound
	}
	return current, nil
}

// AddFunds increments currentAmount in the database so concurrent
// contributions are never lost.
func (s *SavingsService) AddFunds(ctx context.Context, userID, id string, amount decimal.Decimal) (models.SavingsGoal, error) {
	if !amount.IsPositive() {
		return models.SavingsGoal{}, NewValidationError("amount", "Amount must be greater than zero")
	}

	res, err := s.db.ExecContext(ctx, s.db.Rebind(`
		UPDATE savings_goals SET current_amount = current_amount + ?, updated_at = ?
		WHERE id = ? AND user_id = ?`),
		amount, s.now().UTC(), id, userID)
	if err != nil {
		return models.SavingsGoal{}, fmt.Errorf("add savings funds: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.SavingsGoal{}, ErrNotFound
	}
	return s.Get(ctx, userID, id)
}

// Delete removes a goal owned by the user
func (s *SavingsService) Delete(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM savings_goals WHERE id = ? AND user_id = ?`), id, userID)
	if err != nil {
		return fmt.Errorf("delete savings goal: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
