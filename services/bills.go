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

const billColumns = `id, name, amount, due_day, is_recurring, is_paid, user_id, created_at, updated_at`

// BillInput is a new bill reminder. IsRecurring defaults to true when nil.
type BillInput struct {
	Name        string
	Amount      decimal.Decimal
	DueDay      int
	IsRecurring *bool
}

// BillUpdate carries the fields to change; nil leaves a field as is
type BillUpdate struct {
	IsPaid      *bool
	Name        *string
	Amount      *decimal.Decimal
	DueDay      *int
	IsRecurring *bool
}

func validateDueDay(day int) error {
	if day < 1 || day > 31 {
		return NewValidationError("dueDay", "Due day must be between 1 and 31")
	}
	return nil
}

// BillService manages bill reminders
type BillService struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewBillService creates a new bill service
func NewBillService(db *sqlx.DB) *BillService {
	return &BillService{db: db, now: time.Now}
}

// List returns the user's bills ordered by due day
func (s *BillService) List(ctx context.Context, userID string) ([]models.BillReminder, error) {
	bills := []models.BillReminder{}
	err := s.db.SelectContext(ctx, &bills, s.db.Rebind(
		`SELECT `+billColumns+` FROM bill_reminders WHERE user_id = ? ORDER BY due_day ASC, name ASC`), userID)
	if err != nil {
		return nil, fmt.Errorf("list bills: %w", err)
	}
	return bills, nil
}

// Get returns one bill owned by the user
func (s *BillService) Get(ctx context.Context, userID, id string) (models.BillReminder, error) {
	var b models.BillReminder
	err := s.db.GetContext(ctx, &b, s.db.Rebind(
		`SELECT `+billColumns+` FROM bill_reminders WHERE id = ? AND user_id = ?`), id, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.BillReminder{}, ErrNotFound
	}
	if err != nil {
		return models.BillReminder{}, fmt.Errorf("get bill: %w", err)
	}
	return b, nil
}

// Create adds an unpaid bill reminder
func (s *BillService) Create(ctx context.Context, userID string, in BillInput) (models.BillReminder, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return models.BillReminder{}, NewValidationError("name", "Name is required")
	}
	if in.Amount.IsNegative() {
		return models.BillReminder{}, NewValidationError("amount", "Amount cannot be negative")
	}
	if err := validateDueDay(in.DueDay); err != nil {
		return models.BillReminder{}, err
	}

	now := s.now().UTC()
	b := models.BillReminder{
		ID:          uuid.NewString(),
		Name:        name,
		Amount:      in.Amount,
		DueDay:      in.DueDay,
		IsRecurring: true,
		UserID:      userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if in.IsRecurring != nil {
		b.IsRecurring = *in.IsRecurring
	}

	_, err := s.db.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO bill_reminders (`+billColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		b.ID, b.Name, b.Amount, b.DueDay, b.IsRecurring, b.IsPaid, b.UserID, b.CreatedAt, b.UpdatedAt)
	if err != nil {
		return models.BillReminder{}, fmt.Errorf("insert bill: %w", err)
	}
	return b, nil
}

// Update applies a partial change, most commonly toggling isPaid
func (s *BillService) Update(ctx context.Context, userID, id string, in BillUpdate) (models.BillReminder, error) {
	current, err := s.Get(ctx, userID, id)
	if err != nil {
		return models.BillReminder{}, err
	}

	if in.IsPaid != nil {
		current.IsPaid = *in.IsPaid
	}
	if in.IsRecurring != nil {
		current.IsRecurring = *in.IsRecurring
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return models.BillReminder{}, NewValidationError("name", "Name cannot be empty")
		}
		current.Name = name
	}
	if in.Amount != nil {
		if in.Amount.IsNegative() {
			return models.BillReminder{}, NewValidationError("amount", "Amount cannot be negative")
		}
		current.Amount = *in.Amount
	}
	if in.DueDay != nil {
		if err := validateDueDay(*in.DueDay); err != nil {
			return models.BillReminder{}, err
		}
		current.DueDay = *in.DueDay
	}
	current.UpdatedAt = s.now().UTC()

	res, err := s.db.ExecContext(ctx, s.db.Rebind(`
		UPDATE bill_reminders
		SET name = ?, amount = ?, due_day = ?, is_recurring = ?, is_paid = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`),
		current.Name, current.Amount, current.DueDay, current.IsRecurring, current.IsPaid, current.UpdatedAt,
		id, userID)
	if err != nil {
		return models.BillReminder{}, fmt.Errorf("update bill: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.BillReminder{}, ErrNotFound
	}
	return current, nil
}

// Delete removes a bill owned by the user
func (s *BillService) Delete(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM bill_reminders WHERE id = ? AND user_id = ?`), id, userID)
	if err != nil {
		return fmt.Errorf("delete bill: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ResetRecurring marks every paid recurring bill as unpaid for the new month
// and returns how many rows changed.
func (s *BillService) ResetRecurring(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`
		UPDATE bill_reminders SET is_paid = ?, updated_at = ?
		WHERE is_recurring = ? AND is_paid = ?`),
		false, s.now().UTC(), true, true)
	if err != nil {
		return 0, fmt.Errorf("reset recurring bills: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reset recurring bills: %w", err)
	}
	return n, nil
}
