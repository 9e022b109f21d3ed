package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"spendwise/backend/billing"
	"spendwise/backend/database"
	"spendwise/backend/metrics"
	"spendwise/backend/models"
	"spendwise/backend/security"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const userColumns = `id, email, name, password_hash, stripe_customer_id, stripe_subscription_id,
	stripe_price_id, stripe_current_period_end, created_at, updated_at`

// RegisterInput is a new account
type RegisterInput struct {
	Email    string
	Password string
	Name     *string
}

// UserService creates accounts and checks credentials
type UserService struct {
	db      *sqlx.DB
	metrics *metrics.Metrics
	seeds   []models.CategorySeed
	now     func() time.Time
}

// NewUserService creates a new user service that seeds models.DefaultCategories
func NewUserService(db *sqlx.DB, m *metrics.Metrics) *UserService {
	return &UserService{db: db, metrics: m, seeds: models.DefaultCategories, now: time.Now}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates the user together with the default categories. Either all
// rows are written or none are.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (models.User, error) {
	email := normalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return models.User{}, NewValidationError("email", "Email and password are required")
	}
	if !strings.Contains(email, "@") {
		return models.User{}, NewValidationError("email", "Invalid email address")
	}

	if _, err := s.GetByEmail(ctx, email); err == nil {
		return models.User{}, ErrUserExists
	} else if !errors.Is(err, ErrNotFound) {
		return models.User{}, err
	}

	hash, err := security.HashPassword(in.Password)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	user := models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if in.Name != nil {
		if name := strings.TrimSpace(*in.Name); name != "" {
			user.Name = &name
		}
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.User{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, tx.Rebind(`
		INSERT INTO users (id, email, name, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`),
		user.ID, user.Email, user.Name, user.PasswordHash, user.CreatedAt, user.UpdatedAt)
	if database.IsUniqueViolation(err) {
		return models.User{}, ErrUserExists
	}
	if err != nil {
		return models.User{}, fmt.Errorf("insert user: %w", err)
	}

	for _, seed := range s.seeds {
		_, err = tx.ExecContext(ctx, tx.Rebind(`
			INSERT INTO categories (id, name, icon, color, user_id, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`),
			uuid.NewString(), seed.Name, seed.Icon, seed.Color, user.ID, now)
		if err != nil {
			return models.User{}, fmt.Errorf("seed category %q: %w", seed.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return models.User{}, fmt.Errorf("commit registration: %w", err)
	}
	s.metrics.IncUsersRegistered()
	return user, nil
}

// Authenticate returns the user when email and password match
func (s *UserService) Authenticate(ctx context.Context, email, password string) (models.User, error) {
	user, err := s.GetByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return models.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return models.User{}, err
	}

	ok, err := security.CheckPassword(user.PasswordHash, password)
	if err != nil {
		return models.User{}, fmt.Errorf("check password: %w", err)
	}
	if !ok {
		return models.User{}, ErrInvalidCredentials
	}
	return user, nil
}

// GetByID loads a user by id
func (s *UserService) GetByID(ctx context.Context, id string) (models.User, error) {
	return s.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

// GetByEmail loads a user by email, case-insensitively
func (s *UserService) GetByEmail(ctx context.Context, email string) (models.User, error) {
	return s.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, normalizeEmail(email))
}

func (s *UserService) getOne(ctx context.Context, query string, arg any) (models.User, error) {
	var u models.User
	err := s.db.GetContext(ctx, &u, s.db.Rebind(query), arg)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// Billing returns the billing fields of a user
func (s *UserService) Billing(ctx context.Context, userID string) (models.BillingInfo, error) {
	u, err := s.GetByID(ctx, userID)
	if err != nil {
		return models.BillingInfo{}, err
	}
	return u.BillingInfo, nil
}

// SyncSubscription stores the subscription state carried by a billing event.
// The user is matched by id when the event has one, otherwise by customer id.
func (s *UserService) SyncSubscription(ctx context.Context, ev billing.SubscriptionEvent) error {
	var (
		where string
		key   string
	)
	switch {
	case ev.UserID != "":
		where, key = "id = ?", ev.UserID
	case ev.CustomerID != "":
		where, key = "stripe_customer_id = ?", ev.CustomerID
	default:
		return NewValidationError("event", "Subscription event has no user or customer")
	}

	var (
		query string
		args  []any
	)
	now := s.now().UTC()
	if ev.Ended {
		query = `UPDATE users SET stripe_subscription_id = NULL, stripe_price_id = NULL,
			stripe_current_period_end = NULL, updated_at = ? WHERE ` + where
		args = []any{now, key}
	} else {
		query = `UPDATE users SET stripe_customer_id = COALESCE(?, stripe_customer_id),
			stripe_subscription_id = ?, stripe_price_id = ?, stripe_current_period_end = ?,
			updated_at = ? WHERE ` + where
		args = []any{nullString(ev.CustomerID), nullString(ev.SubscriptionID), nullString(ev.PriceID),
			ev.CurrentPeriodEnd, now, key}
	}

	res, err := s.db.ExecContext(ctx, s.db.Rebind(query), args...)
	if err != nil {
		return fmt.Errorf("sync subscription: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// UserIDByEmail returns the id of the account registered with email
func (s *UserService) UserIDByEmail(ctx context.Context, email string) (string, error) {
	u, err := s.GetByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	return u.ID, nil
}
