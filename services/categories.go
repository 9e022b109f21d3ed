package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"spendwise/backend/database"
	"spendwise/backend/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const categoryColumns = `id, name, icon, color, user_id, created_at`

// CategoryInput is a new category
type CategoryInput struct {
	Name  string
	Icon  string
	Color string
}

// CategoryUpdate carries the fields to change; nil leaves a field as is
type CategoryUpdate struct {
	Name  *string
	Icon  *string
	Color *string
}

// CategoryService manages a user's spending categories
type CategoryService struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewCategoryService creates a new category service
func NewCategoryService(db *sqlx.DB) *CategoryService {
	return &CategoryService{db: db, now: time.Now}
}

// List returns the user's categories ordered by name
func (s *CategoryService) List(ctx context.Context, userID string) ([]models.Category, error) {
	categories := []models.Category{}
	err := s.db.SelectContext(ctx, &categories, s.db.Rebind(
		`SELECT `+categoryColumns+` FROM categories WHERE user_id = ? ORDER BY name ASC`), userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// Get returns one category owned by the user
func (s *CategoryService) Get(ctx context.Context, userID, id string) (models.Category, error) {
	var c models.Category
	err := s.db.GetContext(ctx, &c, s.db.Rebind(
		`SELECT `+categoryColumns+` FROM categories WHERE id = ? AND user_id = ?`), id, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Category{}, ErrNotFound
	}
	if err != nil {
		return models.Category{}, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

// Create adds a category; icon and color fall back to the defaults
func (s *CategoryService) Create(ctx context.Context, userID string, in CategoryInput) (models.Category, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return models.Category{}, NewValidationError("name", "Name is required")
	}

	c := models.Category{
		ID:        uuid.NewString(),
		Name:      name,
		Icon:      strings.TrimSpace(in.Icon),
		Color:     strings.TrimSpace(in.Color),
		UserID:    userID,
		CreatedAt: s.now().UTC(),
	}
	if c.Icon == "" {
		c.Icon = models.DefaultCategoryIcon
	}
	if c.Color == "" {
		c.Color = models.DefaultCategoryColor
	}

	_, err := s.db.ExecContext(ctx, s.db.Rebind(
		`INSERT INTO categories (id, name, icon, color, user_id, created_at) VALUES (?, ?, ?, ?, ?, ?)`),
		c.ID, c.Name, c.Icon, c.Color, c.UserID, c.CreatedAt)
	if database.IsUniqueViolation(err) {
		return models.Category{}, NewValidationError("name", "Category already exists")
	}
	if err != nil {
		return models.Category{}, fmt.Errorf("insert category: %w", err)
	}
	return c, nil
}

// Update changes name, icon or color of a category owned by the user
func (s *CategoryService) Update(ctx context.Context, userID, id string, in CategoryUpdate) (models.Category, error) {
	current, err := s.Get(ctx, userID, id)
	if err != nil {
		return models.Category{}, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return models.Category{}, NewValidationError("name", "Name cannot be empty")
		}
		current.Name = name
	}
	if in.Icon != nil && strings.TrimSpace(*in.Icon) != "" {
		current.Icon = strings.TrimSpace(*in.Icon)
	}
	if in.Color != nil && strings.TrimSpace(*in.Color) != "" {
		current.Color = strings.TrimSpace(*in.Color)
	}

	res, err := s.db.ExecContext(ctx, s.db.Rebind(
		`UPDATE categories SET name = ?, icon = ?, color = ? WHERE id = ? AND user_id = ?`),
		current.Name, current.Icon, current.Color, id, userID)
	if database.IsUniqueViolation(err) {
		return models.Category{}, NewValidationError("name", "Category already exists")
	}
	if err != nil {
		return models.Category{}, fmt.Errorf("update category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.Category{}, ErrNotFound
	}
	return current, nil
}

// Delete removes a category. Categories still referenced by an expense or a
// budget are kept and a validation error is returned.
func (s *CategoryService) Delete(ctx context.Context, userID, id string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.GetContext(ctx, &exists, tx.Rebind(
		`SELECT COUNT(*) FROM categories WHERE id = ? AND user_id = ?`), id, userID)
	if err != nil {
		return fmt.Errorf("check category: %w", err)
	}
	if exists == 0 {
		return ErrNotFound
	}

	var dependents int
	err = tx.GetContext(ctx, &dependents, tx.Rebind(`
		SELECT (SELECT COUNT(*) FROM expenses WHERE category_id = ?)
		     + (SELECT COUNT(*) FROM budgets WHERE category_id = ?)`), id, id)
	if err != nil {
		return fmt.Errorf("count category dependents: %w", err)
	}
	if dependents > 0 {
		return NewValidationError("id", "Category is in use by expenses or budgets")
	}

	_, err = tx.ExecContext(ctx, tx.Rebind(`DELETE FROM categories WHERE id = ? AND user_id = ?`), id, userID)
	if database.IsForeignKeyViolation(err) {
		return NewValidationError("id", "Category is in use by expenses or budgets")
	}
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit category delete: %w", err)
	}
	return nil
}

// requireOwnedCategory rejects a category id that does not belong to userID
func requireOwnedCategory(ctx context.Context, q sqlx.ExtContext, userID, categoryID string) error {
	if strings.TrimSpace(categoryID) == "" {
		return NewValidationError("categoryId", "Category is required")
	}
	var n int
	err := sqlx.GetContext(ctx, q, &n, q.Rebind(
		`SELECT COUNT(*) FROM categories WHERE id = ? AND user_id = ?`), categoryID, userID)
	if err != nil {
		return fmt.Errorf("check category ownership: %w", err)
	}
	if n == 0 {
		return NewValidationError("categoryId", "Invalid category")
	}
	return nil
}
