package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Budget struct {
	ID         string          `json:"id" db:"id"`
	Amount     decimal.Decimal `json:"amount" db:"amount"`
	CategoryID string          `json:"categoryId" db:"category_id"`
	Month      int             `json:"month" db:"month"`
	Year       int             `json:"year" db:"year"`
	UserID     string          `json:"userId" db:"user_id"`
	CreatedAt  time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time       `json:"updatedAt" db:"updated_at"`
	Category   Category        `json:"category" db:"category"`
}
