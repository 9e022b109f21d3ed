package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type SavingsGoal struct {
	ID            string          `json:"id" db:"id"`
	Name          string          `json:"name" db:"name"`
	TargetAmount  decimal.Decimal `json:"targetAmount" db:"target_amount"`
	CurrentAmount decimal.Decimal `json:"currentAmount" db:"current_amount"`
	Deadline      *time.Time      `json:"deadline" db:"deadline"`
	UserID        string          `json:"userId" db:"user_id"`
	CreatedAt     time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time       `json:"updatedAt" db:"updated_at"`
}
