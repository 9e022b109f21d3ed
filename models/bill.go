package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BillReminder is a monthly obligation due on DueDay of every month
type BillReminder struct {
	ID          string          `json:"id" db:"id"`
	Name        string          `json:"name" db:"name"`
	Amount      decimal.Decimal `json:"amount" db:"amount"`
	DueDay      int             `json:"dueDay" db:"due_day"`
	IsRecurring bool            `json:"isRecurring" db:"is_recurring"`
	IsPaid      bool            `json:"isPaid" db:"is_paid"`
	UserID      string          `json:"userId" db:"user_id"`
	CreatedAt   time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time       `json:"updatedAt" db:"updated_at"`
}
