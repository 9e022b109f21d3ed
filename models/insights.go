package models

import "github.com/shopspring/decimal"

// Insights is the monthly spend summary for one user
type Insights struct {
	TotalSpent      decimal.Decimal `json:"totalSpent"`
	TotalBudget     decimal.Decimal `json:"totalBudget"`
	PrevMonthTotal  decimal.Decimal `json:"prevMonthTotal"`
	CategoryData    []CategorySpend `json:"categoryData"`
	DailyData       []DailySpend    `json:"dailyData"`
	BudgetRemaining decimal.Decimal `json:"budgetRemaining"`
	PercentUsed     decimal.Decimal `json:"percentUsed"`
}

// CategorySpend is spend against budget for one category in the month
type CategorySpend struct {
	CategoryID string          `json:"categoryId"`
	Name       string          `json:"name"`
	Icon       string          `json:"icon"`
	Color      string          `json:"color"`
	Spent      decimal.Decimal `json:"spent"`
	Budget     decimal.Decimal `json:"budget"`
}

// DailySpend is the total spent on one calendar date (YYYY-MM-DD)
type DailySpend struct {
	Date   string          `json:"date"`
	Amount decimal.Decimal `json:"amount"`
}
