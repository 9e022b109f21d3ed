package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"spendwise/backend/models"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

var hundred = decimal.NewFromInt(100)

type spendRow struct {
	Amount     decimal.Decimal `db:"amount"`
	Date       time.Time       `db:"date"`
	CategoryID string          `db:"category_id"`
}

type budgetRow struct {
	Amount     decimal.Decimal `db:"amount"`
	CategoryID string          `db:"category_id"`
}

// InsightsService builds the monthly spend summary
type InsightsService struct {
	db *sqlx.DB
}

// NewInsightsService creates a new insights service
func NewInsightsService(db *sqlx.DB) *InsightsService {
	return &InsightsService{db: db}
}

// Monthly reads the month's expenses, categories, budgets and the previous
// month's expenses concurrently and aggregates them.
func (s *InsightsService) Monthly(ctx context.Context, userID string, period Period) (models.Insights, error) {
	var (
		current    []spendRow
		previous   []spendRow
		categories []models.Category
		budgets    []budgetRow
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		current, err = s.spendBetween(gctx, userID, period)
		return err
	})
	g.Go(func() error {
		var err error
		previous, err = s.spendBetween(gctx, userID, period.Previous())
		return err
	})
	g.Go(func() error {
		err := s.db.SelectContext(gctx, &categories, s.db.Rebind(
			`SELECT `+categoryColumns+` FROM categories WHERE user_id = ?`), userID)
		if err != nil {
			return fmt.Errorf("load categories: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		err := s.db.SelectContext(gctx, &budgets, s.db.Rebind(
			`SELECT amount, category_id FROM budgets WHERE user_id = ? AND month = ? AND year = ?`),
			userID, period.Month, period.Year)
		if err != nil {
			return fmt.Errorf("load budgets: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return models.Insights{}, err
	}

	return aggregate(current, previous, categories, budgets), nil
}

func (s *InsightsService) spendBetween(ctx context.Context, userID string, p Period) ([]spendRow, error) {
	var rows []spendRow
	err := s.db.SelectContext(ctx, &rows, s.db.Rebind(`
		SELECT amount, date, category_id FROM expenses
		WHERE user_id = ? AND date >= ? AND date <= ?`),
		userID, p.Start(), p.End())
	if err != nil {
		return nil, fmt.Errorf("load expenses for %d-%02d: %w", p.Year, p.Month, err)
	}
	return rows, nil
}

// aggregate is the pure part of Monthly. Only categories with spend this month
// appear in CategoryData; a budgeted category with no spend is left out.
func aggregate(current, previous []spendRow, categories []models.Category, budgets []budgetRow) models.Insights {
	byCategory := make(map[string]decimal.Decimal)
	byDay := make(map[string]decimal.Decimal)
	totalSpent := decimal.Zero
	for _, e := range current {
		byCategory[e.CategoryID] = byCategory[e.CategoryID].Add(e.Amount)
		day := e.Date.UTC().Format(time.DateOnly)
		byDay[day] = byDay[day].Add(e.Amount)
		totalSpent = totalSpent.Add(e.Amount)
	}

	prevTotal := decimal.Zero
	for _, e := range previous {
		prevTotal = prevTotal.Add(e.Amount)
	}

	budgetByCategory := make(map[string]decimal.Decimal, len(budgets))
	totalBudget := decimal.Zero
	for _, b := range budgets {
		budgetByCategory[b.CategoryID] = budgetByCategory[b.CategoryID].Add(b.Amount)
		totalBudget = totalBudget.Add(b.Amount)
	}

	lookup := make(map[string]models.Category, len(categories))
	for _, c := range categories {
		lookup[c.ID] = c
	}

	categoryData := make([]models.CategorySpend, 0, len(byCategory))
	for id, spent := range byCategory {
		row := models.CategorySpend{
			CategoryID: id,
			Name:       models.UnknownCategoryName,
			Icon:       models.UnknownCategoryIcon,
			Color:      models.UnknownCategoryColor,
			Spent:      spent,
			Budget:     budgetByCategory[id],
		}
		if c, ok := lookup[id]; ok {
			row.Name, row.Icon, row.Color = c.Name, c.Icon, c.Color
		}
		categoryData = append(categoryData, row)
	}
	sort.Slice(categoryData, func(i, j int) bool {
		if c := categoryData[i].Spent.Cmp(categoryData[j].Spent); c != 0 {
			return c > 0
		}
		return categoryData[i].Name < categoryData[j].Name
	})

	dailyData := make([]models.DailySpend, 0, len(byDay))
	for day, amount := range byDay {
		dailyData = append(dailyData, models.DailySpend{Date: day, Amount: amount})
	}
	sort.Slice(dailyData, func(i, j int) bool { return dailyData[i].Date < dailyData[j].Date })

	percentUsed := decimal.Zero
	if totalBudget.IsPositive() {
		percentUsed = totalSpent.Div(totalBudget).Mul(hundred)
	}

	return models.Insights{
		TotalSpent:      totalSpent,
		TotalBudget:     totalBudget,
		PrevMonthTotal:  prevTotal,
		CategoryData:    categoryData,
		DailyData:       dailyData,
		BudgetRemaining: totalBudget.Sub(totalSpent),
		PercentUsed:     percentUsed,
	}
}
