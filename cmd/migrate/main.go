package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"spendwise/backend/config"
	"spendwise/backend/database"
	"spendwise/backend/logging"
	"spendwise/backend/migrations"
	"spendwise/backend/services"

	"github.com/shopspring/decimal"
)

func main() {
	down := flag.Bool("down", false, "Roll back every applied migration")
	steps := flag.Int("steps", 0, "Migrate N steps (negative rolls back)")
	version := flag.Bool("version", false, "Print the current schema version and exit")
	seedEmail := flag.String("seed-demo", "", "After migrating, create a demo account with this email")
	seedPassword := flag.String("seed-password", "demo-password", "Password for the demo account")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fail(err)
	}
	logger := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: os.Stderr})
	slog.SetDefault(logger)

	runner, err := migrations.NewRunner(cfg.DBDriver, cfg.DSN())
	if err != nil {
		fail(err)
	}
	defer runner.Close()

	switch {
	case *version:
		v, dirty, err := runner.Version()
		if err != nil {
			fail(err)
		}
		fmt.Printf("version %d (dirty: %v)\n", v, dirty)
		return
	case *down:
		err = runner.Down()
	case *steps != 0:
		err = runner.Steps(*steps)
	default:
		err = runner.Up()
	}
	if err != nil {
		fail(err)
	}

	v, _, err := runner.Version()
	if err != nil {
		fail(err)
	}
	fmt.Printf("Migrations completed successfully! Schema version %d\n", v)

	if *seedEmail != "" && !*down {
		if err := seedDemo(cfg, *seedEmail, *seedPassword); err != nil {
			fail(err)
		}
		fmt.Printf("Demo account %s ready\n", *seedEmail)
	}
}

// seedDemo registers an account and records a month of sample activity
func seedDemo(cfg *config.Config, email, password string) error {
	ctx := context.Background()
	db, err := database.Open(ctx, cfg.DBDriver, cfg.DSN())
	if err != nil {
		return err
	}
	defer db.Close()

	users := services.NewUserService(db, nil)
	user, err := users.Register(ctx, services.RegisterInput{Email: email, Password: password})
	if errors.Is(err, services.ErrUserExists) {
		slog.Info("demo account already exists", "email", email)
		return nil
	}
	if err != nil {
		return err
	}

	categories, err := services.NewCategoryService(db).List(ctx, user.ID)
	if err != nil {
		return err
	}
	byName := make(map[string]string, len(categories))
	for _, c := range categories {
		byName[c.Name] = c.ID
	}

	now := time.Now().UTC()
	period := services.PeriodOf(now)
	day := func(d int) *time.Time {
		t := time.Date(period.Year, time.Month(period.Month), d, 12, 0, 0, 0, time.UTC)
		return &t
	}

	expenses := services.NewExpenseService(db, nil)
	sample := []struct {
		category, description, amount string
		day                           int
	}{
		{"Food & Dining", "Groceries", "64.20", 1},
		{"Transportation", "Fuel", "45.00", 2},
		{"Food & Dining", "Lunch", "12.50", 3},
		{"Entertainment", "Cinema", "18.00", 4},
	}
	for _, s := range sample {
		if _, err := expenses.Create(ctx, user.ID, services.ExpenseInput{
			Amount:      decimal.RequireFromString(s.amount),
			Description: s.description,
			CategoryID:  byName[s.category],
			Date:        day(s.day),
		}); err != nil {
			return err
		}
	}

	_, err = services.NewBudgetService(db).Set(ctx, user.ID, services.BudgetInput{
		Amount:     decimal.NewFromInt(400),
		CategoryID: byName["Food & Dining"],
		Month:      period.Month,
		Year:       period.Year,
	})
	if err != nil {
		return err
	}

	_, err = services.NewBillService(db).Create(ctx, user.ID, services.BillInput{
		Name:   "Rent",
		Amount: decimal.NewFromInt(1200),
		DueDay: 1,
	})
	if err != nil {
		return err
	}

	_, err = services.NewSavingsService(db).Create(ctx, user.ID, services.SavingsInput{
		Name:         "Emergency fund",
		TargetAmount: decimal.NewFromInt(5000),
	})
	return err
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
	os.Exit(1)
}
