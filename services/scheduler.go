package services

import (
	"context"
	"log/slog"
	"time"

	"spendwise/backend/logging"
	"spendwise/backend/metrics"

	"github.com/robfig/cron/v3"
)

// JobResetRecurringBills is the scheduler job that reopens paid recurring bills
const JobResetRecurringBills = "reset_recurring_bills"

// BillResetter is the part of BillService the scheduler needs
type BillResetter interface {
	ResetRecurring(ctx context.Context) (int64, error)
}

// Scheduler runs periodic maintenance tasks
type Scheduler struct {
	cron    *cron.Cron
	bills   BillResetter
	logger  *slog.Logger
	metrics *metrics.Metrics
	timeout time.Duration
}

// NewScheduler registers the bill reset job on the given cron schedule
// (standard five-field syntax, evaluated in UTC).
func NewScheduler(bills BillResetter, schedule string, logger *slog.Logger, m *metrics.Metrics) (*Scheduler, error) {
	s := &Scheduler{
		cron:    cron.New(cron.WithLocation(time.UTC)),
		bills:   bills,
		logger:  logging.WithComponent(logger, logging.ComponentScheduler),
		metrics: m,
		timeout: time.Minute,
	}
	if _, err := s.cron.AddFunc(schedule, s.ResetRecurringBills); err != nil {
		return nil, err
	}
	return s, nil
}

// Start starts the task scheduler in its own goroutine
func (s *Scheduler) Start() {
	s.logger.Info("starting task scheduler", slog.Int("jobs", len(s.cron.Entries())))
	s.cron.Start()
}

// Stop stops scheduling and waits for a running job to finish or ctx to end
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn("scheduler stop timed out with a job still running")
	}
}

// ResetRecurringBills marks paid recurring bills unpaid for the new month
func (s *Scheduler) ResetRecurringBills() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	n, err := s.bills.ResetRecurring(ctx)
	s.metrics.ObserveSchedulerRun(JobResetRecurringBills, err)
	if err != nil {
		s.logger.Error("recurring bill reset failed", slog.String(logging.FieldError, err.Error()))
		return
	}
	s.logger.Info("recurring bills reset", slog.Int64("bills", n))
}
