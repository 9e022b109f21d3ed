package services

import (
	"context"
	"errors"
	"testing"

	"spendwise/backend/logging"
	"spendwise/backend/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type stubResetter struct {
	calls int
	n     int64
	err   error
}

func (s *stubResetter) ResetRecurring(ctx context.Context) (int64, error) {
	s.calls++
	return s.n, s.err
}

func TestSchedulerRejectsBadSchedule(t *testing.T) {
	if _, err := NewScheduler(&stubResetter{}, "not a schedule", logging.Discard(), nil); err == nil {
		t.Error("Expected an error for an invalid cron expression")
	}
}

func TestSchedulerResetRecordsOutcome(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())

	ok := &stubResetter{n: 3}
	s, err := NewScheduler(ok, "0 0 1 * *", logging.Discard(), m)
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}
	s.ResetRecurringBills()
	if ok.calls != 1 {
		t.Errorf("Expected 1 reset call, got %d", ok.calls)
	}

	failing := &stubResetter{err: errors.New("database is locked")}
	s, err = NewScheduler(failing, "@monthly", logging.Discard(), m)
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}
	s.ResetRecurringBills()

	if got := testutil.ToFloat64(m.SchedulerRuns.WithLabelValues(JobResetRecurringBills, "success")); got != 1 {
		t.Errorf("success runs = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.SchedulerRuns.WithLabelValues(JobResetRecurringBills, "error")); got != 1 {
		t.Errorf("error runs = %v, want 1", got)
	}
}

func TestSchedulerStartStop(t *testing.T) {
	s, err := NewScheduler(&stubResetter{}, "@monthly", logging.Discard(), nil)
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}
	s.Start()
	s.Stop(context.Background())
}
