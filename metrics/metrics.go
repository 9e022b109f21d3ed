package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	gatherer prometheus.Gatherer

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	UsersRegistered prometheus.Counter
	ExpensesCreated prometheus.Counter
	SchedulerRuns   *prometheus.CounterVec
}

// New creates the metrics and registers them with reg
func New(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		gatherer: reg,
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "spendwise_http_requests_total",
			Help: "Total number of HTTP requests by route, method and status code",
		}, []string{"route", "method", "code"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "spendwise_http_request_duration_seconds",
			Help:    "HTTP request latency by route and method",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		UsersRegistered: factory.NewCounter(prometheus.CounterOpts{
			Name: "spendwise_users_registered_total",
			Help: "Total number of accounts created",
		}),
		ExpensesCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "spendwise_expenses_created_total",
			Help: "Total number of expenses recorded",
		}),
		SchedulerRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "spendwise_scheduler_runs_total",
			Help: "Scheduled job runs by job name and outcome",
		}, []string{"job", "outcome"}),
	}
}

// IncUsersRegistered increments the registrations counter by 1
func (m *Metrics) IncUsersRegistered() {
	if m == nil {
		return
	}
	m.UsersRegistered.Inc()
}

// IncExpensesCreated increments the expenses counter by 1
func (m *Metrics) IncExpensesCreated() {
	if m == nil {
		return
	}
	m.ExpensesCreated.Inc()
}

// ObserveSchedulerRun records one run of a scheduled job
func (m *Metrics) ObserveSchedulerRun(job string, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.SchedulerRuns.WithLabelValues(job, outcome).Inc()
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Middleware records request counts and latency labelled by the matched mux
// route template, so ids in paths do not explode label cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m == nil {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		route := "unmatched"
		if current := mux.CurrentRoute(r); current != nil {
			if tpl, err := current.GetPathTemplate(); err == nil {
				route = tpl
			}
		}

		m.RequestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(sw.status)).Inc()
		m.RequestDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}
