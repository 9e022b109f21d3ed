package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"spendwise/backend/logging"
	"spendwise/backend/middleware"
	"spendwise/backend/services"
)

// InsightsHandler serves the monthly spend summary
type InsightsHandler struct {
	insights *services.InsightsService
	logger   *slog.Logger
	now      func() time.Time
}

// NewInsightsHandler creates a new insights handler
func NewInsightsHandler(insights *services.InsightsService, logger *slog.Logger) *InsightsHandler {
	return &InsightsHandler{
		insights: insights,
		logger:   logging.WithComponent(logger, logging.ComponentInsights),
		now:      time.Now,
	}
}

// GetInsights aggregates month/year, defaulting to the current month
func (h *InsightsHandler) GetInsights(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r)

	current := services.PeriodOf(h.now())
	period, err := periodFromQuery(r, &current)
	if err != nil {
		handleServiceError(w, r, h.logger, logging.OpRead, err)
		return
	}

	insights, err := h.insights.Monthly(r.Context(), userID, *period)
	if err != nil {
		handleServiceError(w, r, h.logger, logging.OpRead, err)
		return
	}

	logging.FromContextOr(r.Context(), h.logger).Debug("insights computed",
		slog.String(logging.FieldUserID, userID),
		slog.Int(logging.FieldMonth, period.Month),
		slog.Int(logging.FieldYear, period.Year))
	writeJSON(w, http.StatusOK, insights)
}
