package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"spendwise/backend/logging"
	"spendwise/backend/middleware"
	"spendwise/backend/services"

	"github.com/gorilla/mux"
)

// BudgetHandler serves /budgets
type BudgetHandler struct {
	budgets *services.BudgetService
	logger  *slog.Logger
	now     func() time.Time
}

// NewBudgetHandler creates a new budget handler
func NewBudgetHandler(budgets *services.BudgetService, logger *slog.Logger) *BudgetHandler {
	return &BudgetHandler{budgets: budgets, logger: logger, now: time.Now}
}

// GetBudgets lists budgets for month/year, defaulting to the current month
func (h *BudgetHandler) GetBudgets(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r)

	current := services.PeriodOf(h.now())
	period, err := periodFromQuery(r, &current)
	if err != nil {
		handleServiceError(w, r, h.logger, logging.OpList, err)
		return
	}

	budgets, err := h.budgets.List(r.Context(), userID, *period)
	if err != nil {
		handleServiceError(w, r, h.logger, logging.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, budgets)
}

// SetBudget creates the budget for (category, month, year) or replaces its amount
func (h *BudgetHandler) SetBudget(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r)

	var req budgetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleServiceError(w, r, h.logger, logging.OpCreate, err)
		return
	}
	in, err := req.input()
	if err != nil {
		handleServiceError(w, r, h.logger, logging.OpCreate, err)
		return
	}

	budget, err := h.budgets.Set(r.Context(), userID, in)
	if err != nil {
		handleServiceError(w, r, h.logger, logging.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusOK, budget)
}

func (h *BudgetHandler) DeleteBudget(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r)

	if err := h.budgets.Delete(r.Context(), userID, mux.Vars(r)["id"]); err != nil {
		handleServiceError(w, r, h.logger, logging.OpDelete, err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}
