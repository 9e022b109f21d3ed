package handlers

import (
	"log/slog"
	"net/http"

	"spendwise/backend/logging"
	"spendwise/backend/middleware"
	"spendwise/backend/services"

	"github.com/gorilla/mux"
)

// ExpenseHandler serves /expenses
type ExpenseHandler struct {
	expenses *services.ExpenseService
	logger   *slog.Logger
}

// NewExpenseHandler creates a new expense handler
func NewExpenseHandler(expenses *services.ExpenseService, logger *slog.Logger) *ExpenseHandler {
	return &ExpenseHandler{expenses: expenses, logger: logger}
}

// GetExpenses lists the caller's expenses, for one month when both month and
// year are given.
func (h *ExpenseHandler) GetExpenses(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r)

	period, err := periodFromQuery(r, nil)
	if err != nil {
		handleServiceError(w, r, h.logger, logging.OpList, err)
		return
	}

	expenses, err := h.expenses.List(r.Context(), userID, period)
	if err != nil {
		handleServiceError(w, r, h.logger, logging.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, expenses)
}

func (h *ExpenseHandler) AddExpense(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r)

	var req expenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleServiceError(w, r, h.logger, logging.OpCreate, err)
		return
	}
	in, err := req.input()
	if err != nil {
		handleServiceError(w, r, h.logger, logging.OpCreate, err)
		return
	}

	expense, err := h.expenses.Create(r.Context(), userID, in)
	if err != nil {
		handleServiceError(w, r, h.logger, logging.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusOK, expense)
}

func (h *ExpenseHandler) UpdateExpense(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r)
	id := mux.Vars(r)["id"]

	var req expenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleServiceError(w, r, h.logger, logging.OpUpdate, err)
		return
	}
	in, err := req.input()
	if err != nil {
		handleServiceError(w, r, h.logger, logging.OpUpdate, err)
		return
	}

	expense, err := h.expenses.Update(r.Context(), userID, id, in)
	if err != nil {
		handleServiceError(w, r, h.logger, logging.OpUpdate, err)
		return
	}
	writeJSON(w, http.StatusOK, expense)
}

func (h *ExpenseHandler) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r)

	if err := h.expenses.Delete(r.Context(), userID, mux.Vars(r)["id"]); err != nil {
		handleServiceError(w, r, h.logger, logging.OpDelete, err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}
