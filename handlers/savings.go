package handlers

import (
	"log/slog"
	"net/http"

	"spendwise/backend/logging"
	"spendwise/backend/middleware"
	"spendwise/backend/services"

	"github.com/gorilla/mux"
)

// SavingsHandler serves /savings
type SavingsHandler struct {
	savings *services.SavingsService
	logger  *slog.Logger
}

// NewSavingsHandler creates a new savings handler
func NewSavingsHandler(savings *services.SavingsService, logger *slog.Logger) *SavingsHandler {
	return &SavingsHandler{savings: savings, logger: logger}
}

func (h *SavingsHandler) GetGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := h.savings.List(r.Context(), middleware.GetUserIDFromContext(r))
	if err != nil {
		handleServiceError(w, r, h.logger, logging.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, goals)
}

func (h *SavingsHandler) AddGoal(w http.ResponseWriter, r *http.Request) {
	var req savingsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleServiceError(w, r, h.logger, logging.OpCreate, err)
		return
	}
	in, err := req.createInput()
	if err != nil {
		handleServiceError(w, r, h.logger, logging.OpCreate, err)
		return
	}

	goal, err := h.savings.Create(r.Context(), middleware.GetUserIDFromContext(r), in)
	if err != nil {
		handleServiceError(w, r, h.logger, logging.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusOK, goal)
}

// UpdateGoal applies the fields present in the body; "deadline": null clears
// the deadline.
func (h *SavingsHandler) UpdateGoal(w http.ResponseWriter, r *http.Request) {
	var req savingsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleServiceError(w, r, h.logger, logging.OpUpdate, err)
		return
	}
	in, err := req.updateInput()
	if err != nil {
		handleServiceError(w, r, h.logger, logging.OpUpdate, err)
		return
	}

	goal, err := h.savings.Update(r.Context(), middleware.GetUserIDFromContext(r), mux.Vars(r)["id"], in)
	if err != nil {
		handleServiceError(w, r, h.logger, logging.OpUpdate, err)
		return
	}
	writeJSON(w, http.StatusOK, goal)
}

// AddContribution adds to currentAmount without a read-modify-write
func (h *SavingsHandler) AddContribution(w http.ResponseWriter, r *http.Request) {
	var req contributionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleServiceError(w, r, h.logger, logging.OpUpdate, err)
		return
	}
	amount, err := req.Amount.Decimal("amount")
	if err != nil {
		handleServiceError(w, r, h.logger, logging.OpUpdate, err)
		return
	}

	goal, err := h.savings.AddFunds(r.Context(), middleware.GetUserIDFromContext(r), mux.Vars(r)["id"], amount)
	if err != nil {
		handleServiceError(w, r, h.logger, logging.OpUpdate, err)
		return
	}
	writeJSON(w, http.StatusOK, goal)
}

func (h *SavingsHandler) DeleteGoal(w http.ResponseWriter, r *http.Request) {
	if err := h.savings.Delete(r.Context(), middleware.GetUserIDFromContext(r), mux.Vars(r)["id"]); err != nil {
		handleServiceError(w, r, h.logger, logging.OpDelete, err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}
