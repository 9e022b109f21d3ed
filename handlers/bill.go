package handlers

import (
	"log/slog"
	"net/http"

	"spendwise/backend/logging"
	"spendwise/backend/middleware"
	"spendwise/backend/services"

	"github.com/gorilla/mux"
)

// BillHandler serves /bills
type BillHandler struct {
	bills  *services.BillService
	logger *slog.Logger
}

// NewBillHandler creates a new bill handler
func NewBillHandler(bills *services.BillService, logger *slog.Logger) *BillHandler {
	return &BillHandler{bills: bills, logger: logger}
}

func (h *BillHandler) GetBills(w http.ResponseWriter, r *http.Request) {
	bills, err := h.bills.List(r.Context(), middleware.GetUserIDFromContext(r))
	if err != nil {
		handleServiceError(w, r, h.logger, logging.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, bills)
}

func (h *BillHandler) AddBill(w http.ResponseWriter, r *http.Request) {
	var req billRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleServiceError(w, r, h.logger, logging.OpCreate, err)
		return
	}
	in, err := req.createInput()
	if err != nil {
		handleServiceError(w, r, h.logger, logging.OpCreate, err)
		return
	}

	bill, err := h.bills.Create(r.Context(), middleware.GetUserIDFromContext(r), in)
	if err != nil {
		handleServiceError(w, r, h.logger, logging.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusOK, bill)
}

// UpdateBill is mostly used to toggle isPaid; other fields may be sent too
func (h *BillHandler) UpdateBill(w http.ResponseWriter, r *http.Request) {
	var req billRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleServiceError(w, r, h.logger, logging.OpUpdate, err)
		return
	}
	in, err := req.updateInput()
	if err != nil {
		handleServiceError(w, r, h.logger, logging.OpUpdate, err)
		return
	}

	bill, err := h.bills.Update(r.Context(), middleware.GetUserIDFromContext(r), mux.Vars(r)["id"], in)
	if err != nil {
		handleServiceError(w, r, h.logger, logging.OpUpdate, err)
		return
	}
	writeJSON(w, http.StatusOK, bill)
}

func (h *BillHandler) DeleteBill(w http.ResponseWriter, r *http.Request) {
	if err := h.bills.Delete(r.Context(), middleware.GetUserIDFromContext(r), mux.Vars(r)["id"]); err != nil {
		handleServiceError(w, r, h.logger, logging.OpDelete, err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}
