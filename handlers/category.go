package handlers

import (
	"log/slog"
	"net/http"

	"spendwise/backend/logging"
	"spendwise/backend/middleware"
	"spendwise/backend/services"

	"github.com/gorilla/mux"
)

// CategoryHandler serves /categories
type CategoryHandler struct {
	categories *services.CategoryService
	logger     *slog.Logger
}

// NewCategoryHandler creates a new category handler
func NewCategoryHandler(categories *services.CategoryService, logger *slog.Logger) *CategoryHandler {
	return &CategoryHandler{categories: categories, logger: logger}
}

func (h *CategoryHandler) GetCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categories.List(r.Context(), middleware.GetUserIDFromContext(r))
	if err != nil {
		handleServiceError(w, r, h.logger, logging.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

func (h *CategoryHandler) AddCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleServiceError(w, r, h.logger, logging.OpCreate, err)
		return
	}

	in := services.CategoryInput{}
	if req.Name != nil {
		in.Name = *req.Name
	}
	if req.Icon != nil {
		in.Icon = *req.Icon
	}
	if req.Color != nil {
		in.Color = *req.Color
	}

	category, err := h.categories.Create(r.Context(), middleware.GetUserIDFromContext(r), in)
	if err != nil {
		handleServiceError(w, r, h.logger, logging.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusOK, category)
}

func (h *CategoryHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleServiceError(w, r, h.logger, logging.OpUpdate, err)
		return
	}

	category, err := h.categories.Update(r.Context(), middleware.GetUserIDFromContext(r), mux.Vars(r)["id"],
		services.CategoryUpdate{Name: req.Name, Icon: req.Icon, Color: req.Color})
	if err != nil {
		handleServiceError(w, r, h.logger, logging.OpUpdate, err)
		return
	}
	writeJSON(w, http.StatusOK, category)
}

// DeleteCategory refuses categories that still have expenses or budgets
func (h *CategoryHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.categories.Delete(r.Context(), middleware.GetUserIDFromContext(r), mux.Vars(r)["id"]); err != nil {
		handleServiceError(w, r, h.logger, logging.OpDelete, err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}
