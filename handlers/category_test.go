package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"spendwise/backend/logging"
	"spendwise/backend/models"
	"spendwise/backend/services"
)

func TestAddCategory(t *testing.T) {
	env := newTestEnv(t)
	h := NewCategoryHandler(services.NewCategoryService(env.db), logging.Discard())

	rr := serve(h.AddCategory, http.MethodPost, "/categories", `{"name":"Pets"}`, env.userID, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status code %d, got %d: %s", http.StatusOK, rr.Code, rr.Body.String())
	}

	var response models.Category
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("Error decoding response: %v", err)
	}
	if response.Icon != models.DefaultCategoryIcon || response.Color != models.DefaultCategoryColor {
		t.Errorf("Expected default icon and color, got %q %q", response.Icon, response.Color)
	}

	// Verify category was created in database
	var count int
	if err := env.db.Get(&count, env.db.Rebind("SELECT COUNT(*) FROM categories WHERE name = ? AND user_id = ?"), "Pets", env.userID); err != nil {
		t.Fatalf("Error checking category: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 category, got %d", count)
	}

	rr = serve(h.AddCategory, http.MethodPost, "/categories", `{"name":""}`, env.userID, nil)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status code %d for an empty name, got %d", http.StatusBadRequest, rr.Code)
	}
}

func TestGetCategories(t *testing.T) {
	env := newTestEnv(t)
	h := NewCategoryHandler(services.NewCategoryService(env.db), logging.Discard())

	rr := serve(h.GetCategories, http.MethodGet, "/categories", "", env.userID, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status code %d, got %d", http.StatusOK, rr.Code)
	}

	var categories []models.Category
	if err := json.NewDecoder(rr.Body).Decode(&categories); err != nil {
		t.Fatalf("Error decoding response: %v", err)
	}
	if len(categories) != 1 || categories[0].Name != "Food & Dining" {
		t.Errorf("Expected only 'Food & Dining', got %+v", categories)
	}
}

func TestDeleteCategoryInUse(t *testing.T) {
	env := newTestEnv(t)
	h := NewCategoryHandler(services.NewCategoryService(env.db), logging.Discard())
	expenses := NewExpenseHandler(services.NewExpenseService(env.db, nil), logging.Discard())

	rr := serve(expenses.AddExpense, http.MethodPost, "/expenses",
		`{"amount":9,"description":"Pizza","categoryId":"`+env.categoryID+`"}`, env.userID, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("AddExpense failed: %d %s", rr.Code, rr.Body.String())
	}

	rr = serve(h.DeleteCategory, http.MethodDelete, "/categories/"+env.categoryID, "", env.userID,
		map[string]string{"id": env.categoryID})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status code %d, got %d", http.StatusBadRequest, rr.Code)
	}
	if body := rr.Body.String(); body != "{\"error\":\"Category is in use by expenses or budgets\"}\n" {
		t.Errorf("Unexpected body %q", body)
	}
}
