package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"spendwise/backend/database/dbtest"
	"spendwise/backend/logging"
	"spendwise/backend/models"
	"spendwise/backend/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newExpenseHandler(env *testEnv) *ExpenseHandler {
	return NewExpenseHandler(services.NewExpenseService(env.db, nil), logging.Discard())
}

func TestAddExpense(t *testing.T) {
	env := newTestEnv(t)
	h := newExpenseHandler(env)

	rr := serve(h.AddExpense, http.MethodPost, "/expenses",
		`{"amount":"12.50","description":"Lunch","categoryId":"`+env.categoryID+`","date":"2024-03-05"}`,
		env.userID, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var expense models.Expense
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&expense))
	assert.Equal(t, "12.5", expense.Amount.String())
	assert.Equal(t, "Lunch", expense.Description)
	assert.Equal(t, "Food & Dining", expense.Category.Name)
	assert.Equal(t, "2024-03-05", expense.Date.Format("2006-01-02"))
}

func TestAddExpenseRejectsBadInput(t *testing.T) {
	env := newTestEnv(t)
	h := newExpenseHandler(env)

	testCases := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name:    "Non-numeric amount",
			body:    `{"amount":"twelve","description":"Lunch","categoryId":"` + env.categoryID + `"}`,
			wantErr: "amount must be a number",
		},
		{
			name:    "Boolean amount",
			body:    `{"amount":true,"description":"Lunch","categoryId":"` + env.categoryID + `"}`,
			wantErr: "amount must be a number",
		},
		{
			name:    "Missing amount",
			body:    `{"description":"Lunch","categoryId":"` + env.categoryID + `"}`,
			wantErr: "amount is required",
		},
		{
			name:    "Negative amount",
			body:    `{"amount":-3,"description":"Lunch","categoryId":"` + env.categoryID + `"}`,
			wantErr: "Amount must be greater than zero",
		},
		{
			name:    "Bad date",
			body:    `{"amount":3,"description":"Lunch","categoryId":"` + env.categoryID + `","date":"yesterday"}`,
			wantErr: "date must be a date",
		},
		{
			name:    "Foreign category",
			body:    `{"amount":3,"description":"Lunch","categoryId":"does-not-exist"}`,
			wantErr: "Invalid category",
		},
		{
			name:    "Malformed JSON",
			body:    `{"amount":`,
			wantErr: "Invalid request body",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rr := serve(h.AddExpense, http.MethodPost, "/expenses", tc.body, env.userID, nil)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.JSONEq(t, `{"error":"`+tc.wantErr+`"}`, rr.Body.String())
		})
	}
}

func TestGetExpensesByMonth(t *testing.T) {
	env := newTestEnv(t)
	h := newExpenseHandler(env)

	for _, body := range []string{
		`{"amount":10,"description":"a","categoryId":"` + env.categoryID + `","date":"2024-03-05"}`,
		`{"amount":20,"description":"b","categoryId":"` + env.categoryID + `","date":"2024-04-01"}`,
	} {
		rr := serve(h.AddExpense, http.MethodPost, "/expenses", body, env.userID, nil)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	}

	rr := serve(h.GetExpenses, http.MethodGet, "/expenses?month=3&year=2024", "", env.userID, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var march []models.Expense
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&march))
	require.Len(t, march, 1)
	assert.Equal(t, "a", march[0].Description)

	rr = serve(h.GetExpenses, http.MethodGet, "/expenses", "", env.userID, nil)
	var all []models.Expense
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&all))
	assert.Len(t, all, 2)

	rr = serve(h.GetExpenses, http.MethodGet, "/expenses?month=march&year=2024", "", env.userID, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestDeleteExpense(t *testing.T) {
	env := newTestEnv(t)
	h := newExpenseHandler(env)

	rr := serve(h.AddExpense, http.MethodPost, "/expenses",
		`{"amount":5,"description":"Coffee","categoryId":"`+env.categoryID+`"}`, env.userID, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var expense models.Expense
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&expense))

	intruder := dbtest.CreateUser(t, env.db, "intruder@example.com")
	rr = serve(h.DeleteExpense, http.MethodDelete, "/expenses/"+expense.ID, "", intruder, map[string]string{"id": expense.ID})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.JSONEq(t, `{"error":"Not found"}`, rr.Body.String())

	rr = serve(h.DeleteExpense, http.MethodDelete, "/expenses/"+expense.ID, "", env.userID, map[string]string{"id": expense.ID})
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"success":true}`, rr.Body.String())
}
