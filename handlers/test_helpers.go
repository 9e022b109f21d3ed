package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"spendwise/backend/database/dbtest"
	"spendwise/backend/middleware"

	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
)

// testEnv is a migrated database with one user and one category
type testEnv struct {
	db         *sqlx.DB
	userID     string
	categoryID string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := dbtest.New(t)
	userID := dbtest.CreateUser(t, db, "handler-test@example.com")
	return &testEnv{
		db:         db,
		userID:     userID,
		categoryID: dbtest.CreateCategory(t, db, userID, "Food & Dining"),
	}
}

// SetupTestAuth adds authentication context to the request
func SetupTestAuth(req *http.Request, userID string) *http.Request {
	ctx := context.WithValue(req.Context(), middleware.UserIDKey, userID)
	return req.WithContext(ctx)
}

// serve runs h for one request as userID with the given mux path variables
func serve(h http.HandlerFunc, method, target, body, userID string, vars map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req = SetupTestAuth(req, userID)
	}
	if vars != nil {
		req = mux.SetURLVars(req, vars)
	}
	return serveRequest(h, req)
}

func serveRequest(h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h(rr, req)
	return rr
}

func newWebhookRequest(payload, signature string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/stripe/webhook", strings.NewReader(payload))
	req.Header.Set("Stripe-Signature", signature)
	return req
}
