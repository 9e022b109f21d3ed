package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"spendwise/backend/logging"
	"spendwise/backend/security"

	"firebase.google.com/go/v4/auth"
)

type fakeVerifier struct {
	tokens map[string]string // id token -> email
}

func (f fakeVerifier) VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error) {
	email, ok := f.tokens[idToken]
	if !ok {
		return nil, errors.New("invalid id token")
	}
	return &auth.Token{UID: "firebase-uid", Claims: map[string]interface{}{"email": email}}, nil
}

type fakeUsers map[string]string // email -> user id

func (f fakeUsers) UserIDByEmail(ctx context.Context, email string) (string, error) {
	id, ok := f[email]
	if !ok {
		return "", errors.New("not found")
	}
	return id, nil
}

func newIssuer(t *testing.T) *security.TokenIssuer {
	t.Helper()
	return security.NewTokenIssuer("test-secret-that-is-long-enough-123", "spendwise", time.Hour)
}

func TestExtractToken(t *testing.T) {
	testCases := []struct {
		name          string
		authHeader    string
		expectedToken string
	}{
		{
			name:          "Valid Bearer token",
			authHeader:    "Bearer test-token-123",
			expectedToken: "test-token-123",
		},
		{
			name:          "Lowercase scheme",
			authHeader:    "bearer test-token-123",
			expectedToken: "test-token-123",
		},
		{
			name:          "Missing Bearer prefix",
			authHeader:    "test-token-123",
			expectedToken: "",
		},
		{
			name:          "Empty auth header",
			authHeader:    "",
			expectedToken: "",
		},
		{
			name:          "Bearer with no token",
			authHeader:    "Bearer ",
			expectedToken: "",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			token := extractToken(tc.authHeader)
			if token != tc.expectedToken {
				t.Errorf("Expected token '%s', got '%s'", tc.expectedToken, token)
			}
		})
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	issuer := newIssuer(t)
	token, _, err := issuer.Issue("user-123", "user@example.com")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	var gotUserID, gotEmail string
	handler := AuthMiddleware(TokenResolver{Issuer: issuer}, logging.Discard())(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotUserID = GetUserIDFromContext(r)
			gotEmail = GetUserEmailFromContext(r)
			w.WriteHeader(http.StatusOK)
		}))

	req := httptest.NewRequest(http.MethodGet, "/expenses", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Handler returned wrong status code: got %v want %v", rr.Code, http.StatusOK)
	}
	if gotUserID != "user-123" {
		t.Errorf("Expected user_id 'user-123', got %q", gotUserID)
	}
	if gotEmail != "user@example.com" {
		t.Errorf("Expected email 'user@example.com', got %q", gotEmail)
	}
}

func TestAuthMiddleware_SessionCookie(t *testing.T) {
	issuer := newIssuer(t)
	token, _, err := issuer.Issue("cookie-user", "cookie@example.com")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	handler := AuthMiddleware(TokenResolver{Issuer: issuer}, logging.Discard())(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if GetUserIDFromContext(r) != "cookie-user" {
				t.Errorf("Expected cookie-user, got %q", GetUserIDFromContext(r))
			}
		}))

	req := httptest.NewRequest(http.MethodGet, "/bills", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("Expected status code %v, got %v", http.StatusOK, rr.Code)
	}
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	issuer := newIssuer(t)
	other := security.NewTokenIssuer("some-other-secret-also-long-enough", "spendwise", time.Hour)
	forged, _, err := other.Issue("user-123", "user@example.com")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	testCases := []struct {
		name   string
		header string
	}{
		{name: "Missing header", header: ""},
		{name: "Garbage token", header: "Bearer not-a-jwt"},
		{name: "Wrong signing key", header: "Bearer " + forged},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			handler := AuthMiddleware(TokenResolver{Issuer: issuer}, logging.Discard())(
				http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					t.Error("Handler should not be called without a valid session")
				}))

			req := httptest.NewRequest(http.MethodGet, "/expenses", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != http.StatusUnauthorized {
				t.Errorf("Expected status code %v, got %v", http.StatusUnauthorized, rr.Code)
			}
			if body := rr.Body.String(); body != "{\"error\":\"Unauthorized\"}\n" {
				t.Errorf("Unexpected body %q", body)
			}
		})
	}
}

func TestAuthMiddleware_OptionsRequest(t *testing.T) {
	handler := AuthMiddleware(TokenResolver{Issuer: newIssuer(t)}, logging.Discard())(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

	req := httptest.NewRequest(http.MethodOptions, "/expenses", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("Expected status code %v for OPTIONS request, got %v", http.StatusOK, rr.Code)
	}
}

func TestChainResolver_FallsBackToFirebase(t *testing.T) {
	resolver := ChainResolver{
		TokenResolver{Issuer: newIssuer(t)},
		FirebaseResolver{
			Verifier: fakeVerifier{tokens: map[string]string{"firebase-id-token": "fb@example.com"}},
			Users:    fakeUsers{"fb@example.com": "local-user-9"},
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/insights", nil)
	req.Header.Set("Authorization", "Bearer firebase-id-token")
	id, err := resolver.Resolve(req)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if id.UserID != "local-user-9" || id.Email != "fb@example.com" {
		t.Errorf("Unexpected identity %+v", id)
	}

	req = httptest.NewRequest(http.MethodGet, "/insights", nil)
	req.Header.Set("Authorization", "Bearer unknown-token")
	if _, err := resolver.Resolve(req); err == nil {
		t.Error("Expected an error for a token no resolver accepts")
	}
}

func TestFirebaseResolver_UnknownLocalUser(t *testing.T) {
	resolver := FirebaseResolver{
		Verifier: fakeVerifier{tokens: map[string]string{"tok": "stranger@example.com"}},
		Users:    fakeUsers{},
	}
	req := httptest.NewRequest(http.MethodGet, "/expenses", nil)
	req.Header.Set("Authorization", "Bearer tok")
	if _, err := resolver.Resolve(req); err == nil {
		t.Error("Expected an error for a Firebase user without a local account")
	}
}

func TestGetUserIDFromContext(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/test", nil)
	ctx := context.WithValue(req.Context(), UserIDKey, "test-user-123")
	req = req.WithContext(ctx)

	if userID := GetUserIDFromContext(req); userID != "test-user-123" {
		t.Errorf("Expected user ID 'test-user-123', got '%s'", userID)
	}

	emptyReq := httptest.NewRequest("GET", "/api/test", nil)
	if emptyUserID := GetUserIDFromContext(emptyReq); emptyUserID != "" {
		t.Errorf("Expected empty user ID, got '%s'", emptyUserID)
	}
}

func TestInitializeFirebase_NoCredentials(t *testing.T) {
	if _, err := InitializeFirebase(context.Background(), "", "", "demo"); err == nil {
		t.Error("Expected an error when no credentials are configured")
	}
	if _, err := InitializeFirebase(context.Background(), "", "%%%not-base64", "demo"); err == nil {
		t.Error("Expected an error for undecodable base64 credentials")
	}
}
