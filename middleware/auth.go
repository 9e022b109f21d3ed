package middleware

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"spendwise/backend/logging"
	"spendwise/backend/security"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

// Define context keys
type contextKey string

const (
	UserIDKey    contextKey = "user_id"
	UserEmailKey contextKey = "user_email"
)

// SessionCookie is the cookie checked when no Authorization header is sent
const SessionCookie = "spendwise_session"

// ErrNoSession is returned by a resolver that found no credentials it understands
var ErrNoSession = errors.New("no session")

// Identity is the authenticated caller
type Identity struct {
	UserID string
	Email  string
}

// SessionResolver turns request credentials into an Identity
type SessionResolver interface {
	Resolve(r *http.Request) (*Identity, error)
}

// TokenResolver accepts session tokens issued by this service
type TokenResolver struct {
	Issuer *security.TokenIssuer
}

func (t TokenResolver) Resolve(r *http.Request) (*Identity, error) {
	raw := tokenFromRequest(r)
	if raw == "" {
		return nil, ErrNoSession
	}
	claims, err := t.Issuer.Verify(raw)
	if err != nil {
		return nil, err
	}
	return &Identity{UserID: claims.Subject, Email: claims.Email}, nil
}

// IDTokenVerifier is the part of the Firebase auth client used here
type IDTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// UserLookup maps a verified email to a local user id
type UserLookup interface {
	UserIDByEmail(ctx context.Context, email string) (string, error)
}

// FirebaseResolver accepts Firebase ID tokens for users that already have a
// local account with the same email.
type FirebaseResolver struct {
	Verifier IDTokenVerifier
	Users    UserLookup
}

func (f FirebaseResolver) Resolve(r *http.Request) (*Identity, error) {
	raw := tokenFromRequest(r)
	if raw == "" {
		return nil, ErrNoSession
	}
	token, err := f.Verifier.VerifyIDToken(r.Context(), raw)
	if err != nil {
		return nil, fmt.Errorf("verify firebase token: %w", err)
	}
	email, _ := token.Claims["email"].(string)
	if email == "" {
		return nil, errors.New("firebase token has no email claim")
	}
	userID, err := f.Users.UserIDByEmail(r.Context(), email)
	if err != nil {
		return nil, fmt.Errorf("lookup firebase user: %w", err)
	}
	return &Identity{UserID: userID, Email: email}, nil
}

// ChainResolver tries each resolver in order and returns the first success
type ChainResolver []SessionResolver

func (c ChainResolver) Resolve(r *http.Request) (*Identity, error) {
	var errs []error
	for _, res := range c {
		id, err := res.Resolve(r)
		if err == nil {
			return id, nil
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil, ErrNoSession
	}
	return nil, errors.Join(errs...)
}

// InitializeFirebase builds a Firebase auth client from JSON or base64 encoded
// service account credentials.
func InitializeFirebase(ctx context.Context, credentialsJSON, credentialsBase64, projectID string) (*auth.Client, error) {
	creds := []byte(credentialsJSON)
	if len(creds) == 0 {
		if credentialsBase64 == "" {
			return nil, errors.New("no firebase credentials configured")
		}
		decoded, err := base64.StdEncoding.DecodeString(credentialsBase64)
		if err != nil {
			return nil, fmt.Errorf("decode base64 firebase credentials: %w", err)
		}
		creds = decoded
	}

	var config *firebase.Config
	if projectID != "" {
		config = &firebase.Config{ProjectID: projectID}
	}

	app, err := firebase.NewApp(ctx, config, option.WithCredentialsJSON(creds))
	if err != nil {
		return nil, fmt.Errorf("initialize firebase app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("get firebase auth client: %w", err)
	}
	return client, nil
}

// AuthMiddleware rejects requests without a valid session and stores the
// caller's user id in the request context.
func AuthMiddleware(resolver SessionResolver, logger *slog.Logger) func(http.Handler) http.Handler {
	logger = logging.WithComponent(logger, logging.ComponentAuth)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Skip auth for OPTIONS requests (CORS preflight)
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			id, err := resolver.Resolve(r)
			if err != nil || id == nil || id.UserID == "" {
				if err != nil && !errors.Is(err, ErrNoSession) {
					logger.Debug("session rejected",
						slog.String(logging.FieldPath, r.URL.Path),
						slog.String(logging.FieldError, err.Error()))
				}
				unauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, id.UserID)
			ctx = context.WithValue(ctx, UserEmailKey, id.Email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": "Unauthorized"})
}

// tokenFromRequest reads a bearer token, falling back to the session cookie
func tokenFromRequest(r *http.Request) string {
	if token := extractToken(r.Header.Get("Authorization")); token != "" {
		return token
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return strings.TrimSpace(c.Value)
	}
	return ""
}

// extractToken gets the token from the Authorization header
func extractToken(authHeader string) string {
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}

// GetUserIDFromContext retrieves the user ID from the request context
func GetUserIDFromContext(r *http.Request) string {
	userID, ok := r.Context().Value(UserIDKey).(string)
	if !ok {
		return ""
	}
	return userID
}

// GetUserEmailFromContext retrieves the caller's email from the request context
func GetUserEmailFromContext(r *http.Request) string {
	email, _ := r.Context().Value(UserEmailKey).(string)
	return email
}
