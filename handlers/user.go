package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"spendwise/backend/logging"
	"spendwise/backend/middleware"
	"spendwise/backend/models"
	"spendwise/backend/security"
	"spendwise/backend/services"
)

// UserHandler serves account registration and login
type UserHandler struct {
	users        *services.UserService
	issuer       *security.TokenIssuer
	logger       *slog.Logger
	secureCookie bool
}

// NewUserHandler creates a new user handler. secureCookie marks the session
// cookie Secure, which production deployments behind TLS want.
func NewUserHandler(users *services.UserService, issuer *security.TokenIssuer, logger *slog.Logger, secureCookie bool) *UserHandler {
	return &UserHandler{
		users:        users,
		issuer:       issuer,
		logger:       logging.WithComponent(logger, logging.ComponentAuth),
		secureCookie: secureCookie,
	}
}

type loginResponse struct {
	Token     string            `json:"token"`
	ExpiresAt time.Time         `json:"expiresAt"`
	User      models.PublicUser `json:"user"`
}

// Register creates an account seeded with the default categories
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleServiceError(w, r, h.logger, logging.OpRegister, err)
		return
	}

	user, err := h.users.Register(r.Context(), services.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		handleServiceError(w, r, h.logger, logging.OpRegister, err)
		return
	}

	logging.FromContextOr(r.Context(), h.logger).Info("user registered",
		slog.String(logging.FieldUserID, user.ID))
	writeJSON(w, http.StatusOK, user.Public())
}

// Login checks credentials and issues a session token, returned in the body
// and set as a cookie.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleServiceError(w, r, h.logger, logging.OpLogin, err)
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	user, err := h.users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		handleServiceError(w, r, h.logger, logging.OpLogin, err)
		return
	}

	token, expiresAt, err := h.issuer.Issue(user.ID, user.Email)
	if err != nil {
		handleServiceError(w, r, h.logger, logging.OpLogin, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, loginResponse{Token: token, ExpiresAt: expiresAt, User: user.Public()})
}
