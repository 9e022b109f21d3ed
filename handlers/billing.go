package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"spendwise/backend/billing"
	"spendwise/backend/logging"
	"spendwise/backend/middleware"
	"spendwise/backend/services"
)

const maxWebhookBytes = 64 << 10

// BillingHandler bridges subscription state and the payment provider
type BillingHandler struct {
	users    *services.UserService
	provider billing.Provider
	appURL   string
	logger   *slog.Logger
	now      func() time.Time
}

// NewBillingHandler creates a new billing handler. provider may be nil when
// billing is not configured; the provider-backed endpoints then fail with a
// logged 500.
func NewBillingHandler(users *services.UserService, provider billing.Provider, appURL string, logger *slog.Logger) *BillingHandler {
	return &BillingHandler{
		users:    users,
		provider: provider,
		appURL:   appURL,
		logger:   logging.WithComponent(logger, logging.ComponentBilling),
		now:      time.Now,
	}
}

type subscriptionResponse struct {
	IsSubscribed    bool       `json:"isSubscribed"`
	SubscriptionEnd *time.Time `json:"subscriptionEnd"`
}

type urlResponse struct {
	URL string `json:"url"`
}

type webhookResponse struct {
	Received bool `json:"received"`
}

// GetSubscription reports whether the caller's subscription period is still running
func (h *BillingHandler) GetSubscription(w http.ResponseWriter, r *http.Request) {
	info, err := h.users.Billing(r.Context(), middleware.GetUserIDFromContext(r))
	if err != nil {
		handleServiceError(w, r, h.logger, logging.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, subscriptionResponse{
		IsSubscribed:    info.IsSubscribed(h.now()),
		SubscriptionEnd: info.StripeCurrentPeriodEnd,
	})
}

// CreatePortalSession returns a billing portal URL for callers with a stored
// customer id.
func (h *BillingHandler) CreatePortalSession(w http.ResponseWriter, r *http.Request) {
	info, err := h.users.Billing(r.Context(), middleware.GetUserIDFromContext(r))
	if err != nil {
		handleServiceError(w, r, h.logger, logging.OpCreate, err)
		return
	}
	if info.CustomerID() == "" {
		writeError(w, http.StatusBadRequest, "No subscription found")
		return
	}
	if h.provider == nil {
		handleServiceError(w, r, h.logger, logging.OpCreate, billing.ErrNotConfigured)
		return
	}

	url, err := h.provider.CreatePortalSession(r.Context(), info.CustomerID(), h.appURL+"/dashboard")
	if err != nil {
		handleServiceError(w, r, h.logger, logging.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusOK, urlResponse{URL: url})
}

// CreateCheckoutSession starts a hosted subscription checkout for the caller
func (h *BillingHandler) CreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	if h.provider == nil {
		handleServiceError(w, r, h.logger, logging.OpCreate, billing.ErrNotConfigured)
		return
	}

	user, err := h.users.GetByID(r.Context(), middleware.GetUserIDFromContext(r))
	if err != nil {
		handleServiceError(w, r, h.logger, logging.OpCreate, err)
		return
	}

	url, err := h.provider.CreateCheckoutSession(r.Context(), billing.CheckoutRequest{
		UserID:     user.ID,
		CustomerID: user.CustomerID(),
		Email:      user.Email,
		SuccessURL: h.appURL + "/dashboard?checkout=success",
		CancelURL:  h.appURL + "/dashboard",
	})
	if err != nil {
		handleServiceError(w, r, h.logger, logging.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusOK, urlResponse{URL: url})
}

// HandleWebhook verifies a provider event and mirrors subscription changes
// onto the user. Events for unknown users are acknowledged so the provider
// stops retrying them.
func (h *BillingHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	if h.provider == nil {
		handleServiceError(w, r, h.logger, logging.OpWebhook, billing.ErrNotConfigured)
		return
	}
	log := logging.FromContextOr(r.Context(), h.logger)

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid payload")
		return
	}

	event, err := h.provider.ParseWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature"))
	if errors.Is(err, billing.ErrInvalidSignature) {
		log.Warn("webhook signature rejected")
		writeError(w, http.StatusBadRequest, "Invalid signature")
		return
	}
	if err != nil {
		handleServiceError(w, r, h.logger, logging.OpWebhook, err)
		return
	}
	if event == nil {
		writeJSON(w, http.StatusOK, webhookResponse{Received: true})
		return
	}

	err = h.users.SyncSubscription(r.Context(), *event)
	switch {
	case errors.Is(err, services.ErrNotFound), services.IsValidation(err):
		log.Warn("webhook event matched no user",
			slog.String("event_type", event.Type),
			slog.String("customer_id", event.CustomerID))
	case err != nil:
		handleServiceError(w, r, h.logger, logging.OpWebhook, err)
		return
	default:
		log.Info("subscription synced",
			slog.String("event_type", event.Type),
			slog.String(logging.FieldUserID, event.UserID),
			slog.Bool("ended", event.Ended))
	}
	writeJSON(w, http.StatusOK, webhookResponse{Received: true})
}
