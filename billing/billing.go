package billing

import (
	"context"
	"errors"
	"time"
)

//go:generate mockgen -source=billing.go -destination=mocks/mocks.go -package=mocks Provider

var (
	// ErrInvalidSignature is returned when a webhook payload fails verification
	ErrInvalidSignature = errors.New("invalid webhook signature")
	// ErrNotConfigured is returned when an operation needs settings that are absent
	ErrNotConfigured = errors.New("billing is not configured")
)

// Provider is the payment provider used for subscriptions
type Provider interface {
	// CreatePortalSession returns the URL of a self-service billing portal for customerID
	CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error)
	// CreateCheckoutSession returns the URL of a hosted subscription checkout
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (string, error)
	// ParseWebhook verifies and decodes a webhook delivery. Events that do not
	// affect subscription state yield (nil, nil).
	ParseWebhook(ctx context.Context, payload []byte, signature string) (*SubscriptionEvent, error)
}

// CheckoutRequest describes a subscription checkout for one user
type CheckoutRequest struct {
	UserID     string
	CustomerID string
	Email      string
	SuccessURL string
	CancelURL  string
}

// SubscriptionEvent is the subscription state carried by a webhook
type SubscriptionEvent struct {
	Type             string
	UserID           string
	CustomerID       string
	SubscriptionID   string
	PriceID          string
	CurrentPeriodEnd *time.Time
	Ended            bool
}
