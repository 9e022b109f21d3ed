package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

// Stripe webhook event types that change subscription state
const (
	eventCheckoutCompleted   = "checkout.session.completed"
	eventSubscriptionCreated = "customer.subscription.created"
	eventSubscriptionUpdated = "customer.subscription.updated"
	eventSubscriptionDeleted = "customer.subscription.deleted"
)

// StripeConfig holds the Stripe credentials and product settings
type StripeConfig struct {
	SecretKey     string
	PriceID       string
	WebhookSecret string
}

// StripeProvider implements Provider on top of the Stripe API
type StripeProvider struct {
	api           *client.API
	priceID       string
	webhookSecret string
}

// NewStripeProvider creates a Stripe-backed provider
func NewStripeProvider(cfg StripeConfig) (*StripeProvider, error) {
	if cfg.SecretKey == "" {
		return nil, fmt.Errorf("%w: stripe secret key is required", ErrNotConfigured)
	}
	api := &client.API{}
	api.Init(cfg.SecretKey, nil)
	return &StripeProvider{
		api:           api,
		priceID:       cfg.PriceID,
		webhookSecret: cfg.WebhookSecret,
	}, nil
}

// CreatePortalSession opens a billing portal session for an existing customer
func (p *StripeProvider) CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	}
	params.Context = ctx

	session, err := p.api.BillingPortalSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("create portal session: %w", err)
	}
	return session.URL, nil
}

// CreateCheckoutSession starts a subscription checkout for the configured price
func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (string, error) {
	if p.priceID == "" {
		return "", fmt.Errorf("%w: stripe price id is required", ErrNotConfigured)
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(p.priceID), Quantity: stripe.Int64(1)},
		},
		SuccessURL:        stripe.String(req.SuccessURL),
		CancelURL:         stripe.String(req.CancelURL),
		ClientReferenceID: stripe.String(req.UserID),
	}
	if req.CustomerID != "" {
		params.Customer = stripe.String(req.CustomerID)
	} else if req.Email != "" {
		params.CustomerEmail = stripe.String(req.Email)
	}
	params.Context = ctx

	session, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("create checkout session: %w", err)
	}
	return session.URL, nil
}

// ParseWebhook verifies the Stripe-Signature header and extracts subscription state
func (p *StripeProvider) ParseWebhook(ctx context.Context, payload []byte, signature string) (*SubscriptionEvent, error) {
	if p.webhookSecret == "" {
		return nil, fmt.Errorf("%w: stripe webhook secret is required", ErrNotConfigured)
	}

	event, err := webhook.ConstructEventWithOptions(payload, signature, p.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	switch event.Type {
	case eventCheckoutCompleted:
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return nil, fmt.Errorf("decode checkout session: %w", err)
		}
		if session.Mode != stripe.CheckoutSessionModeSubscription || session.Subscription == nil {
			return nil, nil
		}

		params := &stripe.SubscriptionParams{}
		params.Context = ctx
		sub, err := p.api.Subscriptions.Get(session.Subscription.ID, params)
		if err != nil {
			return nil, fmt.Errorf("fetch subscription %s: %w", session.Subscription.ID, err)
		}

		ev := subscriptionEvent(string(event.Type), sub)
		ev.UserID = session.ClientReferenceID
		if session.Customer != nil {
			ev.CustomerID = session.Customer.ID
		}
		return ev, nil

	case eventSubscriptionCreated, eventSubscriptionUpdated, eventSubscriptionDeleted:
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return nil, fmt.Errorf("decode subscription: %w", err)
		}
		ev := subscriptionEvent(string(event.Type), &sub)
		if event.Type == eventSubscriptionDeleted {
			ev.Ended = true
		}
		return ev, nil
	}

	return nil, nil
}

func subscriptionEvent(eventType string, sub *stripe.Subscription) *SubscriptionEvent {
	ev := &SubscriptionEvent{
		Type:           eventType,
		SubscriptionID: sub.ID,
		Ended:          sub.Status == stripe.SubscriptionStatusCanceled,
	}
	if sub.Customer != nil {
		ev.CustomerID = sub.Customer.ID
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
		ev.PriceID = sub.Items.Data[0].Price.ID
	}
	if sub.CurrentPeriodEnd > 0 {
		end := time.Unix(sub.CurrentPeriodEnd, 0).UTC()
		ev.CurrentPeriodEnd = &end
	}
	return ev
}
