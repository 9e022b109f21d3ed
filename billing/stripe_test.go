package billing

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testWebhookSecret = "whsec_test_secret"

func signPayload(payload []byte, secret string) string {
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(fmt.Sprintf("%d.", ts)))
	mac.Write(payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func subscriptionPayload(eventType, status string) []byte {
	return []byte(fmt.Sprintf(`{
		"id": "evt_test",
		"object": "event",
		"type": %q,
		"data": {
			"object": {
				"id": "sub_123",
				"object": "subscription",
				"customer": "cus_123",
				"status": %q,
				"current_period_end": 1893456000,
				"items": {
					"object": "list",
					"data": [{"id": "si_1", "object": "subscription_item", "price": {"id": "price_123", "object": "price"}}]
				}
			}
		}
	}`, eventType, status))
}

func newTestProvider(t *testing.T) *StripeProvider {
	t.Helper()
	p, err := NewStripeProvider(StripeConfig{
		SecretKey:     "sk_test_123",
		PriceID:       "price_123",
		WebhookSecret: testWebhookSecret,
	})
	require.NoError(t, err)
	return p
}

func TestNewStripeProviderRequiresSecretKey(t *testing.T) {
	_, err := NewStripeProvider(StripeConfig{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestParseWebhookSubscriptionUpdated(t *testing.T) {
	p := newTestProvider(t)
	payload := subscriptionPayload("customer.subscription.updated", "active")

	ev, err := p.ParseWebhook(context.Background(), payload, signPayload(payload, testWebhookSecret))
	require.NoError(t, err)
	require.NotNil(t, ev)

	assert.Equal(t, "customer.subscription.updated", ev.Type)
	assert.Equal(t, "sub_123", ev.SubscriptionID)
	assert.Equal(t, "cus_123", ev.CustomerID)
	assert.Equal(t, "price_123", ev.PriceID)
	assert.False(t, ev.Ended)
	require.NotNil(t, ev.CurrentPeriodEnd)
	assert.True(t, ev.CurrentPeriodEnd.Equal(time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestParseWebhookSubscriptionDeleted(t *testing.T) {
	p := newTestProvider(t)
	payload := subscriptionPayload("customer.subscription.deleted", "canceled")

	ev, err := p.ParseWebhook(context.Background(), payload, signPayload(payload, testWebhookSecret))
	require.NoError(t, err)
	require.NotNil(t, ev)
	assert.True(t, ev.Ended)
}

func TestParseWebhookIgnoresOtherEvents(t *testing.T) {
	p := newTestProvider(t)
	payload := []byte(`{"id":"evt_2","object":"event","type":"invoice.created","data":{"object":{"id":"in_1","object":"invoice"}}}`)

	ev, err := p.ParseWebhook(context.Background(), payload, signPayload(payload, testWebhookSecret))
	require.NoError(t, err)
	assert.Nil(t, ev)
}

func TestParseWebhookRejectsBadSignature(t *testing.T) {
	p := newTestProvider(t)
	payload := subscriptionPayload("customer.subscription.updated", "active")

	_, err := p.ParseWebhook(context.Background(), payload, signPayload(payload, "whsec_wrong"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestCheckoutRequiresPrice(t *testing.T) {
	p, err := NewStripeProvider(StripeConfig{SecretKey: "sk_test_123"})
	require.NoError(t, err)

	_, err = p.CreateCheckoutSession(context.Background(), CheckoutRequest{UserID: "u1"})
	assert.ErrorIs(t, err, ErrNotConfigured)
}
