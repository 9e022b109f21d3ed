package models

import "time"

type User struct {
	ID           string    `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	Name         *string   `json:"name" db:"name"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
	BillingInfo
}

// BillingInfo is the billing provider state mirrored onto the user row
type BillingInfo struct {
	StripeCustomerID       *string    `json:"-" db:"stripe_customer_id"`
	StripeSubscriptionID   *string    `json:"-" db:"stripe_subscription_id"`
	StripePriceID          *string    `json:"-" db:"stripe_price_id"`
	StripeCurrentPeriodEnd *time.Time `json:"-" db:"stripe_current_period_end"`
}

// IsSubscribed reports whether a subscription exists and its current period
// ends strictly after now.
func (b BillingInfo) IsSubscribed(now time.Time) bool {
	if b.StripeSubscriptionID == nil || *b.StripeSubscriptionID == "" {
		return false
	}
	if b.StripeCurrentPeriodEnd == nil {
		return false
	}
	return b.StripeCurrentPeriodEnd.After(now)
}

// CustomerID returns the stored billing customer id, or "" when none
func (b BillingInfo) CustomerID() string {
	if b.StripeCustomerID == nil {
		return ""
	}
	return *b.StripeCustomerID
}

// PublicUser is the user shape returned by the auth endpoints
type PublicUser struct {
	ID    string  `json:"id"`
	Email string  `json:"email"`
	Name  *string `json:"name"`
}

// Public strips credentials and billing fields
func (u User) Public() PublicUser {
	return PublicUser{ID: u.ID, Email: u.Email, Name: u.Name}
}
