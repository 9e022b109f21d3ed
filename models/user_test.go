package models

import (
	"testing"
	"time"
)

func TestIsSubscribed(t *testing.T) {
	now := time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)
	sub := "sub_123"
	empty := ""
	future := now.Add(time.Hour)
	past := now.Add(-time.Hour)

	tests := []struct {
		name string
		info BillingInfo
		want bool
	}{
		{"no subscription", BillingInfo{}, false},
		{"period running", BillingInfo{StripeSubscriptionID: &sub, StripeCurrentPeriodEnd: &future}, true},
		{"period ended", BillingInfo{StripeSubscriptionID: &sub, StripeCurrentPeriodEnd: &past}, false},
		{"ends exactly now", BillingInfo{StripeSubscriptionID: &sub, StripeCurrentPeriodEnd: &now}, false},
		{"no period end", BillingInfo{StripeSubscriptionID: &sub}, false},
		{"empty subscription id", BillingInfo{StripeSubscriptionID: &empty, StripeCurrentPeriodEnd: &future}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.info.IsSubscribed(now); got != tt.want {
				t.Errorf("IsSubscribed() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPublicOmitsCredentials(t *testing.T) {
	customer := "cus_1"
	u := User{ID: "u1", Email: "a@example.com", PasswordHash: "hash", BillingInfo: BillingInfo{StripeCustomerID: &customer}}

	p := u.Public()
	if p.ID != "u1" || p.Email != "a@example.com" {
		t.Errorf("unexpected public user %+v", p)
	}
	if u.CustomerID() != "cus_1" {
		t.Errorf("CustomerID() = %q", u.CustomerID())
	}
	if (User{}).CustomerID() != "" {
		t.Error("CustomerID() should be empty without a customer")
	}
}
