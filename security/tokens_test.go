package security

import (
	"testing"
	"time"
)

func TestIssueAndVerify(t *testing.T) {
	issuer := NewTokenIssuer("test-secret-key-that-is-long-enough", "spendwise", time.Hour)

	token, expiresAt, err := issuer.Issue("user-1", "a@example.com")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if token == "" {
		t.Fatal("Expected a token")
	}
	if time.Until(expiresAt) <= 0 {
		t.Errorf("Expected expiry in the future, got %v", expiresAt)
	}

	claims, err := issuer.Verify(token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if claims.Subject != "user-1" {
		t.Errorf("Expected subject 'user-1', got '%s'", claims.Subject)
	}
	if claims.Email != "a@example.com" {
		t.Errorf("Expected email 'a@example.com', got '%s'", claims.Email)
	}
}

func TestVerifyRejectsWrongKey(t *testing.T) {
	issuer := NewTokenIssuer("key-one", "spendwise", time.Hour)
	other := NewTokenIssuer("key-two", "spendwise", time.Hour)

	token, _, err := issuer.Issue("user-1", "a@example.com")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := other.Verify(token); err != ErrTokenInvalid {
		t.Errorf("Expected ErrTokenInvalid, got %v", err)
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	issuer := NewTokenIssuer("secret", "spendwise", time.Minute)
	issuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, _, err := issuer.Issue("user-1", "a@example.com")
	if err != nil {
		t.Fatal(err)
	}

	issuer.now = time.Now
	if _, err := issuer.Verify(token); err != ErrTokenExpired {
		t.Errorf("Expected ErrTokenExpired, got %v", err)
	}
}

func TestVerifyRejectsOtherIssuer(t *testing.T) {
	a := NewTokenIssuer("secret", "spendwise", time.Hour)
	b := NewTokenIssuer("secret", "someone-else", time.Hour)

	token, _, err := b.Issue("user-1", "a@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := a.Verify(token); err != ErrTokenInvalid {
		t.Errorf("Expected ErrTokenInvalid, got %v", err)
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	issuer := NewTokenIssuer("secret", "spendwise", time.Hour)
	if _, err := issuer.Verify("not-a-token"); err != ErrTokenInvalid {
		t.Errorf("Expected ErrTokenInvalid, got %v", err)
	}
}
