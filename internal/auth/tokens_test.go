package auth

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestTokenIssuer_IssueAndVerify(t *testing.T) {
	issuer := NewTokenIssuer([]byte(strings.Repeat("s", 32)), time.Hour)

	tok, expiresAt, err := issuer.Issue("user-1")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if time.Until(expiresAt) > time.Hour || time.Until(expiresAt) < 59*time.Minute {
		t.Fatalf("unexpected expiry: %s", expiresAt)
	}

	userID, err := issuer.Verify(tok)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if userID != "user-1" {
		t.Fatalf("unexpected user id: %s", userID)
	}

	userID, err = issuer.Verify("Bearer " + tok)
	if err != nil || userID != "user-1" {
		t.Fatalf("expected bearer prefix to be accepted: %v", err)
	}
}

func TestTokenIssuer_TokensAreUnique(t *testing.T) {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	issuer := NewTokenIssuer([]byte("secret"), time.Hour)
	issuer.Now = func() time.Time { return now }

	a, _, err := issuer.Issue("user-1")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	b, _, err := issuer.Issue("user-1")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if a == b {
		t.Fatalf("expected distinct tokens for the same user and instant")
	}
}

func TestTokenIssuer_Expired(t *testing.T) {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	issuer := NewTokenIssuer([]byte("secret"), time.Hour)
	issuer.Now = func() time.Time { return now }

	tok, _, err := issuer.Issue("user-1")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	issuer.Now = func() time.Time { return now.Add(61 * time.Minute) }
	if _, err := issuer.Verify(tok); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected expired token to be rejected, got %v", err)
	}
}

func TestTokenIssuer_WrongSecret(t *testing.T) {
	tok, _, err := NewTokenIssuer([]byte("secret-a"), time.Hour).Issue("user-1")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := NewTokenIssuer([]byte("secret-b"), time.Hour).Verify(tok); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected signature mismatch, got %v", err)
	}
	if _, err := NewTokenIssuer([]byte("secret-a"), time.Hour).Verify(tok + "x"); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected tampered token to fail, got %v", err)
	}
}

func TestTokenIssuer_EmptySecretFailsClosed(t *testing.T) {
	issuer := NewTokenIssuer(nil, time.Hour)
	if _, _, err := issuer.Issue("user-1"); !errors.Is(err, ErrTokenSecretMissing) {
		t.Fatalf("expected missing secret on issue, got %v", err)
	}
	if _, err := issuer.Verify("anything"); !errors.Is(err, ErrTokenSecretMissing) {
		t.Fatalf("expected missing secret on verify, got %v", err)
	}
}

func TestStripBearer(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "abc", want: "abc"},
		{in: "Bearer abc", want: "abc"},
		{in: "bearer  abc ", want: "abc"},
		{in: "  ", want: ""},
	}
	for _, tt := range tests {
		if got := StripBearer(tt.in); got != tt.want {
			t.Fatalf("StripBearer(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
