package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/HendrickPhan/go-verify-apple-id-token/validator"
	"google.golang.org/api/idtoken"
)

// ExternalIdentity is the subset of a verified third-party ID token the
// sign-in flow relies on.
type ExternalIdentity struct {
	Provider string
	Subject  string
	Email    string
}

// IDTokenVerifier validates an ID token for the given audience.
type IDTokenVerifier func(ctx context.Context, token, audience string) (*ExternalIdentity, error)

func VerifyGoogleIDToken(ctx context.Context, token, audience string) (*ExternalIdentity, error) {
	if strings.TrimSpace(token) == "" {
		return nil, errors.New("missing id token")
	}
	if strings.TrimSpace(audience) == "" {
		return nil, errors.New("missing google client id")
	}

	payload, err := idtoken.Validate(ctx, token, audience)
	if err != nil {
		return nil, err
	}
	switch payload.Issuer {
	case "accounts.google.com", "https://accounts.google.com":
	default:
		return nil, fmt.Errorf("unexpected issuer: %s", payload.Issuer)
	}

	email, _ := payload.Claims["email"].(string)
	if verified, ok := payload.Claims["email_verified"].(bool); ok && !verified {
		return nil, errors.New("google email not verified")
	}

	return &ExternalIdentity{
		Provider: "google",
		Subject:  payload.Subject,
		Email:    normalizeEmail(email),
	}, nil
}

func VerifyAppleIDToken(_ context.Context, token, audience string) (*ExternalIdentity, error) {
	if strings.TrimSpace(token) == "" {
		return nil, errors.New("missing id token")
	}
	if strings.TrimSpace(audience) == "" {
		return nil, errors.New("missing apple service id")
	}

	idToken, err := validator.NewClient().VerifyIdToken(audience, token)
	if err != nil {
		return nil, err
	}
	if idToken.Iss != "https://appleid.apple.com" {
		return nil, fmt.Errorf("unexpected issuer: %s", idToken.Iss)
	}

	return &ExternalIdentity{
		Provider: "apple",
		Subject:  idToken.Sub,
		Email:    normalizeEmail(idToken.Email),
	}, nil
}

func normalizeEmail(s string) string {
	return strings.TrimSpace(strings.ToLower(s))
}
