package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"PoopMatesServer/internal/auth"
	"PoopMatesServer/internal/domain"

	"github.com/google/uuid"
)

type UsersStore interface {
	CreateUser(ctx context.Context, username, email, passwordHash string) (domain.User, error)
	GetUserByID(ctx context.Context, id string) (domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (domain.UserWithPassword, error)
	SetPasswordHash(ctx context.Context, userID, passwordHash string) error
}

type TokenIssuer interface {
	Issue(userID string) (string, time.Time, error)
	Verify(token string) (string, error)
}

// Session is the result of a successful login: the sanitized user and a
// freshly issued access token.
type Session struct {
	User      domain.User
	Token     string
	ExpiresAt time.Time
}

type AuthService struct {
	Users  UsersStore
	Tokens TokenIssuer
	Logger *slog.Logger

	GoogleClientID      string
	AppleServiceID      string
	VerifyGoogleIDToken auth.IDTokenVerifier
	VerifyAppleIDToken  auth.IDTokenVerifier
}

func (s *AuthService) Register(ctx context.Context, username, email, password string) (domain.User, error) {
	username = strings.TrimSpace(username)
	email = normalizeEmail(email)

	_, err := s.Users.GetUserByEmail(ctx, email)
	if err == nil {
		return domain.User{}, domain.ErrEmailTaken
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.User{}, err
	}

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return domain.User{}, err
	}

	return s.Users.CreateUser(ctx, username, email, passwordHash)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (Session, error) {
	u, err := s.Users.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return Session{}, domain.ErrInvalidCredentials
		}
		return Session{}, err
	}

	ok, err := auth.VerifyPassword(u.PasswordHash, password)
	if err != nil {
		return Session{}, err
	}
	if !ok {
		return Session{}, domain.ErrInvalidCredentials
	}

	if auth.NeedsRehash(u.PasswordHash) {
		s.upgradePasswordHash(ctx, u.ID, password)
	}

	return s.newSession(u.User)
}

// LoginWithToken exchanges a still-valid access token for a new one.
func (s *AuthService) LoginWithToken(ctx context.Context, token string) (Session, error) {
	userID, err := s.Tokens.Verify(token)
	if err != nil {
		return Session{}, domain.ErrInvalidCredentials
	}

	u, err := s.Users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return Session{}, domain.ErrInvalidCredentials
		}
		return Session{}, err
	}

	return s.newSession(u)
}

func (s *AuthService) GoogleEnabled() bool { return s.GoogleClientID != "" }

func (s *AuthService) AppleEnabled() bool { return s.AppleServiceID != "" }

func (s *AuthService) LoginWithGoogle(ctx context.Context, idToken string) (Session, error) {
	verify := s.VerifyGoogleIDToken
	if verify == nil {
		verify = auth.VerifyGoogleIDToken
	}
	return s.loginWithExternal(ctx, verify, idToken, s.GoogleClientID)
}

func (s *AuthService) LoginWithApple(ctx context.Context, idToken string) (Session, error) {
	verify := s.VerifyAppleIDToken
	if verify == nil {
		verify = auth.VerifyAppleIDToken
	}
	return s.loginWithExternal(ctx, verify, idToken, s.AppleServiceID)
}

func (s *AuthService) loginWithExternal(ctx context.Context, verify auth.IDTokenVerifier, idToken, audience string) (Session, error) {
	if audience == "" {
		return Session{}, errors.New("external sign-in not configured")
	}

	ident, err := verify(ctx, idToken, audience)
	if err != nil {
		s.logger().Debug("external id token rejected", "err", err)
		return Session{}, domain.ErrInvalidCredentials
	}
	email := normalizeEmail(ident.Email)
	if email == "" {
		return Session{}, domain.ErrInvalidCredentials
	}

	existing, err := s.Users.GetUserByEmail(ctx, email)
	if err == nil {
		return s.newSession(existing.User)
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return Session{}, err
	}

	u, err := s.createExternalUser(ctx, email)
	if err != nil {
		return Session{}, err
	}
	s.logger().Info("created user from external identity", "provider", ident.Provider, "user_id", u.ID)
	return s.newSession(u)
}

func (s *AuthService) createExternalUser(ctx context.Context, email string) (domain.User, error) {
	// External accounts never log in with a password; store an unguessable one.
	passwordHash, err := auth.HashPassword(uuid.NewString())
	if err != nil {
		return domain.User{}, err
	}

	base := usernameFromEmail(email)
	username := base
	for attempt := 0; attempt < 5; attempt++ {
		u, err := s.Users.CreateUser(ctx, username, email, passwordHash)
		switch {
		case err == nil:
			return u, nil
		case errors.Is(err, domain.ErrUsernameTaken):
			username = base + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:4]
		case errors.Is(err, domain.ErrEmailTaken):
			existing, err := s.Users.GetUserByEmail(ctx, email)
			if err != nil {
				return domain.User{}, err
			}
			return existing.User, nil
		default:
			return domain.User{}, err
		}
	}
	return domain.User{}, fmt.Errorf("create external user: no free username for %q", base)
}

func (s *AuthService) newSession(u domain.User) (Session, error) {
	token, expiresAt, err := s.Tokens.Issue(u.ID)
	if err != nil {
		return Session{}, err
	}
	return Session{User: u, Token: token, ExpiresAt: expiresAt}, nil
}

func (s *AuthService) upgradePasswordHash(ctx context.Context, userID, password string) {
	hash, err := auth.HashPassword(password)
	if err == nil {
		err = s.Users.SetPasswordHash(ctx, userID, hash)
	}
	if err != nil {
		s.logger().Warn("password rehash failed", "user_id", userID, "err", err)
	}
}

func (s *AuthService) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

func usernameFromEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")
	var b strings.Builder
	for _, r := range local {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		}
		if b.Len() >= 19 {
			break
		}
	}
	if b.Len() < 3 {
		return "user"
	}
	return b.String()
}
