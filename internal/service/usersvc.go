package service

import (
	"context"
	"strings"
	"time"

	"PoopMatesServer/internal/domain"
)

type UserLookup interface {
	GetUserByID(ctx context.Context, id string) (domain.User, error)
}

type DirectoryStore interface {
	UserLookup
	SetStatus(ctx context.Context, userID string, isPooping bool, expiresAt *time.Time) (domain.User, error)
	SearchUsers(ctx context.Context, term string) ([]domain.User, error)
}

type UsersService struct {
	Store DirectoryStore
}

func (s *UsersService) GetProfile(ctx context.Context, userID string) (domain.User, error) {
	return s.Store.GetUserByID(ctx, strings.TrimSpace(userID))
}

// UpdateStatus overwrites both status fields. The expiry is stored as given and
// never enforced server-side.
func (s *UsersService) UpdateStatus(ctx context.Context, userID string, isPooping bool, expiresAt *time.Time) (domain.User, error) {
	if expiresAt != nil {
		t := expiresAt.UTC().Truncate(time.Millisecond)
		expiresAt = &t
	}
	return s.Store.SetStatus(ctx, strings.TrimSpace(userID), isPooping, expiresAt)
}

// Search matches term as a case-insensitive literal substring of usernames.
// An empty term matches every user.
func (s *UsersService) Search(ctx context.Context, term string) ([]domain.User, error) {
	out, err := s.Store.SearchUsers(ctx, strings.TrimSpace(term))
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.User{}
	}
	return out, nil
}
