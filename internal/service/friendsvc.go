package service

import (
	"context"
	"strings"

	"PoopMatesServer/internal/domain"
)

type FriendshipsStore interface {
	// AddFriendRequest records fromID on toID's pending requests. Adding an
	// existing request is a no-op.
	AddFriendRequest(ctx context.Context, fromID, toID string) error
	// AcceptFriendRequest links both users as friends and clears pending
	// requests in both directions, provided friendID has a pending request on
	// userID. It reports whether anything changed.
	AcceptFriendRequest(ctx context.Context, userID, friendID string) (bool, error)
	RejectFriendRequest(ctx context.Context, userID, friendID string) (bool, error)
}

type FriendsService struct {
	Users       UserLookup
	Friendships FriendshipsStore
}

func (s *FriendsService) SendRequest(ctx context.Context, fromID, toID string) error {
	from, to, err := loadPair(ctx, s.Users, fromID, toID)
	if err != nil {
		return err
	}
	if to.HasFriendRequestFrom(from.ID) {
		return nil
	}
	return s.Friendships.AddFriendRequest(ctx, from.ID, to.ID)
}

// Accept is a no-op returning false when friendID has no pending request on userID.
func (s *FriendsService) Accept(ctx context.Context, userID, friendID string) (bool, error) {
	user, friend, err := loadPair(ctx, s.Users, userID, friendID)
	if err != nil {
		return false, err
	}
	if !user.HasFriendRequestFrom(friend.ID) {
		return false, nil
	}
	return s.Friendships.AcceptFriendRequest(ctx, user.ID, friend.ID)
}

func (s *FriendsService) Reject(ctx context.Context, userID, friendID string) (bool, error) {
	user, friend, err := loadPair(ctx, s.Users, userID, friendID)
	if err != nil {
		return false, err
	}
	if !user.HasFriendRequestFrom(friend.ID) {
		return false, nil
	}
	return s.Friendships.RejectFriendRequest(ctx, user.ID, friend.ID)
}

func loadPair(ctx context.Context, users UserLookup, aID, bID string) (domain.User, domain.User, error) {
	a, err := users.GetUserByID(ctx, strings.TrimSpace(aID))
	if err != nil {
		return domain.User{}, domain.User{}, err
	}
	b, err := users.GetUserByID(ctx, strings.TrimSpace(bID))
	if err != nil {
		return domain.User{}, domain.User{}, err
	}
	return a, b, nil
}
