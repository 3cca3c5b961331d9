package service

import (
	"context"
	"errors"
	"testing"

	"PoopMatesServer/internal/domain"
	"PoopMatesServer/internal/store/memory"
)

func newFriendsFixture(t *testing.T) (*memory.Store, *FriendsService, domain.User, domain.User) {
	t.Helper()
	store := memory.New()
	ctx := context.Background()
	alice, err := store.CreateUser(ctx, "alice", "alice@example.com", "hash")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	bob, err := store.CreateUser(ctx, "bob", "bob@example.com", "hash")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return store, &FriendsService{Users: store, Friendships: store}, alice, bob
}

func TestFriendsServiceSendRequestIsIdempotent(t *testing.T) {
	store, svc, alice, bob := newFriendsFixture(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := svc.SendRequest(ctx, alice.ID, bob.ID); err != nil {
			t.Fatalf("SendRequest #%d: %v", i+1, err)
		}
	}

	got, _ := store.GetUserByID(ctx, bob.ID)
	if len(got.FriendRequests) != 1 || got.FriendRequests[0] != alice.ID {
		t.Fatalf("expected exactly one request from alice, got %v", got.FriendRequests)
	}
}

func TestFriendsServiceUnknownUsers(t *testing.T) {
	_, svc, alice, _ := newFriendsFixture(t)
	ctx := context.Background()

	if err := svc.SendRequest(ctx, alice.ID, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("SendRequest: expected ErrNotFound, got %v", err)
	}
	if _, err := svc.Accept(ctx, "missing", alice.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Accept: expected ErrNotFound, got %v", err)
	}
	if _, err := svc.Reject(ctx, alice.ID, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Reject: expected ErrNotFound, got %v", err)
	}
}

func TestFriendsServiceAcceptLinksBothUsers(t *testing.T) {
	store, svc, alice, bob := newFriendsFixture(t)
	ctx := context.Background()

	// Requests pending in both directions are both cleared by one accept.
	if err := svc.SendRequest(ctx, alice.ID, bob.ID); err != nil {
		t.Fatalf("SendRequest: %v", err)
	}
	if err := svc.SendRequest(ctx, bob.ID, alice.ID); err != nil {
		t.Fatalf("SendRequest: %v", err)
	}

	changed, err := svc.Accept(ctx, bob.ID, alice.ID)
	if err != nil || !changed {
		t.Fatalf("Accept: changed=%v err=%v", changed, err)
	}

	a, _ := store.GetUserByID(ctx, alice.ID)
	b, _ := store.GetUserByID(ctx, bob.ID)
	if !a.IsFriendOf(bob.ID) || !b.IsFriendOf(alice.ID) {
		t.Fatalf("expected symmetric friendship: %v / %v", a.Friends, b.Friends)
	}
	if len(a.FriendRequests) != 0 || len(b.FriendRequests) != 0 {
		t.Fatalf("expected no pending requests: %v / %v", a.FriendRequests, b.FriendRequests)
	}
}

func TestFriendsServiceAcceptWithoutRequestIsNoop(t *testing.T) {
	store, svc, alice, bob := newFriendsFixture(t)
	ctx := context.Background()

	changed, err := svc.Accept(ctx, alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if changed {
		t.Fatalf("expected no change")
	}
	a, _ := store.GetUserByID(ctx, alice.ID)
	if len(a.Friends) != 0 {
		t.Fatalf("expected no friends, got %v", a.Friends)
	}
}

func TestFriendsServiceReject(t *testing.T) {
	store, svc, alice, bob := newFriendsFixture(t)
	ctx := context.Background()

	if err := svc.SendRequest(ctx, alice.ID, bob.ID); err != nil {
		t.Fatalf("SendRequest: %v", err)
	}
	changed, err := svc.Reject(ctx, bob.ID, alice.ID)
	if err != nil || !changed {
		t.Fatalf("Reject: changed=%v err=%v", changed, err)
	}

	b, _ := store.GetUserByID(ctx, bob.ID)
	if len(b.FriendRequests) != 0 || len(b.Friends) != 0 {
		t.Fatalf("unexpected state after reject: %+v", b)
	}

	changed, err = svc.Reject(ctx, bob.ID, alice.ID)
	if err != nil || changed {
		t.Fatalf("second Reject: changed=%v err=%v", changed, err)
	}
}
