package postgres

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"PoopMatesServer/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// newTestPool opens APP_TEST_PG_DSN with the schema migrated. Tests share the
// database, so every user they create gets a unique name.
func newTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("APP_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("APP_TEST_PG_DSN not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := Open(ctx, dsn)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

func createUsers(t *testing.T, users *UsersStore, names ...string) []domain.User {
	t.Helper()
	suffix := uuid.NewString()[:8]
	out := make([]domain.User, 0, len(names))
	for _, name := range names {
		name = name + "_" + suffix
		u, err := users.CreateUser(context.Background(), name, name+"@example.com", "hash")
		if err != nil {
			t.Fatalf("CreateUser(%s): %v", name, err)
		}
		out = append(out, u)
	}
	return out
}

func TestPostgresAcceptFriendRequest(t *testing.T) {
	pool := newTestPool(t)
	ctx := context.Background()
	users := NewUsersStore(pool)
	friends := NewFriendshipsStore(pool)
	u := createUsers(t, users, "alice", "bob")
	alice, bob := u[0], u[1]

	changed, err := friends.AcceptFriendRequest(ctx, bob.ID, alice.ID)
	if err != nil || changed {
		t.Fatalf("accept without request = %v, %v; want no-op", changed, err)
	}

	for _, pair := range [][2]string{{alice.ID, bob.ID}, {bob.ID, alice.ID}, {alice.ID, bob.ID}} {
		if err := friends.AddFriendRequest(ctx, pair[0], pair[1]); err != nil {
			t.Fatalf("AddFriendRequest: %v", err)
		}
	}
	if b, _ := users.GetUserByID(ctx, bob.ID); len(b.FriendRequests) != 1 {
		t.Fatalf("expected one pending request, got %v", b.FriendRequests)
	}

	changed, err = friends.AcceptFriendRequest(ctx, bob.ID, alice.ID)
	if err != nil || !changed {
		t.Fatalf("AcceptFriendRequest = %v, %v", changed, err)
	}

	a, _ := users.GetUserByID(ctx, alice.ID)
	b, _ := users.GetUserByID(ctx, bob.ID)
	if !a.IsFriendOf(bob.ID) || !b.IsFriendOf(alice.ID) {
		t.Fatalf("expected symmetric friendship: %v %v", a.Friends, b.Friends)
	}
	if len(a.FriendRequests) != 0 || len(b.FriendRequests) != 0 {
		t.Fatalf("expected requests cleared in both directions: %v %v", a.FriendRequests, b.FriendRequests)
	}

	if err := friends.AddFriendRequest(ctx, alice.ID, uuid.NewString()); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown addressee, got %v", err)
	}
}

func TestPostgresGetOrCreateChatConcurrent(t *testing.T) {
	pool := newTestPool(t)
	ctx := context.Background()
	users := NewUsersStore(pool)
	chats := NewChatsStore(pool)
	u := createUsers(t, users, "alice", "bob")
	alice, bob := u[0], u[1]

	const callers = 8
	type result struct {
		id      string
		created bool
		err     error
	}
	results := make(chan result, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		a, b := alice.ID, bob.ID
		if i%2 == 1 {
			a, b = b, a
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, created, err := chats.GetOrCreateChat(ctx, a, b)
			results <- result{id, created, err}
		}()
	}
	wg.Wait()
	close(results)

	ids := map[string]bool{}
	created := 0
	for r := range results {
		if r.err != nil {
			t.Fatalf("GetOrCreateChat: %v", r.err)
		}
		ids[r.id] = true
		if r.created {
			created++
		}
	}
	if len(ids) != 1 || created != 1 {
		t.Fatalf("expected one chat created once, got ids %v created %d", ids, created)
	}

	for _, id := range []string{alice.ID, bob.ID} {
		got, _ := users.GetUserByID(ctx, id)
		if len(got.ChatRooms) != 1 {
			t.Fatalf("user %s chat rooms = %v", id, got.ChatRooms)
		}
	}

	if _, _, err := chats.GetOrCreateChat(ctx, alice.ID, uuid.NewString()); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown user, got %v", err)
	}
}
