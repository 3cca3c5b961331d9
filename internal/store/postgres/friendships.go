package postgres

import (
	"context"
	"fmt"

	"PoopMatesServer/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

type FriendshipsStore struct {
	pool *pgxpool.Pool
}

func NewFriendshipsStore(pool *pgxpool.Pool) *FriendshipsStore {
	return &FriendshipsStore{pool: pool}
}

func (s *FriendshipsStore) AddFriendRequest(ctx context.Context, fromID, toID string) error {
	from, ok1 := parseID(fromID)
	to, ok2 := parseID(toID)
	if !ok1 || !ok2 {
		return domain.ErrNotFound
	}

	const q = `
		INSERT INTO friend_requests (addressee_id, requester_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`
	if _, err := s.pool.Exec(ctx, q, to, from); err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("add friend request: %w", err)
	}
	return nil
}

// AcceptFriendRequest consumes friendID's pending request on userID and
// links both users in one transaction. A reverse request, if any, is
// dropped as well.
func (s *FriendshipsStore) AcceptFriendRequest(ctx context.Context, userID, friendID string) (bool, error) {
	user, ok1 := parseID(userID)
	friend, ok2 := parseID(friendID)
	if !ok1 || !ok2 {
		return false, domain.ErrNotFound
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin accept: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const consume = `DELETE FROM friend_requests WHERE addressee_id = $1 AND requester_id = $2`
	ct, err := tx.Exec(ctx, consume, user, friend)
	if err != nil {
		return false, fmt.Errorf("accept friend request: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return false, nil
	}

	if _, err := tx.Exec(ctx, consume, friend, user); err != nil {
		return false, fmt.Errorf("clear reverse request: %w", err)
	}

	const link = `
		INSERT INTO friendships (user_id, friend_id)
		VALUES ($1, $2), ($2, $1)
		ON CONFLICT DO NOTHING
	`
	if _, err := tx.Exec(ctx, link, user, friend); err != nil {
		return false, fmt.Errorf("link friends: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit accept: %w", err)
	}
	return true, nil
}

func (s *FriendshipsStore) RejectFriendRequest(ctx context.Context, userID, friendID string) (bool, error) {
	user, ok1 := parseID(userID)
	friend, ok2 := parseID(friendID)
	if !ok1 || !ok2 {
		return false, domain.ErrNotFound
	}

	const q = `DELETE FROM friend_requests WHERE addressee_id = $1 AND requester_id = $2`
	ct, err := s.pool.Exec(ctx, q, user, friend)
	if err != nil {
		return false, fmt.Errorf("reject friend request: %w", err)
	}
	return ct.RowsAffected() > 0, nil
}
