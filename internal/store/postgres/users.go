package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"PoopMatesServer/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UsersStore struct {
	pool *pgxpool.Pool
}

func NewUsersStore(pool *pgxpool.Pool) *UsersStore {
	return &UsersStore{pool: pool}
}

// userColumns selects a user row together with its friend, pending request
// and chat id lists, in the order the rows were created.
const userColumns = `
	u.id, u.username, u.email, u.password_hash, u.is_pooping, u.is_pooping_expires_at,
	ARRAY(SELECT f.friend_id::text FROM friendships f WHERE f.user_id = u.id ORDER BY f.created_at, f.friend_id),
	ARRAY(SELECT r.requester_id::text FROM friend_requests r WHERE r.addressee_id = u.id ORDER BY r.created_at, r.requester_id),
	ARRAY(SELECT c.id::text FROM chats c WHERE c.user_low = u.id OR c.user_high = u.id ORDER BY c.created_at, c.id)
`

func scanUser(row pgx.Row) (domain.UserWithPassword, error) {
	var (
		u         domain.UserWithPassword
		idUUID    pgtype.UUID
		expiresAt pgtype.Timestamptz
	)
	err := row.Scan(
		&idUUID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.IsPooping,
		&expiresAt,
		&u.Friends,
		&u.FriendRequests,
		&u.ChatRooms,
	)
	if err != nil {
		return domain.UserWithPassword{}, err
	}

	u.ID = uuidOrEmpty(idUUID)
	u.IsPoopingExpiresAt = timestamptzPtr(expiresAt)
	u.Friends = stringsOrEmpty(u.Friends)
	u.FriendRequests = stringsOrEmpty(u.FriendRequests)
	u.ChatRooms = stringsOrEmpty(u.ChatRooms)
	return u, nil
}

func (s *UsersStore) CreateUser(ctx context.Context, username, email, passwordHash string) (domain.User, error) {
	const q = `
		INSERT INTO users (username, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	var idUUID pgtype.UUID
	if err := s.pool.QueryRow(ctx, q, username, email, passwordHash).Scan(&idUUID); err != nil {
		return domain.User{}, mapUserWriteError(err)
	}

	return domain.User{
		ID:             uuidOrEmpty(idUUID),
		Username:       username,
		Email:          email,
		Friends:        []string{},
		FriendRequests: []string{},
		ChatRooms:      []string{},
	}, nil
}

func (s *UsersStore) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	idUUID, ok := parseID(id)
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}

	q := `SELECT ` + userColumns + ` FROM users u WHERE u.id = $1`
	u, err := scanUser(s.pool.QueryRow(ctx, q, idUUID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, domain.ErrNotFound
		}
		return domain.User{}, fmt.Errorf("get user by id: %w", err)
	}
	return u.User, nil
}

func (s *UsersStore) GetUserByEmail(ctx context.Context, email string) (domain.UserWithPassword, error) {
	q := `SELECT ` + userColumns + ` FROM users u WHERE u.email = $1`
	u, err := scanUser(s.pool.QueryRow(ctx, q, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.UserWithPassword{}, domain.ErrNotFound
		}
		return domain.UserWithPassword{}, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

// GetUsersByIDs returns the users that exist among ids. Unknown and
// malformed ids are skipped.
func (s *UsersStore) GetUsersByIDs(ctx context.Context, ids []string) ([]domain.User, error) {
	valid := make([]pgtype.UUID, 0, len(ids))
	for _, id := range ids {
		if u, ok := parseID(id); ok {
			valid = append(valid, u)
		}
	}
	if len(valid) == 0 {
		return []domain.User{}, nil
	}

	q := `SELECT ` + userColumns + ` FROM users u WHERE u.id = ANY($1)`
	rows, err := s.pool.Query(ctx, q, valid)
	if err != nil {
		return nil, fmt.Errorf("get users by ids: %w", err)
	}
	defer rows.Close()

	out := make([]domain.User, 0, len(valid))
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u.User)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get users by ids: %w", err)
	}
	return out, nil
}

func (s *UsersStore) SetStatus(ctx context.Context, userID string, isPooping bool, expiresAt *time.Time) (domain.User, error) {
	idUUID, ok := parseID(userID)
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}

	const q = `
		UPDATE users
		SET is_pooping = $2, is_pooping_expires_at = $3
		WHERE id = $1
	`
	ct, err := s.pool.Exec(ctx, q, idUUID, isPooping, timestamptzOrNull(expiresAt))
	if err != nil {
		return domain.User{}, fmt.Errorf("set status: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.User{}, domain.ErrNotFound
	}
	return s.GetUserByID(ctx, userID)
}

func (s *UsersStore) SetPasswordHash(ctx context.Context, userID, passwordHash string) error {
	idUUID, ok := parseID(userID)
	if !ok {
		return domain.ErrNotFound
	}

	ct, err := s.pool.Exec(ctx, `UPDATE users SET password_hash = $2 WHERE id = $1`, idUUID, passwordHash)
	if err != nil {
		return fmt.Errorf("set password hash: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func mapUserWriteError(err error) error {
	var pgerr *pgconn.PgError
	if errors.As(err, &pgerr) && pgerr.Code == "23505" {
		switch pgerr.ConstraintName {
		case "users_username_uq":
			return domain.ErrUsernameTaken
		case "users_email_uq":
			return domain.ErrEmailTaken
		default:
			return fmt.Errorf("unique violation (%s): %w", pgerr.ConstraintName, err)
		}
	}
	return fmt.Errorf("create user: %w", err)
}

// helpers in scan.go
