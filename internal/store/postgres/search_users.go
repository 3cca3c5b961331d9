package postgres

import (
	"context"
	"fmt"
	"strings"

	"PoopMatesServer/internal/domain"
)

// SearchUsers matches term as a literal, case-insensitive substring of the
// username. An empty term lists every user.
func (s *UsersStore) SearchUsers(ctx context.Context, term string) ([]domain.User, error) {
	like := "%" + escapeLike(strings.TrimSpace(term)) + "%"
	q := `
		SELECT ` + userColumns + `
		FROM users u
		WHERE u.username ILIKE $1 ESCAPE '\'
		ORDER BY u.username ASC
	`

	rows, err := s.pool.Query(ctx, q, like)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	defer rows.Close()

	out := []domain.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u.User)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	return out, nil
}
