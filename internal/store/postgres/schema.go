package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Friendship edges are stored once per direction so that both sides of an
// accepted request can be inserted in the same transaction. Chats keep the
// normalised pair (user_low < user_high) under a unique constraint, which
// rules out duplicate rooms for the same two users.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
		username text NOT NULL,
		email text NOT NULL,
		password_hash text NOT NULL,
		is_pooping boolean NOT NULL DEFAULT false,
		is_pooping_expires_at timestamptz,
		created_at timestamptz NOT NULL DEFAULT now(),
		CONSTRAINT users_username_uq UNIQUE (username),
		CONSTRAINT users_email_uq UNIQUE (email)
	)`,
	`CREATE TABLE IF NOT EXISTS friend_requests (
		addressee_id uuid NOT NULL REFERENCES users (id),
		requester_id uuid NOT NULL REFERENCES users (id),
		created_at timestamptz NOT NULL DEFAULT clock_timestamp(),
		PRIMARY KEY (addressee_id, requester_id)
	)`,
	`CREATE TABLE IF NOT EXISTS friendships (
		user_id uuid NOT NULL REFERENCES users (id),
		friend_id uuid NOT NULL REFERENCES users (id),
		created_at timestamptz NOT NULL DEFAULT clock_timestamp(),
		PRIMARY KEY (user_id, friend_id)
	)`,
	`CREATE TABLE IF NOT EXISTS chats (
		id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
		user_low uuid NOT NULL REFERENCES users (id),
		user_high uuid NOT NULL REFERENCES users (id),
		created_at timestamptz NOT NULL DEFAULT clock_timestamp(),
		CONSTRAINT chats_pair_uq UNIQUE (user_low, user_high),
		CONSTRAINT chats_pair_order_ck CHECK (user_low <= user_high)
	)`,
	`CREATE TABLE IF NOT EXISTS chat_messages (
		id bigint GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		chat_id uuid NOT NULL REFERENCES chats (id),
		sender_id uuid NOT NULL REFERENCES users (id),
		content text NOT NULL,
		created_at timestamptz NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS chat_messages_chat_idx ON chat_messages (chat_id, id)`,
	`CREATE INDEX IF NOT EXISTS chats_user_high_idx ON chats (user_high)`,
}

// Migrate creates the schema if it does not exist yet.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	return pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		for _, stmt := range schemaStatements {
			if _, err := tx.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
		}
		return nil
	})
}
