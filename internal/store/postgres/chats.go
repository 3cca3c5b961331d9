package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"PoopMatesServer/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ChatsStore struct {
	pool *pgxpool.Pool
}

func NewChatsStore(pool *pgxpool.Pool) *ChatsStore {
	return &ChatsStore{pool: pool}
}

// GetOrCreateChat relies on chats_pair_uq so that concurrent callers for the
// same pair converge on one row. Chat rooms are derived from the chats
// table, so there is no per-user list to keep in sync.
func (s *ChatsStore) GetOrCreateChat(ctx context.Context, userA, userB string) (string, bool, error) {
	a, ok1 := parseID(userA)
	b, ok2 := parseID(userB)
	if !ok1 || !ok2 {
		return "", false, domain.ErrNotFound
	}
	low, high := a, b
	if uuidOrEmpty(high) < uuidOrEmpty(low) {
		low, high = high, low
	}

	const insert = `
		INSERT INTO chats (user_low, user_high)
		VALUES ($1, $2)
		ON CONFLICT ON CONSTRAINT chats_pair_uq DO NOTHING
		RETURNING id
	`
	var idUUID pgtype.UUID
	err := s.pool.QueryRow(ctx, insert, low, high).Scan(&idUUID)
	switch {
	case err == nil:
		return uuidOrEmpty(idUUID), true, nil
	case errors.Is(err, pgx.ErrNoRows):
	case isForeignKeyViolation(err):
		return "", false, domain.ErrNotFound
	default:
		return "", false, fmt.Errorf("create chat: %w", err)
	}

	const lookup = `SELECT id FROM chats WHERE user_low = $1 AND user_high = $2`
	if err := s.pool.QueryRow(ctx, lookup, low, high).Scan(&idUUID); err != nil {
		return "", false, fmt.Errorf("find chat: %w", err)
	}
	return uuidOrEmpty(idUUID), false, nil
}

func (s *ChatsStore) GetChat(ctx context.Context, chatID string) (domain.Chat, error) {
	idUUID, ok := parseID(chatID)
	if !ok {
		return domain.Chat{}, domain.ErrNotFound
	}

	var low, high pgtype.UUID
	err := s.pool.QueryRow(ctx, `SELECT user_low, user_high FROM chats WHERE id = $1`, idUUID).Scan(&low, &high)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Chat{}, domain.ErrNotFound
		}
		return domain.Chat{}, fmt.Errorf("get chat: %w", err)
	}

	const q = `
		SELECT id, sender_id, content, created_at
		FROM chat_messages
		WHERE chat_id = $1
		ORDER BY id ASC
	`
	rows, err := s.pool.Query(ctx, q, idUUID)
	if err != nil {
		return domain.Chat{}, fmt.Errorf("list chat messages: %w", err)
	}
	defer rows.Close()

	chat := domain.Chat{
		ID:           uuidOrEmpty(idUUID),
		Participants: []string{uuidOrEmpty(low), uuidOrEmpty(high)},
		Messages:     []domain.ChatMessage{},
	}
	for rows.Next() {
		var (
			id     int64
			sender pgtype.UUID
			msg    domain.ChatMessage
		)
		if err := rows.Scan(&id, &sender, &msg.Content, &msg.Timestamp); err != nil {
			return domain.Chat{}, fmt.Errorf("scan chat message: %w", err)
		}
		msg.ID = strconv.FormatInt(id, 10)
		msg.Sender = uuidOrEmpty(sender)
		msg.Timestamp = msg.Timestamp.UTC()
		chat.Messages = append(chat.Messages, msg)
	}
	if err := rows.Err(); err != nil {
		return domain.Chat{}, fmt.Errorf("list chat messages: %w", err)
	}
	return chat, nil
}

func (s *ChatsStore) AppendMessage(ctx context.Context, chatID string, msg domain.ChatMessage) (domain.ChatMessage, error) {
	chat, ok1 := parseID(chatID)
	sender, ok2 := parseID(msg.Sender)
	if !ok1 || !ok2 {
		return domain.ChatMessage{}, domain.ErrNotFound
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}

	const q = `
		INSERT INTO chat_messages (chat_id, sender_id, content, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	var id int64
	if err := s.pool.QueryRow(ctx, q, chat, sender, msg.Content, msg.Timestamp).Scan(&id); err != nil {
		if isForeignKeyViolation(err) {
			return domain.ChatMessage{}, domain.ErrNotFound
		}
		return domain.ChatMessage{}, fmt.Errorf("append chat message: %w", err)
	}
	msg.ID = strconv.FormatInt(id, 10)
	return msg, nil
}
