package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"PoopMatesServer/internal/domain"
)

type ChatsStore interface {
	// GetOrCreateChat returns the chat shared by the two users, creating it
	// when none exists, and makes sure both users list it in their chat rooms.
	GetOrCreateChat(ctx context.Context, userA, userB string) (chatID string, created bool, err error)
	GetChat(ctx context.Context, chatID string) (domain.Chat, error)
	AppendMessage(ctx context.Context, chatID string, msg domain.ChatMessage) (domain.ChatMessage, error)
}

type ChatUsersStore interface {
	UserLookup
	GetUsersByIDs(ctx context.Context, ids []string) ([]domain.User, error)
}

type ChatService struct {
	Users ChatUsersStore
	Chats ChatsStore
	Now   func() time.Time
}

func (s *ChatService) GetOrCreateRoom(ctx context.Context, userID, friendID string) (domain.ChatRoom, error) {
	user, friend, err := loadPair(ctx, s.Users, userID, friendID)
	if err != nil {
		return domain.ChatRoom{}, err
	}

	id, created, err := s.Chats.GetOrCreateChat(ctx, user.ID, friend.ID)
	if err != nil {
		return domain.ChatRoom{}, err
	}
	return domain.ChatRoom{ChatID: id, Created: created}, nil
}

func (s *ChatService) SendMessage(ctx context.Context, userID, chatID, content string) (domain.ChatMessage, error) {
	user, chat, err := s.loadMembership(ctx, userID, chatID)
	if err != nil {
		return domain.ChatMessage{}, err
	}

	return s.Chats.AppendMessage(ctx, chat.ID, domain.ChatMessage{
		Sender:    user.ID,
		Content:   content,
		Timestamp: s.now().UTC().Truncate(time.Millisecond),
	})
}

// GetHistory returns the chat log in append order with every sender resolved
// to its sanitized user record.
func (s *ChatService) GetHistory(ctx context.Context, userID, chatID string) ([]domain.HistoryMessage, error) {
	_, chat, err := s.loadMembership(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}

	senders, err := s.resolveSenders(ctx, chat.Messages)
	if err != nil {
		return nil, err
	}

	out := make([]domain.HistoryMessage, 0, len(chat.Messages))
	for _, m := range chat.Messages {
		hm := domain.HistoryMessage{
			ID:        m.ID,
			Content:   m.Content,
			Timestamp: m.Timestamp,
		}
		if u, ok := senders[m.Sender]; ok {
			u := u
			hm.Sender = &u
		}
		out = append(out, hm)
	}
	return out, nil
}

// CheckMembership reports ErrNotFound when the user or chat is missing and
// ErrForbidden when the user is not one of the chat's participants.
func (s *ChatService) CheckMembership(ctx context.Context, userID, chatID string) error {
	_, _, err := s.loadMembership(ctx, userID, chatID)
	return err
}

func (s *ChatService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *ChatService) loadMembership(ctx context.Context, userID, chatID string) (domain.User, domain.Chat, error) {
	user, err := s.Users.GetUserByID(ctx, strings.TrimSpace(userID))
	if err != nil {
		return domain.User{}, domain.Chat{}, err
	}
	chat, err := s.Chats.GetChat(ctx, strings.TrimSpace(chatID))
	if err != nil {
		return domain.User{}, domain.Chat{}, err
	}
	if !chat.HasParticipant(user.ID) {
		return domain.User{}, domain.Chat{}, domain.ErrForbidden
	}
	return user, chat, nil
}

func (s *ChatService) resolveSenders(ctx context.Context, msgs []domain.ChatMessage) (map[string]domain.User, error) {
	seen := make(map[string]bool)
	ids := make([]string, 0)
	for _, m := range msgs {
		if m.Sender == "" || seen[m.Sender] {
			continue
		}
		seen[m.Sender] = true
		ids = append(ids, m.Sender)
	}
	if len(ids) == 0 {
		return map[string]domain.User{}, nil
	}

	users, err := s.Users.GetUsersByIDs(ctx, ids)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	out := make(map[string]domain.User, len(users))
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}
