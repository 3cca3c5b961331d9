// Package memory is a process-local implementation of the service stores. It
// backs the memory:// DSN for local development and the handler tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"PoopMatesServer/internal/domain"

	"github.com/google/uuid"
)

type Store struct {
	mu    sync.RWMutex
	users map[string]*domain.UserWithPassword
	chats map[string]*domain.Chat
	pairs map[string]string
	NewID func() string
}

func New() *Store {
	return &Store{
		users: make(map[string]*domain.UserWithPassword),
		chats: make(map[string]*domain.Chat),
		pairs: make(map[string]string),
		NewID: uuid.NewString,
	}
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) CreateUser(_ context.Context, username, email, passwordHash string) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Username == username {
			return domain.User{}, domain.ErrUsernameTaken
		}
		if u.Email == email {
			return domain.User{}, domain.ErrEmailTaken
		}
	}

	u := &domain.UserWithPassword{
		User: domain.User{
			ID:             s.NewID(),
			Username:       username,
			Email:          email,
			Friends:        []string{},
			FriendRequests: []string{},
			ChatRooms:      []string{},
		},
		PasswordHash: passwordHash,
	}
	s.users[u.ID] = u
	return cloneUser(u.User), nil
}

func (s *Store) GetUserByID(_ context.Context, id string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return cloneUser(u.User), nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (domain.UserWithPassword, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Email == email {
			return domain.UserWithPassword{User: cloneUser(u.User), PasswordHash: u.PasswordHash}, nil
		}
	}
	return domain.UserWithPassword{}, domain.ErrNotFound
}

func (s *Store) GetUsersByIDs(_ context.Context, ids []string) ([]domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out = append(out, cloneUser(u.User))
		}
	}
	return out, nil
}

func (s *Store) SetPasswordHash(_ context.Context, userID, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return domain.ErrNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

func (s *Store) SetStatus(_ context.Context, userID string, isPooping bool, expiresAt *time.Time) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	u.IsPooping = isPooping
	u.IsPoopingExpiresAt = nil
	if expiresAt != nil {
		t := *expiresAt
		u.IsPoopingExpiresAt = &t
	}
	return cloneUser(u.User), nil
}

func (s *Store) SearchUsers(_ context.Context, term string) ([]domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(term)
	out := []domain.User{}
	for _, u := range s.users {
		if strings.Contains(strings.ToLower(u.Username), needle) {
			out = append(out, cloneUser(u.User))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (s *Store) AddFriendRequest(_ context.Context, fromID, toID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	to, ok := s.users[toID]
	if !ok {
		return domain.ErrNotFound
	}
	to.FriendRequests = addID(to.FriendRequests, fromID)
	return nil
}

func (s *Store) AcceptFriendRequest(_ context.Context, userID, friendID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return false, domain.ErrNotFound
	}
	friend, ok := s.users[friendID]
	if !ok {
		return false, domain.ErrNotFound
	}
	if !user.HasFriendRequestFrom(friendID) {
		return false, nil
	}

	user.Friends = addID(user.Friends, friendID)
	user.FriendRequests = removeID(user.FriendRequests, friendID)
	friend.Friends = addID(friend.Friends, userID)
	friend.FriendRequests = removeID(friend.FriendRequests, userID)
	return true, nil
}

func (s *Store) RejectFriendRequest(_ context.Context, userID, friendID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return false, domain.ErrNotFound
	}
	if !user.HasFriendRequestFrom(friendID) {
		return false, nil
	}
	user.FriendRequests = removeID(user.FriendRequests, friendID)
	return true, nil
}

func (s *Store) GetOrCreateChat(_ context.Context, userA, userB string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.users[userA]
	if !ok {
		return "", false, domain.ErrNotFound
	}
	b, ok := s.users[userB]
	if !ok {
		return "", false, domain.ErrNotFound
	}

	key := domain.PairKey(userA, userB)
	id, exists := s.pairs[key]
	if !exists {
		id = s.NewID()
		s.chats[id] = &domain.Chat{ID: id, Participants: []string{userA, userB}}
		s.pairs[key] = id
	}
	a.ChatRooms = addID(a.ChatRooms, id)
	b.ChatRooms = addID(b.ChatRooms, id)
	return id, !exists, nil
}

func (s *Store) GetChat(_ context.Context, chatID string) (domain.Chat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.chats[chatID]
	if !ok {
		return domain.Chat{}, domain.ErrNotFound
	}
	return domain.Chat{
		ID:           c.ID,
		Participants: append([]string(nil), c.Participants...),
		Messages:     append([]domain.ChatMessage(nil), c.Messages...),
	}, nil
}

func (s *Store) AppendMessage(_ context.Context, chatID string, msg domain.ChatMessage) (domain.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.chats[chatID]
	if !ok {
		return domain.ChatMessage{}, domain.ErrNotFound
	}
	msg.ID = s.NewID()
	c.Messages = append(c.Messages, msg)
	return msg, nil
}

func cloneUser(u domain.User) domain.User {
	out := u
	out.Friends = append([]string{}, u.Friends...)
	out.FriendRequests = append([]string{}, u.FriendRequests...)
	out.ChatRooms = append([]string{}, u.ChatRooms...)
	if u.IsPoopingExpiresAt != nil {
		t := *u.IsPoopingExpiresAt
		out.IsPoopingExpiresAt = &t
	}
	return out
}

func addID(ids []string, id string) []string {
	for _, v := range ids {
		if v == id {
			return ids
		}
	}
	return append(ids, id)
}

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
