package mongodb

import (
	"fmt"
	"strings"
	"time"

	"PoopMatesServer/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type userDoc struct {
	ID                 primitive.ObjectID   `bson:"_id,omitempty"`
	Username           string               `bson:"username"`
	Email              string               `bson:"email"`
	Password           string               `bson:"password"`
	IsPooping          bool                 `bson:"isPooping"`
	IsPoopingExpiresAt *time.Time           `bson:"isPoopingExpiresAt"`
	Friends            []primitive.ObjectID `bson:"friends"`
	FriendRequests     []primitive.ObjectID `bson:"friendRequests"`
	ChatRooms          []primitive.ObjectID `bson:"chatRooms"`
}

type chatDoc struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty"`
	Participants []primitive.ObjectID `bson:"participants"`
	Messages     []messageDoc         `bson:"messages"`
	PairKey      string               `bson:"pairKey,omitempty"`
}

type messageDoc struct {
	ID        primitive.ObjectID `bson:"_id"`
	Sender    primitive.ObjectID `bson:"sender"`
	Content   string             `bson:"content"`
	Timestamp time.Time          `bson:"timestamp"`
}

func (d userDoc) toDomain() domain.UserWithPassword {
	u := domain.UserWithPassword{
		User: domain.User{
			ID:             d.ID.Hex(),
			Username:       d.Username,
			Email:          d.Email,
			IsPooping:      d.IsPooping,
			Friends:        hexIDs(d.Friends),
			FriendRequests: hexIDs(d.FriendRequests),
			ChatRooms:      hexIDs(d.ChatRooms),
		},
		PasswordHash: d.Password,
	}
	if d.IsPoopingExpiresAt != nil {
		t := d.IsPoopingExpiresAt.UTC()
		u.IsPoopingExpiresAt = &t
	}
	return u
}

func (d chatDoc) toDomain() domain.Chat {
	c := domain.Chat{
		ID:           d.ID.Hex(),
		Participants: hexIDs(d.Participants),
		Messages:     make([]domain.ChatMessage, 0, len(d.Messages)),
	}
	for _, m := range d.Messages {
		c.Messages = append(c.Messages, m.toDomain())
	}
	return c
}

func (m messageDoc) toDomain() domain.ChatMessage {
	return domain.ChatMessage{
		ID:        m.ID.Hex(),
		Sender:    m.Sender.Hex(),
		Content:   m.Content,
		Timestamp: m.Timestamp.UTC(),
	}
}

func hexIDs(ids []primitive.ObjectID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.Hex())
	}
	return out
}

// parseID reports false for strings that are not ObjectIDs; such ids can
// never name a document.
func parseID(id string) (primitive.ObjectID, bool) {
	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return primitive.NilObjectID, false
	}
	return oid, true
}

func mapUserWriteError(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		switch msg := err.Error(); {
		case strings.Contains(msg, usernameIndex):
			return domain.ErrUsernameTaken
		case strings.Contains(msg, emailIndex):
			return domain.ErrEmailTaken
		}
	}
	return fmt.Errorf("create user: %w", err)
}
