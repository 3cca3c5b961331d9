package mongodb

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"PoopMatesServer/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type UsersStore struct {
	users *mongo.Collection
}

func NewUsersStore(db *mongo.Database) *UsersStore {
	return &UsersStore{users: db.Collection(usersCollection)}
}

func (s *UsersStore) CreateUser(ctx context.Context, username, email, passwordHash string) (domain.User, error) {
	doc := userDoc{
		ID:             primitive.NewObjectID(),
		Username:       username,
		Email:          email,
		Password:       passwordHash,
		Friends:        []primitive.ObjectID{},
		FriendRequests: []primitive.ObjectID{},
		ChatRooms:      []primitive.ObjectID{},
	}
	if _, err := s.users.InsertOne(ctx, doc); err != nil {
		return domain.User{}, mapUserWriteError(err)
	}
	return doc.toDomain().User, nil
}

func (s *UsersStore) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	oid, ok := parseID(id)
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	u, err := s.findOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return domain.User{}, fmt.Errorf("get user by id: %w", err)
	}
	return u.User, nil
}

// GetUserByEmail ignores case so accounts stored with mixed-case addresses
// before emails were normalised still resolve.
func (s *UsersStore) GetUserByEmail(ctx context.Context, email string) (domain.UserWithPassword, error) {
	u, err := s.findOne(ctx, bson.M{"email": email}, emailLookupOptions())
	if err != nil {
		return domain.UserWithPassword{}, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

func emailLookupOptions() *options.FindOneOptions {
	return options.FindOne().SetCollation(&options.Collation{Locale: "en", Strength: 2})
}

func (s *UsersStore) findOne(ctx context.Context, filter bson.M, opts ...*options.FindOneOptions) (domain.UserWithPassword, error) {
	var doc userDoc
	if err := s.users.FindOne(ctx, filter, opts...).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.UserWithPassword{}, domain.ErrNotFound
		}
		return domain.UserWithPassword{}, err
	}
	return doc.toDomain(), nil
}

func (s *UsersStore) GetUsersByIDs(ctx context.Context, ids []string) ([]domain.User, error) {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, ok := parseID(id); ok {
			oids = append(oids, oid)
		}
	}
	if len(oids) == 0 {
		return []domain.User{}, nil
	}
	return s.find(ctx, bson.M{"_id": bson.M{"$in": oids}}, options.Find())
}

// SearchUsers matches term as a literal, case-insensitive substring of the
// username. An empty term lists every user.
func (s *UsersStore) SearchUsers(ctx context.Context, term string) ([]domain.User, error) {
	filter := bson.M{
		"username": primitive.Regex{Pattern: regexp.QuoteMeta(strings.TrimSpace(term)), Options: "i"},
	}
	opts := options.Find().SetSort(bson.D{{Key: "username", Value: 1}})
	users, err := s.find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	return users, nil
}

func (s *UsersStore) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]domain.User, error) {
	cur, err := s.users.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	defer cur.Close(ctx)

	out := []domain.User{}
	for cur.Next(ctx) {
		var doc userDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode user: %w", err)
		}
		out = append(out, doc.toDomain().User)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	return out, nil
}

func (s *UsersStore) SetStatus(ctx context.Context, userID string, isPooping bool, expiresAt *time.Time) (domain.User, error) {
	oid, ok := parseID(userID)
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}

	update := bson.M{"$set": bson.M{"isPooping": isPooping, "isPoopingExpiresAt": expiresAt}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc userDoc
	if err := s.users.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.User{}, domain.ErrNotFound
		}
		return domain.User{}, fmt.Errorf("set status: %w", err)
	}
	return doc.toDomain().User, nil
}

func (s *UsersStore) SetPasswordHash(ctx context.Context, userID, passwordHash string) error {
	oid, ok := parseID(userID)
	if !ok {
		return domain.ErrNotFound
	}

	res, err := s.users.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{"password": passwordHash}})
	if err != nil {
		return fmt.Errorf("set password hash: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}
