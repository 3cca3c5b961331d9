package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"PoopMatesServer/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ChatsStore struct {
	users *mongo.Collection
	chats *mongo.Collection
}

func NewChatsStore(db *mongo.Database) *ChatsStore {
	return &ChatsStore{
		users: db.Collection(usersCollection),
		chats: db.Collection(chatsCollection),
	}
}

// GetOrCreateChat finds the chat for the pair or upserts one keyed by the
// normalised pair key. The chat id is added to both users' chatRooms on every
// call, so a registration that failed earlier is repaired on the next one.
func (s *ChatsStore) GetOrCreateChat(ctx context.Context, userA, userB string) (string, bool, error) {
	a, ok1 := parseID(userA)
	b, ok2 := parseID(userB)
	if !ok1 || !ok2 {
		return "", false, domain.ErrNotFound
	}

	want := int64(2)
	if a == b {
		want = 1
	}
	n, err := s.users.CountDocuments(ctx, bson.M{"_id": bson.M{"$in": []primitive.ObjectID{a, b}}})
	if err != nil {
		return "", false, fmt.Errorf("count chat users: %w", err)
	}
	if n != want {
		return "", false, domain.ErrNotFound
	}

	chatID, created, err := s.findOrInsert(ctx, a, b)
	if err != nil {
		return "", false, err
	}

	_, err = s.users.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": []primitive.ObjectID{a, b}}},
		bson.M{"$addToSet": bson.M{"chatRooms": chatID}},
	)
	if err != nil {
		return "", false, fmt.Errorf("register chat room: %w", err)
	}
	return chatID.Hex(), created, nil
}

func (s *ChatsStore) findOrInsert(ctx context.Context, a, b primitive.ObjectID) (primitive.ObjectID, bool, error) {
	key := domain.PairKey(a.Hex(), b.Hex())

	var existing chatDoc
	err := s.chats.FindOne(ctx, bson.M{"pairKey": key}).Decode(&existing)
	if err == nil {
		return existing.ID, false, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return primitive.NilObjectID, false, fmt.Errorf("find chat: %w", err)
	}

	// Chats written without a pair key are matched on participants and
	// backfilled.
	err = s.chats.FindOne(ctx, legacyPairFilter(a, b)).Decode(&existing)
	if err == nil {
		_, err := s.chats.UpdateOne(ctx, bson.M{"_id": existing.ID}, bson.M{"$set": bson.M{"pairKey": key}})
		if err != nil && !mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, false, fmt.Errorf("backfill pair key: %w", err)
		}
		if err == nil {
			return existing.ID, false, nil
		}
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		return primitive.NilObjectID, false, fmt.Errorf("find chat: %w", err)
	}

	id := primitive.NewObjectID()
	res, err := s.chats.UpdateOne(ctx,
		bson.M{"pairKey": key},
		bson.M{"$setOnInsert": bson.M{
			"_id":          id,
			"participants": []primitive.ObjectID{a, b},
			"messages":     []messageDoc{},
		}},
		options.Update().SetUpsert(true),
	)
	if err != nil && !mongo.IsDuplicateKeyError(err) {
		return primitive.NilObjectID, false, fmt.Errorf("create chat: %w", err)
	}
	if err == nil && res.UpsertedID != nil {
		return id, true, nil
	}

	// Lost the race to a concurrent upsert for the same pair.
	if err := s.chats.FindOne(ctx, bson.M{"pairKey": key}).Decode(&existing); err != nil {
		return primitive.NilObjectID, false, fmt.Errorf("find chat: %w", err)
	}
	return existing.ID, false, nil
}

// legacyPairFilter matches a chat without a pair key whose participants are
// exactly a and b. A self chat lists the same id twice.
func legacyPairFilter(a, b primitive.ObjectID) bson.M {
	filter := bson.M{"pairKey": bson.M{"$exists": false}}
	if a == b {
		filter["participants"] = []primitive.ObjectID{a, a}
		return filter
	}
	filter["participants"] = bson.M{"$all": []primitive.ObjectID{a, b}, "$size": 2}
	return filter
}

func (s *ChatsStore) GetChat(ctx context.Context, chatID string) (domain.Chat, error) {
	oid, ok := parseID(chatID)
	if !ok {
		return domain.Chat{}, domain.ErrNotFound
	}

	var doc chatDoc
	if err := s.chats.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.Chat{}, domain.ErrNotFound
		}
		return domain.Chat{}, fmt.Errorf("get chat: %w", err)
	}
	return doc.toDomain(), nil
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

	doc := messageDoc{
		ID:        primitive.NewObjectID(),
		Sender:    sender,
		Content:   msg.Content,
		Timestamp: msg.Timestamp,
	}
	res, err := s.chats.UpdateOne(ctx, bson.M{"_id": chat}, bson.M{"$push": bson.M{"messages": doc}})
	if err != nil {
		return domain.ChatMessage{}, fmt.Errorf("append chat message: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ChatMessage{}, domain.ErrNotFound
	}
	return doc.toDomain(), nil
}
