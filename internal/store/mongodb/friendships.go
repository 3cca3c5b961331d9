package mongodb

import (
	"context"
	"errors"
	"fmt"

	"PoopMatesServer/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type FriendshipsStore struct {
	users *mongo.Collection
}

func NewFriendshipsStore(db *mongo.Database) *FriendshipsStore {
	return &FriendshipsStore{users: db.Collection(usersCollection)}
}

func (s *FriendshipsStore) AddFriendRequest(ctx context.Context, fromID, toID string) error {
	from, ok1 := parseID(fromID)
	to, ok2 := parseID(toID)
	if !ok1 || !ok2 {
		return domain.ErrNotFound
	}

	res, err := s.users.UpdateOne(ctx, bson.M{"_id": to}, bson.M{"$addToSet": bson.M{"friendRequests": from}})
	if err != nil {
		return fmt.Errorf("add friend request: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// AcceptFriendRequest updates the two user documents one after the other.
// The first update only matches while the request is still pending, so
// concurrent accepts of the same request link the pair once. If the second
// update fails the first one is reverted.
func (s *FriendshipsStore) AcceptFriendRequest(ctx context.Context, userID, friendID string) (bool, error) {
	user, ok1 := parseID(userID)
	friend, ok2 := parseID(friendID)
	if !ok1 || !ok2 {
		return false, domain.ErrNotFound
	}

	res, err := s.users.UpdateOne(ctx,
		bson.M{"_id": user, "friendRequests": friend},
		bson.M{
			"$pull":     bson.M{"friendRequests": friend},
			"$addToSet": bson.M{"friends": friend},
		},
	)
	if err != nil {
		return false, fmt.Errorf("accept friend request: %w", err)
	}
	if res.MatchedCount == 0 {
		return false, nil
	}

	res, err = s.users.UpdateOne(ctx,
		bson.M{"_id": friend},
		bson.M{
			"$pull":     bson.M{"friendRequests": user},
			"$addToSet": bson.M{"friends": user},
		},
	)
	if err == nil && res.MatchedCount == 0 {
		err = domain.ErrNotFound
	}
	if err != nil {
		_, undoErr := s.users.UpdateOne(context.WithoutCancel(ctx),
			bson.M{"_id": user},
			bson.M{
				"$pull":     bson.M{"friends": friend},
				"$addToSet": bson.M{"friendRequests": friend},
			},
		)
		if undoErr != nil {
			return false, fmt.Errorf("link friend: %w (revert failed: %v)", err, undoErr)
		}
		if errors.Is(err, domain.ErrNotFound) {
			return false, err
		}
		return false, fmt.Errorf("link friend: %w", err)
	}
	return true, nil
}

func (s *FriendshipsStore) RejectFriendRequest(ctx context.Context, userID, friendID string) (bool, error) {
	user, ok1 := parseID(userID)
	friend, ok2 := parseID(friendID)
	if !ok1 || !ok2 {
		return false, domain.ErrNotFound
	}

	res, err := s.users.UpdateOne(ctx,
		bson.M{"_id": user, "friendRequests": friend},
		bson.M{"$pull": bson.M{"friendRequests": friend}},
	)
	if err != nil {
		return false, fmt.Errorf("reject friend request: %w", err)
	}
	return res.ModifiedCount > 0, nil
}
