// Package mongodb stores users and chats as documents in the "users" and
// "chats" collections, using the field names of the existing PoopMates
// database so that data written by earlier deployments stays readable.
package mongodb

import (
	"context"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"
)

const (
	DefaultDatabase = "poopmates"

	usersCollection = "users"
	chatsCollection = "chats"

	usernameIndex = "users_username_uq"
	emailIndex    = "users_email_uq"
	pairKeyIndex  = "chats_pair_uq"
)

func Open(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	return client, nil
}

// DatabaseName returns override when set, otherwise the database named in the
// URI path, otherwise DefaultDatabase.
func DatabaseName(uri, override string) string {
	if override = strings.TrimSpace(override); override != "" {
		return override
	}
	if cs, err := connstring.Parse(uri); err == nil && cs.Database != "" {
		return cs.Database
	}
	return DefaultDatabase
}

// EnsureIndexes creates the unique indexes the stores depend on. The pair key
// index is partial so chats created before pair keys existed do not collide.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	users := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetName(usernameIndex).SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName(emailIndex).SetUnique(true),
		},
	}
	if _, err := db.Collection(usersCollection).Indexes().CreateMany(ctx, users); err != nil {
		return fmt.Errorf("create user indexes: %w", err)
	}

	chats := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "pairKey", Value: 1}},
			Options: options.Index().
				SetName(pairKeyIndex).
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"pairKey": bson.M{"$exists": true}}),
		},
		{
			Keys:    bson.D{{Key: "participants", Value: 1}},
			Options: options.Index().SetName("chats_participants_idx"),
		},
	}
	if _, err := db.Collection(chatsCollection).Indexes().CreateMany(ctx, chats); err != nil {
		return fmt.Errorf("create chat indexes: %w", err)
	}
	return nil
}
