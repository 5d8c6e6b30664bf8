package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var ErrUserNotFound = errors.New("user not found")

// UserRepository holds the durable last_seen fallback used once the
// ephemeral presence record has expired.
type UserRepository interface {
	LastSeen(ctx context.Context, userID string) (time.Time, error)
	TouchLastSeen(ctx context.Context, userID string) error
}

type mongoUserRepo struct {
	col *mongo.Collection
}

func NewUserRepo(col *mongo.Collection) UserRepository {
	return &mongoUserRepo{col: col}
}

func (r *mongoUserRepo) LastSeen(ctx context.Context, userID string) (time.Time, error) {
	filter, err := userFilter(userID)
	if err != nil {
		return time.Time{}, err
	}
	var doc struct {
		LastSeen time.Time `bson:"last_seen"`
	}
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return time.Time{}, ErrUserNotFound
		}
		return time.Time{}, err
	}
	return doc.LastSeen, nil
}

func (r *mongoUserRepo) TouchLastSeen(ctx context.Context, userID string) error {
	filter, err := userFilter(userID)
	if err != nil {
		return err
	}
	_, err = r.col.UpdateOne(ctx, filter, bson.M{"$set": bson.M{"last_seen": time.Now().UTC()}})
	return err
}

func userFilter(userID string) (bson.M, error) {
	if oid, err := primitive.ObjectIDFromHex(userID); err == nil {
		return bson.M{"_id": oid}, nil
	}
	// user ids issued by the auth service are uuids, kept as plain strings
	return bson.M{"_id": userID}, nil
}
