package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/fathima-sithara/realtime-service/internal/models"
)

var ErrChatNotFound = errors.New("chat not found")

// ChatRepository gives the router its broadcast targets. The chat documents
// themselves are owned by the external chat service.
type ChatRepository interface {
	Members(ctx context.Context, chatID string) ([]string, error)
	Get(ctx context.Context, chatID string) (*models.Chat, error)
	SetLastMessage(ctx context.Context, chatID string, m *models.Message) error
	ChatsOf(ctx context.Context, userID string) ([]string, error)
}

type mongoChatRepo struct {
	col *mongo.Collection
}

func NewChatRepo(col *mongo.Collection) ChatRepository {
	return &mongoChatRepo{col: col}
}

func (r *mongoChatRepo) Members(ctx context.Context, chatID string) ([]string, error) {
	c, err := r.Get(ctx, chatID)
	if err != nil {
		return nil, err
	}
	return c.Members, nil
}

func (r *mongoChatRepo) Get(ctx context.Context, chatID string) (*models.Chat, error) {
	oid, err := primitive.ObjectIDFromHex(chatID)
	if err != nil {
		return nil, ErrChatNotFound
	}
	var c models.Chat
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&c); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrChatNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *mongoChatRepo) SetLastMessage(ctx context.Context, chatID string, m *models.Message) error {
	oid, err := primitive.ObjectIDFromHex(chatID)
	if err != nil {
		return ErrChatNotFound
	}
	_, err = r.col.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{
		"last_message": m,
		"updated_at":   time.Now().UTC(),
	}})
	return err
}

func (r *mongoChatRepo) ChatsOf(ctx context.Context, userID string) ([]string, error) {
	cur, err := r.col.Find(ctx, bson.M{"members": userID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var ids []string
	for cur.Next(ctx) {
		var c models.Chat
		if err := cur.Decode(&c); err != nil {
			return nil, err
		}
		ids = append(ids, c.ID)
	}
	return ids, cur.Err()
}
