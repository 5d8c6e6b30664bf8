package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fathima-sithara/realtime-service/internal/models"
)

var ErrMessageNotFound = errors.New("message not found")

// MessageRepository is the persistence collaborator the router talks to.
type MessageRepository interface {
	Insert(ctx context.Context, m *models.Message) (*models.Message, error)
	Get(ctx context.Context, messageID string) (*models.Message, error)
	EditBody(ctx context.Context, messageID, body string) (*models.Message, error)
	Delete(ctx context.Context, messageID string) error
	// AdvanceStatus moves the message forward in the lattice; lower or equal
	// targets are a no-op, never a regression.
	AdvanceStatus(ctx context.Context, messageID string, target models.Status) error
	// MarkRead advances the listed messages to read on behalf of userID.
	// Messages userID sent themselves are left untouched.
	MarkRead(ctx context.Context, messageIDs []string, userID string) error
	Latest(ctx context.Context, chatID string, limit int64, before time.Time) ([]*models.Message, error)
}

type mongoMessageRepo struct {
	col *mongo.Collection
}

func NewMessageRepo(col *mongo.Collection) MessageRepository {
	return &mongoMessageRepo{col: col}
}

func (r *mongoMessageRepo) Insert(ctx context.Context, m *models.Message) (*models.Message, error) {
	m.ID = ""
	m.CreatedAt = time.Now().UTC()
	if m.Status == "" {
		m.Status = models.StatusSent
	}
	res, err := r.col.InsertOne(ctx, m)
	if err != nil {
		return nil, err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		m.ID = oid.Hex()
	}
	return m, nil
}

func (r *mongoMessageRepo) Get(ctx context.Context, messageID string) (*models.Message, error) {
	filter, err := idFilter(messageID)
	if err != nil {
		return nil, err
	}
	var m models.Message
	if err := r.col.FindOne(ctx, filter).Decode(&m); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrMessageNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *mongoMessageRepo) EditBody(ctx context.Context, messageID, body string) (*models.Message, error) {
	filter, err := idFilter(messageID)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	after := options.After
	var m models.Message
	err = r.col.FindOneAndUpdate(ctx, filter,
		bson.M{"$set": bson.M{"body": body, "edited_at": now}},
		&options.FindOneAndUpdateOptions{ReturnDocument: &after},
	).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrMessageNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *mongoMessageRepo) Delete(ctx context.Context, messageID string) error {
	filter, err := idFilter(messageID)
	if err != nil {
		return err
	}
	_, err = r.col.DeleteOne(ctx, filter)
	return err
}

func (r *mongoMessageRepo) AdvanceStatus(ctx context.Context, messageID string, target models.Status) error {
	filter, err := idFilter(messageID)
	if err != nil {
		return err
	}
	// the status guard lives in the filter so the check-and-set is one op
	var earlier []models.Status
	switch target {
	case models.StatusDelivered:
		earlier = []models.Status{models.StatusSent}
	case models.StatusRead:
		earlier = []models.Status{models.StatusSent, models.StatusDelivered}
	default:
		return nil
	}
	filter["status"] = bson.M{"$in": earlier}
	_, err = r.col.UpdateOne(ctx, filter, bson.M{"$set": bson.M{"status": target}})
	return err
}

func (r *mongoMessageRepo) MarkRead(ctx context.Context, messageIDs []string, userID string) error {
	oids := make([]primitive.ObjectID, 0, len(messageIDs))
	for _, id := range messageIDs {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			continue
		}
		oids = append(oids, oid)
	}
	if len(oids) == 0 {
		return nil
	}
	_, err := r.col.UpdateMany(ctx,
		bson.M{
			"_id":       bson.M{"$in": oids},
			"status":    bson.M{"$ne": models.StatusRead},
			"sender_id": bson.M{"$ne": userID},
		},
		bson.M{"$set": bson.M{"status": models.StatusRead}},
	)
	return err
}

func (r *mongoMessageRepo) Latest(ctx context.Context, chatID string, limit int64, before time.Time) ([]*models.Message, error) {
	filter := bson.M{"chat_id": chatID}
	if !before.IsZero() {
		filter["created_at"] = bson.M{"$lt": before}
	}
	cur, err := r.col.Find(ctx, filter, options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []*models.Message
	for cur.Next(ctx) {
		var m models.Message
		if err := cur.Decode(&m); err != nil {
			return nil, err
		}
		out = append(out, &m)
	}
	return out, cur.Err()
}

func idFilter(messageID string) (bson.M, error) {
	oid, err := primitive.ObjectIDFromHex(messageID)
	if err != nil {
		return nil, ErrMessageNotFound
	}
	return bson.M{"_id": oid}, nil
}
