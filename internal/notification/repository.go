package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const CollectionName = "notifications"

type Repository interface {
	Create(ctx context.Context, n *Notification) error
	List(ctx context.Context, filter Filter) ([]*Notification, int, error)
	MarkRead(ctx context.Context, userID, id string) (*Notification, error)
}

type document struct {
	ID          string    `bson:"_id"`
	UserID      string    `bson:"user_id"`
	Title       string    `bson:"title"`
	Content     string    `bson:"content"`
	IsRead      bool      `bson:"is_read"`
	RelatedType string    `bson:"related_type,omitempty"`
	RelatedID   string    `bson:"related_id,omitempty"`
	CreatedAt   time.Time `bson:"created_at"`
}

func toDocument(n *Notification) document {
	return document{
		ID:          n.ID,
		UserID:      n.UserID,
		Title:       n.Title,
		Content:     n.Content,
		IsRead:      n.IsRead,
		RelatedType: n.RelatedType,
		RelatedID:   n.RelatedID,
		CreatedAt:   n.CreatedAt,
	}
}

func (d document) toModel() *Notification {
	return &Notification{
		ID:          d.ID,
		UserID:      d.UserID,
		Title:       d.Title,
		Content:     d.Content,
		IsRead:      d.IsRead,
		RelatedType: d.RelatedType,
		RelatedID:   d.RelatedID,
		CreatedAt:   d.CreatedAt,
	}
}

type mongoRepository struct {
	collection *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) Repository {
	return &mongoRepository{collection: db.Collection(CollectionName)}
}

// EnsureIndexes creates the index backing the newest-first inbox query.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(CollectionName).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("create notification index failed: %w", err)
	}
	return nil
}

func (r *mongoRepository) Create(ctx context.Context, n *Notification) error {
	if _, err := r.collection.InsertOne(ctx, toDocument(n)); err != nil {
		return fmt.Errorf("insert notification failed: %w", err)
	}
	return nil
}

func (r *mongoRepository) List(ctx context.Context, filter Filter) ([]*Notification, int, error) {
	query := bson.M{"user_id": filter.UserID}
	if filter.IsRead != nil {
		query["is_read"] = *filter.IsRead
	}

	total, err := r.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("count notifications failed: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64((filter.Page - 1) * filter.Limit)).
		SetLimit(int64(filter.Limit))

	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("find notifications failed: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []document
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("decode notifications failed: %w", err)
	}

	result := make([]*Notification, len(docs))
	for i, d := range docs {
		result[i] = d.toModel()
	}
	return result, int(total), nil
}

// MarkRead flags one notification as read and returns it. Entries owned by
// another user are reported as missing.
func (r *mongoRepository) MarkRead(ctx context.Context, userID, id string) (*Notification, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var d document
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "user_id": userID},
		bson.M{"$set": bson.M{"is_read": true}},
		opts,
	).Decode(&d)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("mark notification read failed: %w", err)
	}
	return d.toModel(), nil
}
