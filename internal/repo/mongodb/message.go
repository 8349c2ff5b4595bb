package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tranbn/slackline/internal/models"
)

type MessageRepository interface {
	Create(ctx context.Context, message *models.Message) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Message, error)
	ListChannelMessages(ctx context.Context, channelID primitive.ObjectID) ([]*models.Message, error)
	ListThreadReplies(ctx context.Context, parentID primitive.ObjectID) ([]*models.Message, error)
	ListPinned(ctx context.Context, channelID primitive.ObjectID) ([]*models.Message, error)
	Edit(ctx context.Context, id primitive.ObjectID, body string) error
	SoftDelete(ctx context.Context, id primitive.ObjectID) error
	SetPinned(ctx context.Context, id primitive.ObjectID, pinned bool) error
}

type messageRepo struct {
	collection *mongo.Collection
}

func NewMessageRepository(db *DB) MessageRepository {
	return &messageRepo{
		collection: db.Database.Collection("messages"),
	}
}

func (r *messageRepo) Create(ctx context.Context, message *models.Message) error {
	message.ID = primitive.NewObjectID()
	message.CreatedAt = time.Now()
	message.UpdatedAt = message.CreatedAt

	_, err := r.collection.InsertOne(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

func (r *messageRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Message, error) {
	var message models.Message
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&message)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	return &message, nil
}

func (r *messageRepo) ListChannelMessages(ctx context.Context, channelID primitive.ObjectID) ([]*models.Message, error) {
	filter := bson.M{
		"channel_id": channelID,
		"is_deleted": false,
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	return r.list(ctx, filter, opts)
}

func (r *messageRepo) ListThreadReplies(ctx context.Context, parentID primitive.ObjectID) ([]*models.Message, error) {
	filter := bson.M{
		"parent_id":  parentID,
		"is_deleted": false,
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	return r.list(ctx, filter, opts)
}

func (r *messageRepo) ListPinned(ctx context.Context, channelID primitive.ObjectID) ([]*models.Message, error) {
	filter := bson.M{
		"channel_id": channelID,
		"pinned":     true,
		"is_deleted": false,
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	return r.list(ctx, filter, opts)
}

func (r *messageRepo) list(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*models.Message, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find messages: %w", err)
	}
	defer cursor.Close(ctx)

	var messages []*models.Message
	for cursor.Next(ctx) {
		var message models.Message
		if err := cursor.Decode(&message); err != nil {
			return nil, fmt.Errorf("failed to decode message: %w", err)
		}
		messages = append(messages, &message)
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}

	return messages, nil
}

func (r *messageRepo) Edit(ctx context.Context, id primitive.ObjectID, body string) error {
	now := time.Now()
	update := bson.M{
		"$set": bson.M{
			"body":       body,
			"edited_at":  now,
			"updated_at": now,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to edit message: %w", err)
	}
	if result.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *messageRepo) SoftDelete(ctx context.Context, id primitive.ObjectID) error {
	update := bson.M{
		"$set": bson.M{
			"is_deleted": true,
			"updated_at": time.Now(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	if result.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *messageRepo) SetPinned(ctx context.Context, id primitive.ObjectID, pinned bool) error {
	update := bson.M{
		"$set": bson.M{
			"pinned":     pinned,
			"updated_at": time.Now(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to update pin: %w", err)
	}
	if result.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}
