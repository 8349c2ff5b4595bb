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

type ReactionRepository interface {
	Toggle(ctx context.Context, messageID, userID primitive.ObjectID, emoji string) (bool, error)
	ListByMessage(ctx context.Context, messageID primitive.ObjectID) ([]*models.Reaction, error)
	ListByMessageIDs(ctx context.Context, messageIDs []primitive.ObjectID) ([]*models.Reaction, error)
	DeleteByMessage(ctx context.Context, messageID primitive.ObjectID) error
}

type reactionRepo struct {
	collection *mongo.Collection
}

func NewReactionRepository(db *DB) ReactionRepository {
	return &reactionRepo{
		collection: db.Database.Collection("reactions"),
	}
}

// Toggle removes the user's reaction if it exists, otherwise adds it.
// Returns whether the reaction is present after the call. The unique index
// on (message_id, user_id, emoji) absorbs concurrent double-adds.
func (r *reactionRepo) Toggle(ctx context.Context, messageID, userID primitive.ObjectID, emoji string) (bool, error) {
	filter := bson.M{
		"message_id": messageID,
		"user_id":    userID,
		"emoji":      emoji,
	}

	result, err := r.collection.DeleteOne(ctx, filter)
	if err != nil {
		return false, fmt.Errorf("failed to toggle reaction: %w", err)
	}
	if result.DeletedCount > 0 {
		return false, nil
	}

	reaction := &models.Reaction{
		ID:        primitive.NewObjectID(),
		MessageID: messageID,
		UserID:    userID,
		Emoji:     emoji,
		CreatedAt: time.Now(),
	}
	if _, err := r.collection.InsertOne(ctx, reaction); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return true, nil
		}
		return false, fmt.Errorf("failed to add reaction: %w", err)
	}
	return true, nil
}

func (r *reactionRepo) ListByMessage(ctx context.Context, messageID primitive.ObjectID) ([]*models.Reaction, error) {
	return r.list(ctx, bson.M{"message_id": messageID})
}

func (r *reactionRepo) ListByMessageIDs(ctx context.Context, messageIDs []primitive.ObjectID) ([]*models.Reaction, error) {
	if len(messageIDs) == 0 {
		return nil, nil
	}
	return r.list(ctx, bson.M{"message_id": bson.M{"$in": messageIDs}})
}

func (r *reactionRepo) list(ctx context.Context, filter bson.M) ([]*models.Reaction, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list reactions: %w", err)
	}
	defer cursor.Close(ctx)

	var reactions []*models.Reaction
	if err := cursor.All(ctx, &reactions); err != nil {
		return nil, fmt.Errorf("failed to decode reactions: %w", err)
	}
	return reactions, nil
}

func (r *reactionRepo) DeleteByMessage(ctx context.Context, messageID primitive.ObjectID) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"message_id": messageID})
	if err != nil {
		return fmt.Errorf("failed to delete reactions: %w", err)
	}
	return nil
}
