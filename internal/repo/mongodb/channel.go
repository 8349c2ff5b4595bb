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

type ChannelRepository interface {
	Create(ctx context.Context, channel *models.Channel) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Channel, error)
	GetByName(ctx context.Context, workspaceID primitive.ObjectID, name string) (*models.Channel, error)
	ListWorkspaceChannels(ctx context.Context, workspaceID primitive.ObjectID) ([]*models.Channel, error)
	ListUserChannels(ctx context.Context, workspaceID, userID primitive.ObjectID) ([]*models.Channel, error)
	UpdateLastMessage(ctx context.Context, channelID primitive.ObjectID) error
	Archive(ctx context.Context, channelID primitive.ObjectID) error
}

type channelRepo struct {
	collection *mongo.Collection
}

func NewChannelRepository(db *DB) ChannelRepository {
	return &channelRepo{
		collection: db.Database.Collection("channels"),
	}
}

func (r *channelRepo) Create(ctx context.Context, channel *models.Channel) error {
	channel.ID = primitive.NewObjectID()
	channel.CreatedAt = time.Now()
	channel.UpdatedAt = channel.CreatedAt

	_, err := r.collection.InsertOne(ctx, channel)
	if err != nil {
		return fmt.Errorf("failed to create channel: %w", err)
	}
	return nil
}

func (r *channelRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Channel, error) {
	var channel models.Channel
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&channel)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get channel: %w", err)
	}
	return &channel, nil
}

func (r *channelRepo) GetByName(ctx context.Context, workspaceID primitive.ObjectID, name string) (*models.Channel, error) {
	var channel models.Channel
	filter := bson.M{
		"workspace_id": workspaceID,
		"name":         name,
	}
	err := r.collection.FindOne(ctx, filter).Decode(&channel)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get channel: %w", err)
	}
	return &channel, nil
}

func (r *channelRepo) ListWorkspaceChannels(ctx context.Context, workspaceID primitive.ObjectID) ([]*models.Channel, error) {
	filter := bson.M{
		"workspace_id": workspaceID,
		"is_archived":  false,
	}
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list channels: %w", err)
	}
	defer cursor.Close(ctx)

	var channels []*models.Channel
	if err := cursor.All(ctx, &channels); err != nil {
		return nil, fmt.Errorf("failed to decode channels: %w", err)
	}
	return channels, nil
}

// ListUserChannels returns the channels visible to a user: every public
// channel in the workspace plus the private ones they are a member of.
func (r *channelRepo) ListUserChannels(ctx context.Context, workspaceID, userID primitive.ObjectID) ([]*models.Channel, error) {
	pipeline := []bson.M{
		{
			"$match": bson.M{
				"workspace_id": workspaceID,
				"is_archived":  false,
			},
		},
		{
			"$lookup": bson.M{
				"from":         "channel_members",
				"localField":   "_id",
				"foreignField": "channel_id",
				"as":           "members",
			},
		},
		{
			"$match": bson.M{
				"$or": []bson.M{
					{"is_private": false},
					{"members": bson.M{"$elemMatch": bson.M{
						"user_id":   userID,
						"is_active": true,
					}}},
				},
			},
		},
		{
			"$project": bson.M{"members": 0},
		},
		{
			"$sort": bson.M{"name": 1},
		},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to list user channels: %w", err)
	}
	defer cursor.Close(ctx)

	var channels []*models.Channel
	if err := cursor.All(ctx, &channels); err != nil {
		return nil, fmt.Errorf("failed to decode channels: %w", err)
	}
	return channels, nil
}

func (r *channelRepo) UpdateLastMessage(ctx context.Context, channelID primitive.ObjectID) error {
	now := time.Now()
	update := bson.M{
		"$set": bson.M{
			"last_message_at": now,
			"updated_at":      now,
		},
	}

	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": channelID}, update)
	return err
}

func (r *channelRepo) Archive(ctx context.Context, channelID primitive.ObjectID) error {
	update := bson.M{
		"$set": bson.M{
			"is_archived": true,
			"updated_at":  time.Now(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": channelID}, update)
	if err != nil {
		return fmt.Errorf("failed to archive channel: %w", err)
	}
	if result.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

type ChannelMemberRepository interface {
	AddMember(ctx context.Context, channelID, userID primitive.ObjectID, role string) error
	RemoveMember(ctx context.Context, channelID, userID primitive.ObjectID) error
	GetMember(ctx context.Context, channelID, userID primitive.ObjectID) (*models.ChannelMember, error)
	ListMembers(ctx context.Context, channelID primitive.ObjectID) ([]*models.ChannelMember, error)
}

type channelMemberRepo struct {
	collection *mongo.Collection
}

func NewChannelMemberRepository(db *DB) ChannelMemberRepository {
	return &channelMemberRepo{
		collection: db.Database.Collection("channel_members"),
	}
}

func (r *channelMemberRepo) AddMember(ctx context.Context, channelID, userID primitive.ObjectID, role string) error {
	filter := bson.M{
		"channel_id": channelID,
		"user_id":    userID,
	}
	update := bson.M{
		"$set": bson.M{
			"role":      role,
			"is_active": true,
			"left_at":   nil,
		},
		"$setOnInsert": bson.M{
			"channel_id": channelID,
			"user_id":    userID,
			"joined_at":  time.Now(),
		},
	}

	opts := options.Update().SetUpsert(true)
	_, err := r.collection.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return fmt.Errorf("failed to add channel member: %w", err)
	}
	return nil
}

func (r *channelMemberRepo) RemoveMember(ctx context.Context, channelID, userID primitive.ObjectID) error {
	filter := bson.M{
		"channel_id": channelID,
		"user_id":    userID,
	}
	update := bson.M{
		"$set": bson.M{
			"is_active": false,
			"left_at":   time.Now(),
		},
	}

	_, err := r.collection.UpdateOne(ctx, filter, update)
	return err
}

func (r *channelMemberRepo) GetMember(ctx context.Context, channelID, userID primitive.ObjectID) (*models.ChannelMember, error) {
	var member models.ChannelMember
	err := r.collection.FindOne(ctx, bson.M{
		"channel_id": channelID,
		"user_id":    userID,
		"is_active":  true,
	}).Decode(&member)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get channel member: %w", err)
	}
	return &member, nil
}

func (r *channelMemberRepo) ListMembers(ctx context.Context, channelID primitive.ObjectID) ([]*models.ChannelMember, error) {
	filter := bson.M{
		"channel_id": channelID,
		"is_active":  true,
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list channel members: %w", err)
	}
	defer cursor.Close(ctx)

	var members []*models.ChannelMember
	if err := cursor.All(ctx, &members); err != nil {
		return nil, fmt.Errorf("failed to decode channel members: %w", err)
	}
	return members, nil
}
