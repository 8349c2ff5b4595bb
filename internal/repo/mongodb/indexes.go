package mongodb

import (
	"context"
	"fmt"

	log "github.com/carousell/ct-go/pkg/logger/log_context"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"
)

// EnsureIndexes creates the indexes the query paths depend on. Creation is
// idempotent, so this runs on every startup.
func EnsureIndexes(ctx context.Context, db *DB) error {
	indexes := map[string][]mongo.IndexModel{
		"messages": {
			{Keys: bson.D{{Key: "channel_id", Value: 1}, {Key: "created_at", Value: 1}}},
			{Keys: bson.D{{Key: "parent_id", Value: 1}, {Key: "created_at", Value: 1}}},
		},
		"channels": {
			{
				Keys:    bson.D{{Key: "workspace_id", Value: 1}, {Key: "name", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		"channel_members": {
			{
				Keys:    bson.D{{Key: "channel_id", Value: 1}, {Key: "user_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		"workspace_members": {
			{
				Keys:    bson.D{{Key: "workspace_id", Value: 1}, {Key: "user_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		"reactions": {
			{
				Keys: bson.D{
					{Key: "message_id", Value: 1},
					{Key: "user_id", Value: 1},
					{Key: "emoji", Value: 1},
				},
				Options: options.Index().SetUnique(true),
			},
		},
		"users": {
			{
				Keys:    bson.D{{Key: "email", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		"workspaces": {
			{
				Keys:    bson.D{{Key: "slug", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		"auth_tokens": {
			{
				Keys:    bson.D{{Key: "token_hash", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "user_id", Value: 1}}},
		},
	}

	eg, ctx := errgroup.WithContext(ctx)
	for collection, models := range indexes {
		eg.Go(func() error {
			if _, err := db.Database.Collection(collection).Indexes().CreateMany(ctx, models); err != nil {
				return fmt.Errorf("failed to create indexes for %s: %w", collection, err)
			}
			log.Debugw(ctx, "ensured indexes", "collection", collection, "count", len(models))
			return nil
		})
	}

	return eg.Wait()
}
