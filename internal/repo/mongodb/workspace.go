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

type WorkspaceRepository interface {
	Create(ctx context.Context, workspace *models.Workspace) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Workspace, error)
	GetBySlug(ctx context.Context, slug string) (*models.Workspace, error)
	ListUserWorkspaces(ctx context.Context, userID primitive.ObjectID) ([]*models.Workspace, error)
}

type workspaceRepo struct {
	collection *mongo.Collection
}

func NewWorkspaceRepository(db *DB) WorkspaceRepository {
	return &workspaceRepo{
		collection: db.Database.Collection("workspaces"),
	}
}

func (r *workspaceRepo) Create(ctx context.Context, workspace *models.Workspace) error {
	workspace.ID = primitive.NewObjectID()
	workspace.CreatedAt = time.Now()
	workspace.UpdatedAt = workspace.CreatedAt

	_, err := r.collection.InsertOne(ctx, workspace)
	if err != nil {
		return fmt.Errorf("failed to create workspace: %w", err)
	}
	return nil
}

func (r *workspaceRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Workspace, error) {
	var workspace models.Workspace
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&workspace)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get workspace: %w", err)
	}
	return &workspace, nil
}

func (r *workspaceRepo) GetBySlug(ctx context.Context, slug string) (*models.Workspace, error) {
	var workspace models.Workspace
	err := r.collection.FindOne(ctx, bson.M{"slug": slug}).Decode(&workspace)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get workspace: %w", err)
	}
	return &workspace, nil
}

func (r *workspaceRepo) ListUserWorkspaces(ctx context.Context, userID primitive.ObjectID) ([]*models.Workspace, error) {
	pipeline := []bson.M{
		{
			"$lookup": bson.M{
				"from":         "workspace_members",
				"localField":   "_id",
				"foreignField": "workspace_id",
				"as":           "members",
			},
		},
		{
			"$match": bson.M{"members.user_id": userID},
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
		return nil, fmt.Errorf("failed to list user workspaces: %w", err)
	}
	defer cursor.Close(ctx)

	var workspaces []*models.Workspace
	if err := cursor.All(ctx, &workspaces); err != nil {
		return nil, fmt.Errorf("failed to decode workspaces: %w", err)
	}
	return workspaces, nil
}

type WorkspaceMemberRepository interface {
	AddMember(ctx context.Context, workspaceID, userID primitive.ObjectID, role string) error
	GetMember(ctx context.Context, workspaceID, userID primitive.ObjectID) (*models.WorkspaceMember, error)
	ListMembers(ctx context.Context, workspaceID primitive.ObjectID) ([]*models.WorkspaceMember, error)
}

type workspaceMemberRepo struct {
	collection *mongo.Collection
}

func NewWorkspaceMemberRepository(db *DB) WorkspaceMemberRepository {
	return &workspaceMemberRepo{
		collection: db.Database.Collection("workspace_members"),
	}
}

func (r *workspaceMemberRepo) AddMember(ctx context.Context, workspaceID, userID primitive.ObjectID, role string) error {
	filter := bson.M{
		"workspace_id": workspaceID,
		"user_id":      userID,
	}
	update := bson.M{
		"$set": bson.M{"role": role},
		"$setOnInsert": bson.M{
			"workspace_id": workspaceID,
			"user_id":      userID,
			"joined_at":    time.Now(),
		},
	}

	opts := options.Update().SetUpsert(true)
	_, err := r.collection.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return fmt.Errorf("failed to add workspace member: %w", err)
	}
	return nil
}

func (r *workspaceMemberRepo) GetMember(ctx context.Context, workspaceID, userID primitive.ObjectID) (*models.WorkspaceMember, error) {
	var member models.WorkspaceMember
	err := r.collection.FindOne(ctx, bson.M{
		"workspace_id": workspaceID,
		"user_id":      userID,
	}).Decode(&member)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get workspace member: %w", err)
	}
	return &member, nil
}

// ListMembers joins each member row with its user profile so callers can
// render presence without a second round trip.
func (r *workspaceMemberRepo) ListMembers(ctx context.Context, workspaceID primitive.ObjectID) ([]*models.WorkspaceMember, error) {
	pipeline := []bson.M{
		{
			"$match": bson.M{"workspace_id": workspaceID},
		},
		{
			"$lookup": bson.M{
				"from":         "users",
				"localField":   "user_id",
				"foreignField": "_id",
				"as":           "user",
			},
		},
		{
			"$sort": bson.M{"joined_at": 1},
		},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to list workspace members: %w", err)
	}
	defer cursor.Close(ctx)

	var members []*models.WorkspaceMember
	for cursor.Next(ctx) {
		var row struct {
			models.WorkspaceMember `bson:",inline"`
			User                   []models.User `bson:"user"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, fmt.Errorf("failed to decode workspace member: %w", err)
		}
		member := row.WorkspaceMember
		if len(row.User) > 0 {
			member.Profile = row.User[0].Profile()
		}
		members = append(members, &member)
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}

	return members, nil
}
