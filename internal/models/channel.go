package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Channel struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	WorkspaceID   primitive.ObjectID `bson:"workspace_id" json:"workspace_id" validate:"required"`
	Name          string             `bson:"name" json:"name" validate:"required"`
	Description   string             `bson:"description,omitempty" json:"description,omitempty"`
	IsPrivate     bool               `bson:"is_private" json:"is_private"`
	CreatedBy     primitive.ObjectID `bson:"created_by" json:"created_by"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time          `bson:"updated_at" json:"updated_at"`
	LastMessageAt *time.Time         `bson:"last_message_at,omitempty" json:"last_message_at,omitempty"`
	IsArchived    bool               `bson:"is_archived" json:"is_archived"`
}

type ChannelMember struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ChannelID primitive.ObjectID `bson:"channel_id" json:"channel_id" validate:"required"`
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id" validate:"required"`
	Role      string             `bson:"role" json:"role"` // "owner", "member"
	JoinedAt  time.Time          `bson:"joined_at" json:"joined_at"`
	LeftAt    *time.Time         `bson:"left_at,omitempty" json:"left_at,omitempty"`
	IsActive  bool               `bson:"is_active" json:"is_active"`
}
