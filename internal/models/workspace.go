package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Workspace struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string             `bson:"name" json:"name" validate:"required"`
	Slug      string             `bson:"slug" json:"slug"`
	CreatedBy primitive.ObjectID `bson:"created_by" json:"created_by"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}

// Presence values mirror what the socket server reports for a user.
const (
	PresenceOnline  = "online"
	PresenceAway    = "away"
	PresenceOffline = "offline"
)

type WorkspaceMember struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	WorkspaceID primitive.ObjectID `bson:"workspace_id" json:"workspace_id" validate:"required"`
	UserID      primitive.ObjectID `bson:"user_id" json:"user_id" validate:"required"`
	Role        string             `bson:"role" json:"role"` // "admin", "member"
	JoinedAt    time.Time          `bson:"joined_at" json:"joined_at"`

	// Joined in from the users collection on read.
	Profile *Profile `bson:"-" json:"profile,omitempty"`
}
