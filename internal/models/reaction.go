package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Reaction is one user's emoji on one message. A unique index on
// (message_id, user_id, emoji) keeps the toggle idempotent at the store.
type Reaction struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	MessageID primitive.ObjectID `bson:"message_id" json:"message_id" validate:"required"`
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id" validate:"required"`
	Emoji     string             `bson:"emoji" json:"emoji" validate:"required"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

// ReactionGroup is the aggregate view of one emoji on one message:
// Count always equals len(Users).
type ReactionGroup struct {
	Emoji string               `json:"emoji"`
	Count int                  `json:"count"`
	Users []primitive.ObjectID `json:"users"`
}
