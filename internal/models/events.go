package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ChangeKind discriminates realtime change-feed events.
type ChangeKind string

const (
	ChangeInsert ChangeKind = "insert"
	ChangeUpdate ChangeKind = "update"
	ChangeDelete ChangeKind = "delete"
)

// ChangeEvent is one notification from the realtime transport. Insert and
// update events carry the canonical message record; delete events carry only
// the id of the removed message.
type ChangeEvent struct {
	Kind      ChangeKind         `json:"kind"`
	ChannelID primitive.ObjectID `json:"channel_id"`
	MessageID primitive.ObjectID `json:"message_id"`
	Message   *Message           `json:"message,omitempty"`
	At        time.Time          `json:"at"`
}

// KafkaEnvelope is the wire shape of change-feed records on the broker.
// Pattern follows the "message.sent" / "message.updated" / "message.deleted"
// naming of the upstream chat pipeline.
type KafkaEnvelope struct {
	Pattern string          `json:"pattern"`
	Data    KafkaChangeData `json:"data"`
}

type KafkaChangeData struct {
	ChannelID string   `json:"channel_id" validate:"required"`
	MessageID string   `json:"message_id" validate:"required"`
	AuthorID  string   `json:"author_id"`
	Body      string   `json:"body"`
	ParentID  string   `json:"parent_id"`
	Pinned    bool     `json:"pinned"`
	CreatedAt int64    `json:"created_at"`
	EditedAt  *int64   `json:"edited_at"`
	Metadata  Metadata `json:"metadata"`
}

type Metadata map[string]any
