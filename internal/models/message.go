package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message is a single channel message. The ID is assigned by the store on
// insert; clients never mint one before the write is acknowledged.
type Message struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	ChannelID primitive.ObjectID  `bson:"channel_id" json:"channel_id" validate:"required"`
	AuthorID  primitive.ObjectID  `bson:"author_id" json:"author_id" validate:"required"`
	Body      string              `bson:"body" json:"body"`
	ParentID  *primitive.ObjectID `bson:"parent_id,omitempty" json:"parent_id,omitempty"`
	Pinned    bool                `bson:"pinned" json:"pinned"`
	IsDeleted bool                `bson:"is_deleted" json:"-"`
	CreatedAt time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time           `bson:"updated_at" json:"updated_at"`
	EditedAt  *time.Time          `bson:"edited_at,omitempty" json:"edited_at,omitempty"`

	Attachments []Attachment `bson:"attachments,omitempty" json:"attachments,omitempty"`

	// Author is denormalized profile data joined in at read time, never
	// written back to the messages collection.
	Author *Profile `bson:"-" json:"author,omitempty"`
}

// IsReply reports whether the message belongs to a thread rather than the
// channel root timeline.
func (m *Message) IsReply() bool {
	return m.ParentID != nil && !m.ParentID.IsZero()
}

type Attachment struct {
	Name string `bson:"name" json:"name"`
	URL  string `bson:"url" json:"url" validate:"omitempty,url"`
	Type string `bson:"type" json:"type"`
	Size int64  `bson:"size" json:"size"`
}

// Profile is the display slice of a user carried alongside messages and
// member listings.
type Profile struct {
	DisplayName string `bson:"display_name" json:"display_name"`
	Avatar      string `bson:"avatar,omitempty" json:"avatar,omitempty"`
	Presence    string `bson:"presence,omitempty" json:"presence,omitempty"`
}
