package socket

import (
	"context"

	log "github.com/carousell/ct-go/pkg/logger/log_context"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tranbn/slackline/internal/models"
)

// Broadcaster fans chat events out to the live connections of specific
// users. Delivery is best effort: failures are logged, never surfaced to
// the operation that triggered them.
type Broadcaster struct {
	client *Client
}

func NewBroadcaster(client *Client) *Broadcaster {
	return &Broadcaster{client: client}
}

func (b *Broadcaster) send(ctx context.Context, events []Event) {
	if err := b.client.SendEvents(ctx, events); err != nil {
		log.Errorw(ctx, "failed to broadcast socket events", "error", err)
	}
}

func fanOut(userIDs []primitive.ObjectID, name string, data any) []Event {
	events := make([]Event, 0, len(userIDs))
	for _, userID := range userIDs {
		events = append(events, Event{
			UserID:   userID.Hex(),
			Platform: "web",
			Name:     name,
			Data:     data,
		})
	}
	return events
}

// MessageReceived notifies channel members about a new message.
func (b *Broadcaster) MessageReceived(ctx context.Context, userIDs []primitive.ObjectID, message *models.Message) {
	b.send(ctx, fanOut(userIDs, "message_received", message))
}

// MessageSent confirms a send back to its author.
func (b *Broadcaster) MessageSent(ctx context.Context, userID primitive.ObjectID, message *models.Message) {
	b.send(ctx, []Event{{
		UserID:   userID.Hex(),
		Platform: "web",
		Name:     "message_sent",
		Data:     message,
	}})
}

// MessageUpdated notifies channel members about an edit or a pin change.
func (b *Broadcaster) MessageUpdated(ctx context.Context, userIDs []primitive.ObjectID, message *models.Message) {
	b.send(ctx, fanOut(userIDs, "message_updated", message))
}

// MessageDeleted notifies channel members that a message was removed.
func (b *Broadcaster) MessageDeleted(ctx context.Context, userIDs []primitive.ObjectID, channelID, messageID primitive.ObjectID) {
	b.send(ctx, fanOut(userIDs, "message_deleted", map[string]any{
		"channel_id": channelID.Hex(),
		"message_id": messageID.Hex(),
	}))
}

// ReactionUpdated pushes the fresh reaction groups of one message.
func (b *Broadcaster) ReactionUpdated(ctx context.Context, userIDs []primitive.ObjectID, messageID primitive.ObjectID, groups []*models.ReactionGroup) {
	b.send(ctx, fanOut(userIDs, "reaction_updated", map[string]any{
		"message_id": messageID.Hex(),
		"reactions":  groups,
	}))
}

// Typing relays a typing indicator to everyone in the channel except the
// typist.
func (b *Broadcaster) Typing(ctx context.Context, userIDs []primitive.ObjectID, channelID, typistID primitive.ObjectID, isTyping bool) {
	name := "user_typing_stop"
	if isTyping {
		name = "user_typing_start"
	}

	events := make([]Event, 0, len(userIDs))
	for _, userID := range userIDs {
		if userID == typistID {
			continue
		}
		events = append(events, Event{
			UserID:   userID.Hex(),
			Platform: "web",
			Name:     name,
			Data: map[string]any{
				"user_id":    typistID.Hex(),
				"channel_id": channelID.Hex(),
				"is_typing":  isTyping,
			},
		})
	}
	b.send(ctx, events)
}

// PresenceChanged tells workspace members that a user went online, away or
// offline.
func (b *Broadcaster) PresenceChanged(ctx context.Context, userIDs []primitive.ObjectID, userID primitive.ObjectID, presence string) {
	b.send(ctx, fanOut(userIDs, "presence_changed", map[string]any{
		"user_id":  userID.Hex(),
		"presence": presence,
	}))
}

// MemberJoined notifies channel members that a user joined the channel.
func (b *Broadcaster) MemberJoined(ctx context.Context, userIDs []primitive.ObjectID, channelID, joinedUserID primitive.ObjectID) {
	b.send(ctx, fanOut(userIDs, "user_joined", map[string]any{
		"channel_id": channelID.Hex(),
		"user_id":    joinedUserID.Hex(),
	}))
}

// MemberLeft notifies channel members that a user left the channel.
func (b *Broadcaster) MemberLeft(ctx context.Context, userIDs []primitive.ObjectID, channelID, leftUserID primitive.ObjectID) {
	b.send(ctx, fanOut(userIDs, "user_left", map[string]any{
		"channel_id": channelID.Hex(),
		"user_id":    leftUserID.Hex(),
	}))
}
