package kafka

import (
	"context"
	"fmt"
	"time"

	log "github.com/carousell/ct-go/pkg/logger/log_context"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tranbn/slackline/internal/models"
	"github.com/tranbn/slackline/internal/repo/mongodb"
	"github.com/tranbn/slackline/internal/repo/realtime"
)

const (
	patternMessageSent    = "message.sent"
	patternMessageUpdated = "message.updated"
	patternMessageDeleted = "message.deleted"
)

// envelopeHandler turns broker records into change events and fans them out
// to the live channel view sessions of this instance.
type envelopeHandler struct {
	dispatcher realtime.Dispatcher
	channels   mongodb.ChannelRepository
}

func NewEnvelopeHandler(dispatcher realtime.Dispatcher, channels mongodb.ChannelRepository) EnvelopeHandler {
	return &envelopeHandler{
		dispatcher: dispatcher,
		channels:   channels,
	}
}

func (h *envelopeHandler) HandleEnvelope(ctx context.Context, envelope *models.KafkaEnvelope) error {
	ev, err := toChangeEvent(envelope)
	if err != nil {
		return fmt.Errorf("failed to convert envelope: %w", err)
	}
	if ev == nil {
		log.Debugw(ctx, "Ignoring unknown event pattern", "pattern", envelope.Pattern)
		return nil
	}

	if ev.Kind == models.ChangeInsert {
		if err := h.channels.UpdateLastMessage(ctx, ev.ChannelID); err != nil {
			// Fan-out still proceeds; the channel list ordering catches up
			// on the next message.
			log.Errorw(ctx, "Failed to bump channel last message", "error", err)
		}
	}

	h.dispatcher.Publish(*ev)
	return nil
}

func toChangeEvent(envelope *models.KafkaEnvelope) (*models.ChangeEvent, error) {
	var kind models.ChangeKind
	switch envelope.Pattern {
	case patternMessageSent:
		kind = models.ChangeInsert
	case patternMessageUpdated:
		kind = models.ChangeUpdate
	case patternMessageDeleted:
		kind = models.ChangeDelete
	default:
		return nil, nil
	}

	channelID, err := primitive.ObjectIDFromHex(envelope.Data.ChannelID)
	if err != nil {
		return nil, fmt.Errorf("bad channel id %q: %w", envelope.Data.ChannelID, err)
	}
	messageID, err := primitive.ObjectIDFromHex(envelope.Data.MessageID)
	if err != nil {
		return nil, fmt.Errorf("bad message id %q: %w", envelope.Data.MessageID, err)
	}

	ev := &models.ChangeEvent{
		Kind:      kind,
		ChannelID: channelID,
		MessageID: messageID,
		At:        time.Now(),
	}
	if kind == models.ChangeDelete {
		return ev, nil
	}

	msg := &models.Message{
		ID:        messageID,
		ChannelID: channelID,
		Body:      envelope.Data.Body,
		Pinned:    envelope.Data.Pinned,
		CreatedAt: time.UnixMilli(envelope.Data.CreatedAt),
		UpdatedAt: time.UnixMilli(envelope.Data.CreatedAt),
	}
	if envelope.Data.AuthorID != "" {
		authorID, err := primitive.ObjectIDFromHex(envelope.Data.AuthorID)
		if err != nil {
			return nil, fmt.Errorf("bad author id %q: %w", envelope.Data.AuthorID, err)
		}
		msg.AuthorID = authorID
	}
	if envelope.Data.ParentID != "" {
		parentID, err := primitive.ObjectIDFromHex(envelope.Data.ParentID)
		if err != nil {
			return nil, fmt.Errorf("bad parent id %q: %w", envelope.Data.ParentID, err)
		}
		msg.ParentID = &parentID
	}
	if envelope.Data.EditedAt != nil {
		editedAt := time.UnixMilli(*envelope.Data.EditedAt)
		msg.EditedAt = &editedAt
		msg.UpdatedAt = editedAt
	}
	ev.Message = msg
	return ev, nil
}
