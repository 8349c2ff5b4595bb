package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/tranbn/slackline/internal/config"
	"github.com/tranbn/slackline/internal/models"
	"github.com/tranbn/slackline/pkg/util"
)

// Publisher emits message change events to the broker. Every instance of
// the service consumes the same topic, so a change made here reaches the
// live sessions of all instances, including this one.
type Publisher interface {
	MessageSent(ctx context.Context, message *models.Message) error
	MessageUpdated(ctx context.Context, message *models.Message) error
	MessageDeleted(ctx context.Context, channelID, messageID string) error
	Close() error
}

type publisher struct {
	writer *kafka.Writer
}

func NewPublisher(cfg config.KafkaConfig) Publisher {
	return &publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
		},
	}
}

func (p *publisher) MessageSent(ctx context.Context, message *models.Message) error {
	return p.publish(ctx, patternMessageSent, toChangeData(message))
}

func (p *publisher) MessageUpdated(ctx context.Context, message *models.Message) error {
	return p.publish(ctx, patternMessageUpdated, toChangeData(message))
}

func (p *publisher) MessageDeleted(ctx context.Context, channelID, messageID string) error {
	return p.publish(ctx, patternMessageDeleted, models.KafkaChangeData{
		ChannelID: channelID,
		MessageID: messageID,
	})
}

func (p *publisher) publish(ctx context.Context, pattern string, data models.KafkaChangeData) error {
	envelope := models.KafkaEnvelope{
		Pattern: pattern,
		Data:    data,
	}
	value, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal envelope: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		// Keyed by channel so one channel's events stay ordered.
		Key:   []byte(data.ChannelID),
		Value: value,
	})
	if err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	return nil
}

func (p *publisher) Close() error {
	return p.writer.Close()
}

func toChangeData(message *models.Message) models.KafkaChangeData {
	data := models.KafkaChangeData{
		ChannelID: message.ChannelID.Hex(),
		MessageID: message.ID.Hex(),
		AuthorID:  message.AuthorID.Hex(),
		Body:      message.Body,
		Pinned:    message.Pinned,
		CreatedAt: message.CreatedAt.UnixMilli(),
	}
	if message.ParentID != nil {
		data.ParentID = message.ParentID.Hex()
	}
	if message.EditedAt != nil {
		data.EditedAt = util.Ptr(message.EditedAt.UnixMilli())
	}
	return data
}
