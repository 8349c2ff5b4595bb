package kafka

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tranbn/slackline/internal/models"
	"github.com/tranbn/slackline/pkg/util"
)

func TestToChangeEvent(t *testing.T) {
	t.Parallel()

	channelID := primitive.NewObjectID()
	messageID := primitive.NewObjectID()
	authorID := primitive.NewObjectID()
	parentID := primitive.NewObjectID()
	createdAt := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

	t.Run("message sent maps to insert", func(t *testing.T) {
		t.Parallel()
		ev, err := toChangeEvent(&models.KafkaEnvelope{
			Pattern: patternMessageSent,
			Data: models.KafkaChangeData{
				ChannelID: channelID.Hex(),
				MessageID: messageID.Hex(),
				AuthorID:  authorID.Hex(),
				Body:      "hello",
				CreatedAt: createdAt.UnixMilli(),
			},
		})
		require.NoError(t, err)
		require.NotNil(t, ev)
		assert.Equal(t, models.ChangeInsert, ev.Kind)
		assert.Equal(t, channelID, ev.ChannelID)
		assert.Equal(t, messageID, ev.MessageID)
		require.NotNil(t, ev.Message)
		assert.Equal(t, "hello", ev.Message.Body)
		assert.Equal(t, authorID, ev.Message.AuthorID)
		assert.True(t, ev.Message.CreatedAt.Equal(createdAt))
		assert.Nil(t, ev.Message.ParentID)
	})

	t.Run("reply carries parent id", func(t *testing.T) {
		t.Parallel()
		ev, err := toChangeEvent(&models.KafkaEnvelope{
			Pattern: patternMessageSent,
			Data: models.KafkaChangeData{
				ChannelID: channelID.Hex(),
				MessageID: messageID.Hex(),
				AuthorID:  authorID.Hex(),
				ParentID:  parentID.Hex(),
				Body:      "reply",
				CreatedAt: createdAt.UnixMilli(),
			},
		})
		require.NoError(t, err)
		require.NotNil(t, ev.Message.ParentID)
		assert.Equal(t, parentID, *ev.Message.ParentID)
	})

	t.Run("message updated maps to update with edit time", func(t *testing.T) {
		t.Parallel()
		editedAt := createdAt.Add(time.Minute)
		ev, err := toChangeEvent(&models.KafkaEnvelope{
			Pattern: patternMessageUpdated,
			Data: models.KafkaChangeData{
				ChannelID: channelID.Hex(),
				MessageID: messageID.Hex(),
				AuthorID:  authorID.Hex(),
				Body:      "edited",
				CreatedAt: createdAt.UnixMilli(),
				EditedAt:  util.Ptr(editedAt.UnixMilli()),
			},
		})
		require.NoError(t, err)
		assert.Equal(t, models.ChangeUpdate, ev.Kind)
		require.NotNil(t, ev.Message.EditedAt)
		assert.True(t, ev.Message.EditedAt.Equal(editedAt))
		assert.True(t, ev.Message.UpdatedAt.Equal(editedAt))
	})

	t.Run("message deleted carries ids only", func(t *testing.T) {
		t.Parallel()
		ev, err := toChangeEvent(&models.KafkaEnvelope{
			Pattern: patternMessageDeleted,
			Data: models.KafkaChangeData{
				ChannelID: channelID.Hex(),
				MessageID: messageID.Hex(),
			},
		})
		require.NoError(t, err)
		assert.Equal(t, models.ChangeDelete, ev.Kind)
		assert.Nil(t, ev.Message)
	})

	t.Run("unknown pattern is ignored", func(t *testing.T) {
		t.Parallel()
		ev, err := toChangeEvent(&models.KafkaEnvelope{
			Pattern: "user.joined",
			Data: models.KafkaChangeData{
				ChannelID: channelID.Hex(),
				MessageID: messageID.Hex(),
			},
		})
		require.NoError(t, err)
		assert.Nil(t, ev)
	})

	t.Run("bad channel id fails", func(t *testing.T) {
		t.Parallel()
		_, err := toChangeEvent(&models.KafkaEnvelope{
			Pattern: patternMessageSent,
			Data: models.KafkaChangeData{
				ChannelID: "nope",
				MessageID: messageID.Hex(),
			},
		})
		assert.Error(t, err)
	})
}
