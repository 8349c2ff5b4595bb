package realtime_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tranbn/slackline/internal/models"
	"github.com/tranbn/slackline/internal/repo/realtime"
)

func TestDispatcher(t *testing.T) {
	t.Parallel()

	t.Run("delivers to channel subscribers only", func(t *testing.T) {
		t.Parallel()
		d := realtime.NewDispatcher()
		chanA := primitive.NewObjectID()
		chanB := primitive.NewObjectID()

		var gotA, gotB []models.ChangeEvent
		_, err := d.Subscribe(chanA, func(ev models.ChangeEvent) { gotA = append(gotA, ev) })
		require.NoError(t, err)
		_, err = d.Subscribe(chanB, func(ev models.ChangeEvent) { gotB = append(gotB, ev) })
		require.NoError(t, err)

		d.Publish(models.ChangeEvent{Kind: models.ChangeInsert, ChannelID: chanA})

		require.Len(t, gotA, 1)
		assert.Equal(t, models.ChangeInsert, gotA[0].Kind)
		assert.Empty(t, gotB)
	})

	t.Run("fans out to every subscriber of a channel", func(t *testing.T) {
		t.Parallel()
		d := realtime.NewDispatcher()
		channelID := primitive.NewObjectID()

		count := 0
		for i := 0; i < 3; i++ {
			_, err := d.Subscribe(channelID, func(models.ChangeEvent) { count++ })
			require.NoError(t, err)
		}

		d.Publish(models.ChangeEvent{ChannelID: channelID})
		assert.Equal(t, 3, count)
	})

	t.Run("unsubscribe stops delivery", func(t *testing.T) {
		t.Parallel()
		d := realtime.NewDispatcher()
		channelID := primitive.NewObjectID()

		count := 0
		unsubscribe, err := d.Subscribe(channelID, func(models.ChangeEvent) { count++ })
		require.NoError(t, err)

		d.Publish(models.ChangeEvent{ChannelID: channelID})
		unsubscribe()
		d.Publish(models.ChangeEvent{ChannelID: channelID})

		assert.Equal(t, 1, count)
	})

	t.Run("unsubscribe is idempotent", func(t *testing.T) {
		t.Parallel()
		d := realtime.NewDispatcher()
		channelID := primitive.NewObjectID()

		unsubscribe, err := d.Subscribe(channelID, func(models.ChangeEvent) {})
		require.NoError(t, err)
		unsubscribe()
		unsubscribe()

		d.Publish(models.ChangeEvent{ChannelID: channelID})
	})

	t.Run("publish without subscribers is a no-op", func(t *testing.T) {
		t.Parallel()
		d := realtime.NewDispatcher()
		d.Publish(models.ChangeEvent{ChannelID: primitive.NewObjectID()})
	})
}
