package sync_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tranbn/slackline/internal/models"
	"github.com/tranbn/slackline/internal/sync"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func reply(channelID, parentID, authorID primitive.ObjectID, at time.Time) *models.Message {
	return &models.Message{
		ID:        primitive.NewObjectID(),
		ChannelID: channelID,
		AuthorID:  authorID,
		ParentID:  &parentID,
		Body:      "re",
		CreatedAt: at,
	}
}

func TestProject(t *testing.T) {
	t.Parallel()
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	channelID := primitive.NewObjectID()

	t.Run("replies land under their root exactly once", func(t *testing.T) {
		root := msgAt(channelID, base)
		alice := primitive.NewObjectID()
		bob := primitive.NewObjectID()
		r1 := reply(channelID, root.ID, alice, base.Add(time.Minute))
		r2 := reply(channelID, root.ID, bob, base.Add(2*time.Minute))
		r3 := reply(channelID, root.ID, alice, base.Add(3*time.Minute))

		views := sync.Project([]*models.Message{root, r1, r2, r3})
		view, ok := views[root.ID]
		require.True(t, ok)
		require.Len(t, view.Replies, 3)
		assert.Equal(t, view.ReplyCount, len(view.Replies))
		assert.Equal(t, []primitive.ObjectID{r1.ID, r2.ID, r3.ID},
			[]primitive.ObjectID{view.Replies[0].ID, view.Replies[1].ID, view.Replies[2].ID})
		assert.Equal(t, []primitive.ObjectID{alice, bob}, view.Participants)
	})

	t.Run("replies are not thread roots", func(t *testing.T) {
		root := msgAt(channelID, base)
		r := reply(channelID, root.ID, primitive.NewObjectID(), base.Add(time.Minute))

		views := sync.Project([]*models.Message{root, r})
		assert.Len(t, views, 1)
		_, ok := views[r.ID]
		assert.False(t, ok)
	})

	t.Run("root without replies has empty view", func(t *testing.T) {
		root := msgAt(channelID, base)
		views := sync.Project([]*models.Message{root})
		view := views[root.ID]
		require.NotNil(t, view)
		assert.Zero(t, view.ReplyCount)
		assert.Empty(t, view.Replies)
		assert.Empty(t, view.Participants)
	})

	t.Run("orphaned reply stays out of every view", func(t *testing.T) {
		gone := primitive.NewObjectID()
		orphan := reply(channelID, gone, primitive.NewObjectID(), base)
		views := sync.Project([]*models.Message{orphan})
		assert.Empty(t, views)
	})

	t.Run("does not mutate its input", func(t *testing.T) {
		root := msgAt(channelID, base)
		r := reply(channelID, root.ID, primitive.NewObjectID(), base.Add(time.Minute))
		seq := []*models.Message{root, r}
		_ = sync.Project(seq)
		assert.Equal(t, root, seq[0])
		assert.Equal(t, r, seq[1])
	})
}

func TestReactionBoard(t *testing.T) {
	t.Parallel()

	t.Run("toggle flips exactly once per call", func(t *testing.T) {
		board := sync.NewReactionBoard()
		messageID := primitive.NewObjectID()
		userID := primitive.NewObjectID()

		assert.True(t, board.Toggle(messageID, userID, "thumbsup"))
		groups := board.Groups(messageID)
		require.Len(t, groups, 1)
		assert.Equal(t, 1, groups[0].Count)

		// Second identical call removes, net back to the original state.
		assert.False(t, board.Toggle(messageID, userID, "thumbsup"))
		assert.Empty(t, board.Groups(messageID))
	})

	t.Run("count always equals user set size", func(t *testing.T) {
		board := sync.NewReactionBoard()
		messageID := primitive.NewObjectID()
		u1, u2, u3 := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()
		board.Toggle(messageID, u1, "fire")
		board.Toggle(messageID, u2, "fire")
		board.Toggle(messageID, u3, "fire")
		board.Toggle(messageID, u2, "fire")

		groups := board.Groups(messageID)
		require.Len(t, groups, 1)
		assert.Equal(t, len(groups[0].Users), groups[0].Count)
		assert.Equal(t, []primitive.ObjectID{u1, u3}, groups[0].Users)
	})

	t.Run("one user may react with distinct emojis", func(t *testing.T) {
		board := sync.NewReactionBoard()
		messageID := primitive.NewObjectID()
		userID := primitive.NewObjectID()
		board.Toggle(messageID, userID, "thumbsup")
		board.Toggle(messageID, userID, "smile")

		groups := board.Groups(messageID)
		require.Len(t, groups, 2)
		assert.Equal(t, "thumbsup", groups[0].Emoji)
		assert.Equal(t, "smile", groups[1].Emoji)
	})

	t.Run("load replaces state and dedups rows", func(t *testing.T) {
		board := sync.NewReactionBoard()
		messageID := primitive.NewObjectID()
		userID := primitive.NewObjectID()
		rows := []*models.Reaction{
			{MessageID: messageID, UserID: userID, Emoji: "heart"},
			{MessageID: messageID, UserID: userID, Emoji: "heart"},
		}
		board.Load(rows)

		groups := board.Groups(messageID)
		require.Len(t, groups, 1)
		assert.Equal(t, 1, groups[0].Count)
	})

	t.Run("groups feed the fan-out payload shape", func(t *testing.T) {
		board := sync.NewReactionBoard()
		messageID := primitive.NewObjectID()
		u1, u2 := primitive.NewObjectID(), primitive.NewObjectID()
		board.Toggle(messageID, u1, "tada")
		board.Toggle(messageID, u2, "tada")

		// Aggregates travel by pointer all the way to the broadcast payload.
		var groups []*models.ReactionGroup = board.Groups(messageID)
		require.Len(t, groups, 1)
		assert.Equal(t, 2, groups[0].Count)

		// Snapshots are copies; mutating one must not corrupt the board.
		groups[0].Users[0] = primitive.NewObjectID()
		fresh := board.Groups(messageID)
		require.Len(t, fresh, 1)
		assert.Equal(t, []primitive.ObjectID{u1, u2}, fresh[0].Users)
	})

	t.Run("drop forgets a message", func(t *testing.T) {
		board := sync.NewReactionBoard()
		messageID := primitive.NewObjectID()
		board.Toggle(messageID, primitive.NewObjectID(), "eyes")
		board.Drop(messageID)
		assert.Empty(t, board.Groups(messageID))
	})
}
