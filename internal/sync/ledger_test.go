package sync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestLedger(t *testing.T) {
	t.Parallel()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("contains within ttl", func(t *testing.T) {
		l := newLedger(5 * time.Second)
		id := primitive.NewObjectID()
		l.add(id, base)
		assert.True(t, l.contains(id, base))
		assert.True(t, l.contains(id, base.Add(5*time.Second)))
	})

	t.Run("expires after ttl", func(t *testing.T) {
		l := newLedger(5 * time.Second)
		id := primitive.NewObjectID()
		l.add(id, base)
		assert.False(t, l.contains(id, base.Add(5*time.Second+time.Millisecond)))
		assert.Equal(t, 0, l.size())
	})

	t.Run("add sweeps stale entries", func(t *testing.T) {
		l := newLedger(time.Second)
		stale := primitive.NewObjectID()
		l.add(stale, base)
		l.add(primitive.NewObjectID(), base.Add(time.Minute))
		assert.Equal(t, 1, l.size())
		assert.False(t, l.contains(stale, base.Add(time.Minute)))
	})

	t.Run("reset drops everything", func(t *testing.T) {
		l := newLedger(time.Second)
		id := primitive.NewObjectID()
		l.add(id, base)
		l.reset()
		assert.False(t, l.contains(id, base))
	})
}
