package sync_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tranbn/slackline/internal/models"
	"github.com/tranbn/slackline/internal/sync"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type fakeStore struct {
	fetched     []*models.Message
	fetchErr    error
	createErr   error
	createCalls atomic.Int64
	created     *models.Message
	onCreate    func(params sync.CreateMessageParams) *models.Message
}

func (s *fakeStore) FetchMessages(ctx context.Context, channelID primitive.ObjectID) ([]*models.Message, error) {
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	return s.fetched, nil
}

func (s *fakeStore) CreateMessage(ctx context.Context, params sync.CreateMessageParams) (*models.Message, error) {
	s.createCalls.Add(1)
	if s.createErr != nil {
		return nil, s.createErr
	}
	if s.onCreate != nil {
		s.created = s.onCreate(params)
	}
	if s.created == nil {
		s.created = &models.Message{
			ID:        primitive.NewObjectID(),
			ChannelID: params.ChannelID,
			AuthorID:  params.AuthorID,
			Body:      params.Body,
			ParentID:  params.ParentID,
			CreatedAt: time.Now(),
		}
	}
	return s.created, nil
}

type fakeSubscriber struct {
	unsubCount atomic.Int64
	handler    func(models.ChangeEvent)
}

func (f *fakeSubscriber) Subscribe(channelID primitive.ObjectID, fn func(models.ChangeEvent)) (func(), error) {
	f.handler = fn
	return func() { f.unsubCount.Add(1) }, nil
}

func msgAt(channelID primitive.ObjectID, at time.Time) *models.Message {
	return &models.Message{
		ID:        primitive.NewObjectID(),
		ChannelID: channelID,
		AuthorID:  primitive.NewObjectID(),
		Body:      "hello",
		CreatedAt: at,
	}
}

func newTestSynchronizer(store sync.Store, sub sync.Subscriber, clock *fakeClock) *sync.Synchronizer {
	session := sync.Session{
		UserID:      primitive.NewObjectID(),
		DisplayName: "alice",
	}
	return sync.New(store, sub, session, sync.Options{Now: clock.Now})
}

func TestLoadChannel(t *testing.T) {
	t.Parallel()
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	t.Run("populates sequence in ascending order", func(t *testing.T) {
		channelID := primitive.NewObjectID()
		store := &fakeStore{fetched: []*models.Message{
			msgAt(channelID, base),
			msgAt(channelID, base.Add(time.Minute)),
			msgAt(channelID, base.Add(2*time.Minute)),
		}}
		s := newTestSynchronizer(store, &fakeSubscriber{}, newFakeClock())

		require.NoError(t, s.LoadChannel(t.Context(), channelID))

		msgs := s.Messages()
		require.Len(t, msgs, 3)
		for i := 1; i < len(msgs); i++ {
			assert.False(t, msgs[i].CreatedAt.Before(msgs[i-1].CreatedAt))
		}
		assert.False(t, s.Loading())
	})

	t.Run("fetch failure leaves sequence empty and clears loading", func(t *testing.T) {
		store := &fakeStore{fetchErr: errors.New("connection refused")}
		s := newTestSynchronizer(store, &fakeSubscriber{}, newFakeClock())

		err := s.LoadChannel(t.Context(), primitive.NewObjectID())
		var fetchErr *sync.FetchError
		require.ErrorAs(t, err, &fetchErr)
		assert.Empty(t, s.Messages())
		assert.False(t, s.Loading())
	})

	t.Run("switch tears down previous subscription", func(t *testing.T) {
		channelID := primitive.NewObjectID()
		sub := &fakeSubscriber{}
		store := &fakeStore{}
		s := newTestSynchronizer(store, sub, newFakeClock())

		require.NoError(t, s.LoadChannel(t.Context(), channelID))
		require.NoError(t, s.SwitchChannel(t.Context(), primitive.NewObjectID()))
		assert.Equal(t, int64(1), sub.unsubCount.Load())
	})
}

func TestSendDedup(t *testing.T) {
	t.Parallel()

	// Fetch returns two messages, a send returns a third, then the realtime
	// echo of the sent id arrives. The final sequence must hold exactly
	// three entries with no duplicate.
	channelID := primitive.NewObjectID()
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	first := msgAt(channelID, base.Add(100*time.Millisecond))
	second := msgAt(channelID, base.Add(200*time.Millisecond))
	store := &fakeStore{fetched: []*models.Message{first, second}}
	store.onCreate = func(params sync.CreateMessageParams) *models.Message {
		return &models.Message{
			ID:        primitive.NewObjectID(),
			ChannelID: params.ChannelID,
			AuthorID:  params.AuthorID,
			Body:      params.Body,
			CreatedAt: base.Add(250 * time.Millisecond),
		}
	}
	sub := &fakeSubscriber{}
	s := newTestSynchronizer(store, sub, newFakeClock())

	require.NoError(t, s.LoadChannel(t.Context(), channelID))
	sent, err := s.Send(t.Context(), "hi", nil)
	require.NoError(t, err)
	require.Len(t, s.Messages(), 3)

	// Remote echo of our own send.
	sub.handler(models.ChangeEvent{
		Kind:      models.ChangeInsert,
		ChannelID: channelID,
		MessageID: sent.ID,
		Message:   sent,
	})

	msgs := s.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, first.ID, msgs[0].ID)
	assert.Equal(t, second.ID, msgs[1].ID)
	assert.Equal(t, sent.ID, msgs[2].ID)
	assert.Equal(t, 1, s.PendingSends())
}

func TestSendGates(t *testing.T) {
	t.Parallel()

	t.Run("rate gate rejects a second send within the window", func(t *testing.T) {
		channelID := primitive.NewObjectID()
		clock := newFakeClock()
		store := &fakeStore{}
		s := newTestSynchronizer(store, &fakeSubscriber{}, clock)
		require.NoError(t, s.LoadChannel(t.Context(), channelID))

		_, err := s.Send(t.Context(), "first", nil)
		require.NoError(t, err)

		clock.Advance(100 * time.Millisecond)
		_, err = s.Send(t.Context(), "second", nil)
		assert.ErrorIs(t, err, sync.ErrRateLimited)
		assert.Equal(t, int64(1), store.createCalls.Load())

		clock.Advance(400 * time.Millisecond)
		store.created = nil
		_, err = s.Send(t.Context(), "third", nil)
		assert.NoError(t, err)
		assert.Equal(t, int64(2), store.createCalls.Load())
	})

	t.Run("single flight rejects while a send is unresolved", func(t *testing.T) {
		channelID := primitive.NewObjectID()
		clock := newFakeClock()
		started := make(chan struct{})
		release := make(chan struct{})
		store := &blockingStore{started: started, release: release}
		s := newTestSynchronizer(store, &fakeSubscriber{}, clock)
		require.NoError(t, s.LoadChannel(t.Context(), channelID))

		done := make(chan error, 1)
		go func() {
			_, err := s.Send(t.Context(), "slow", nil)
			done <- err
		}()
		<-started

		// Past the rate window, so only the single-flight gate can reject.
		clock.Advance(time.Second)
		_, err := s.Send(t.Context(), "fast", nil)
		assert.ErrorIs(t, err, sync.ErrBusy)

		close(release)
		require.NoError(t, <-done)
	})

	t.Run("empty body without attachments is rejected", func(t *testing.T) {
		s := newTestSynchronizer(&fakeStore{}, &fakeSubscriber{}, newFakeClock())
		require.NoError(t, s.LoadChannel(t.Context(), primitive.NewObjectID()))
		_, err := s.Send(t.Context(), "   ", nil)
		assert.ErrorIs(t, err, sync.ErrEmptyMessage)
	})

	t.Run("send without a channel is rejected", func(t *testing.T) {
		s := newTestSynchronizer(&fakeStore{}, &fakeSubscriber{}, newFakeClock())
		_, err := s.Send(t.Context(), "hi", nil)
		assert.ErrorIs(t, err, sync.ErrNoChannel)
	})

	t.Run("unauthenticated session is rejected", func(t *testing.T) {
		s := sync.New(&fakeStore{}, &fakeSubscriber{}, sync.Session{}, sync.Options{})
		_, err := s.Send(t.Context(), "hi", nil)
		assert.ErrorIs(t, err, sync.ErrNotAuthenticated)
	})

	t.Run("store failure releases the gates", func(t *testing.T) {
		channelID := primitive.NewObjectID()
		clock := newFakeClock()
		store := &fakeStore{createErr: errors.New("insert denied")}
		s := newTestSynchronizer(store, &fakeSubscriber{}, clock)
		require.NoError(t, s.LoadChannel(t.Context(), channelID))

		_, err := s.Send(t.Context(), "doomed", nil)
		var sendErr *sync.SendError
		require.ErrorAs(t, err, &sendErr)
		assert.Empty(t, s.Messages())

		// Retry right away: rate gate was rolled back on failure.
		store.createErr = nil
		_, err = s.Send(t.Context(), "retry", nil)
		assert.NoError(t, err)
	})

	t.Run("deadline surfaces as timeout", func(t *testing.T) {
		channelID := primitive.NewObjectID()
		store := &fakeStore{createErr: context.DeadlineExceeded}
		s := newTestSynchronizer(store, &fakeSubscriber{}, newFakeClock())
		require.NoError(t, s.LoadChannel(t.Context(), channelID))

		_, err := s.Send(t.Context(), "slow", nil)
		assert.ErrorIs(t, err, sync.ErrTimeout)
	})
}

// blockingStore parks CreateMessage until released, to hold a send in
// flight across another call.
type blockingStore struct {
	started chan struct{}
	release chan struct{}
}

func (s *blockingStore) FetchMessages(ctx context.Context, channelID primitive.ObjectID) ([]*models.Message, error) {
	return nil, nil
}

func (s *blockingStore) CreateMessage(ctx context.Context, params sync.CreateMessageParams) (*models.Message, error) {
	close(s.started)
	<-s.release
	return &models.Message{
		ID:        primitive.NewObjectID(),
		ChannelID: params.ChannelID,
		AuthorID:  params.AuthorID,
		Body:      params.Body,
		CreatedAt: time.Now(),
	}, nil
}

// blockingFetchStore parks the first FetchMessages until released, so a
// channel switch can race with a fetch still in flight.
type blockingFetchStore struct {
	fakeStore
	started chan struct{}
	release chan struct{}
	byChan  map[primitive.ObjectID][]*models.Message
	calls   atomic.Int64
}

func (s *blockingFetchStore) FetchMessages(ctx context.Context, channelID primitive.ObjectID) ([]*models.Message, error) {
	if s.calls.Add(1) == 1 {
		close(s.started)
		<-s.release
	}
	return s.byChan[channelID], nil
}

func TestChannelSwitchDiscardsStaleResults(t *testing.T) {
	t.Parallel()
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	t.Run("fetch resolving after a switch never lands", func(t *testing.T) {
		oldChan := primitive.NewObjectID()
		newChan := primitive.NewObjectID()
		stale := msgAt(oldChan, base)
		fresh := msgAt(newChan, base.Add(time.Minute))
		store := &blockingFetchStore{
			started: make(chan struct{}),
			release: make(chan struct{}),
			byChan: map[primitive.ObjectID][]*models.Message{
				oldChan: {stale},
				newChan: {fresh},
			},
		}
		s := newTestSynchronizer(store, &fakeSubscriber{}, newFakeClock())

		done := make(chan error, 1)
		go func() {
			done <- s.LoadChannel(t.Context(), oldChan)
		}()
		<-store.started

		require.NoError(t, s.SwitchChannel(t.Context(), newChan))
		close(store.release)
		require.NoError(t, <-done)

		assert.Equal(t, newChan, s.ChannelID())
		msgs := s.Messages()
		require.Len(t, msgs, 1)
		assert.Equal(t, fresh.ID, msgs[0].ID)
		assert.False(t, s.Loading())
	})

	t.Run("send resolving after a switch does not insert", func(t *testing.T) {
		oldChan := primitive.NewObjectID()
		newChan := primitive.NewObjectID()
		store := &blockingStore{started: make(chan struct{}), release: make(chan struct{})}
		s := newTestSynchronizer(store, &fakeSubscriber{}, newFakeClock())
		require.NoError(t, s.LoadChannel(t.Context(), oldChan))

		type result struct {
			msg *models.Message
			err error
		}
		done := make(chan result, 1)
		go func() {
			m, err := s.Send(t.Context(), "late", nil)
			done <- result{msg: m, err: err}
		}()
		<-store.started

		require.NoError(t, s.SwitchChannel(t.Context(), newChan))
		close(store.release)
		res := <-done
		require.NoError(t, res.err)
		require.NotNil(t, res.msg)
		assert.Equal(t, oldChan, res.msg.ChannelID)

		// The canonical write stands, but the new channel's view stays clean.
		assert.Equal(t, newChan, s.ChannelID())
		assert.Empty(t, s.Messages())
		assert.Zero(t, s.PendingSends())
	})
}

func TestOnRemoteEvent(t *testing.T) {
	t.Parallel()
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	setup := func(t *testing.T) (*sync.Synchronizer, *fakeSubscriber, primitive.ObjectID, []*models.Message) {
		t.Helper()
		channelID := primitive.NewObjectID()
		fetched := []*models.Message{
			msgAt(channelID, base),
			msgAt(channelID, base.Add(time.Minute)),
		}
		sub := &fakeSubscriber{}
		s := newTestSynchronizer(&fakeStore{fetched: fetched}, sub, newFakeClock())
		require.NoError(t, s.LoadChannel(t.Context(), channelID))
		return s, sub, channelID, fetched
	}

	t.Run("insert lands in time order regardless of arrival order", func(t *testing.T) {
		s, sub, channelID, fetched := setup(t)
		late := msgAt(channelID, base.Add(2*time.Minute))
		early := msgAt(channelID, base.Add(30*time.Second))
		sub.handler(models.ChangeEvent{Kind: models.ChangeInsert, ChannelID: channelID, Message: late})
		sub.handler(models.ChangeEvent{Kind: models.ChangeInsert, ChannelID: channelID, Message: early})

		msgs := s.Messages()
		require.Len(t, msgs, 4)
		assert.Equal(t, fetched[0].ID, msgs[0].ID)
		assert.Equal(t, early.ID, msgs[1].ID)
		assert.Equal(t, fetched[1].ID, msgs[2].ID)
		assert.Equal(t, late.ID, msgs[3].ID)
	})

	t.Run("equal timestamps keep insertion order", func(t *testing.T) {
		s, sub, channelID, _ := setup(t)
		a := msgAt(channelID, base.Add(5*time.Minute))
		b := msgAt(channelID, base.Add(5*time.Minute))
		sub.handler(models.ChangeEvent{Kind: models.ChangeInsert, ChannelID: channelID, Message: a})
		sub.handler(models.ChangeEvent{Kind: models.ChangeInsert, ChannelID: channelID, Message: b})

		msgs := s.Messages()
		require.Len(t, msgs, 4)
		assert.Equal(t, a.ID, msgs[2].ID)
		assert.Equal(t, b.ID, msgs[3].ID)
	})

	t.Run("duplicate insert is discarded", func(t *testing.T) {
		s, sub, channelID, fetched := setup(t)
		sub.handler(models.ChangeEvent{Kind: models.ChangeInsert, ChannelID: channelID, Message: fetched[0]})
		assert.Len(t, s.Messages(), 2)
	})

	t.Run("update patches mutable fields in place", func(t *testing.T) {
		s, sub, channelID, fetched := setup(t)
		editedAt := base.Add(10 * time.Minute)
		patched := *fetched[0]
		patched.Body = "edited"
		patched.Pinned = true
		patched.EditedAt = &editedAt
		sub.handler(models.ChangeEvent{Kind: models.ChangeUpdate, ChannelID: channelID, MessageID: patched.ID, Message: &patched})

		msgs := s.Messages()
		require.Len(t, msgs, 2)
		assert.Equal(t, "edited", msgs[0].Body)
		assert.True(t, msgs[0].Pinned)
		require.NotNil(t, msgs[0].EditedAt)
		assert.Equal(t, editedAt, *msgs[0].EditedAt)
	})

	t.Run("update for unknown id is a no-op", func(t *testing.T) {
		s, sub, channelID, _ := setup(t)
		ghost := msgAt(channelID, base.Add(time.Hour))
		sub.handler(models.ChangeEvent{Kind: models.ChangeUpdate, ChannelID: channelID, MessageID: ghost.ID, Message: ghost})
		assert.Len(t, s.Messages(), 2)
	})

	t.Run("delete removes the entry", func(t *testing.T) {
		s, sub, channelID, fetched := setup(t)
		sub.handler(models.ChangeEvent{Kind: models.ChangeDelete, ChannelID: channelID, MessageID: fetched[1].ID})

		msgs := s.Messages()
		require.Len(t, msgs, 1)
		assert.Equal(t, fetched[0].ID, msgs[0].ID)
	})

	t.Run("delete for an absent id is a no-op", func(t *testing.T) {
		s, sub, channelID, _ := setup(t)
		sub.handler(models.ChangeEvent{Kind: models.ChangeDelete, ChannelID: channelID, MessageID: primitive.NewObjectID()})
		assert.Len(t, s.Messages(), 2)
	})

	t.Run("event for another channel is ignored", func(t *testing.T) {
		s, sub, _, _ := setup(t)
		other := primitive.NewObjectID()
		sub.handler(models.ChangeEvent{Kind: models.ChangeInsert, ChannelID: other, Message: msgAt(other, base.Add(time.Hour))})
		assert.Len(t, s.Messages(), 2)
	})
}

func TestPendingLedgerExpiry(t *testing.T) {
	t.Parallel()

	channelID := primitive.NewObjectID()
	clock := newFakeClock()
	store := &fakeStore{}
	sub := &fakeSubscriber{}
	s := newTestSynchronizer(store, sub, clock)
	require.NoError(t, s.LoadChannel(t.Context(), channelID))

	sent, err := s.Send(t.Context(), "hi", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, s.PendingSends())

	clock.Advance(6 * time.Second)
	assert.Equal(t, 0, s.PendingSends())

	// Even after ledger expiry, the echo is deduplicated by presence in
	// the sequence.
	sub.handler(models.ChangeEvent{Kind: models.ChangeInsert, ChannelID: channelID, MessageID: sent.ID, Message: sent})
	assert.Len(t, s.Messages(), 1)
}
