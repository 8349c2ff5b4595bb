package sync

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/tranbn/slackline/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Synchronizer owns the message sequence of one active channel. All entry
// points are serialized by an internal mutex, so no two mutations interleave
// mid-update; the store round trips of Send and LoadChannel happen outside
// the critical section and a channel-switch epoch discards their results if
// they resolve after the channel changed.
type Synchronizer struct {
	opts    Options
	store   Store
	sub     Subscriber
	session Session
	now     func() time.Time

	mu          sync.Mutex
	channelID   primitive.ObjectID
	epoch       uint64
	loading     bool
	seq         []*models.Message
	present     map[primitive.ObjectID]struct{}
	pending     *ledger
	lastSendAt  time.Time
	inFlight    bool
	unsubscribe func()
}

func New(store Store, sub Subscriber, session Session, opts Options) *Synchronizer {
	opts = opts.withDefaults()
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Synchronizer{
		opts:    opts,
		store:   store,
		sub:     sub,
		session: session,
		now:     now,
		present: make(map[primitive.ObjectID]struct{}),
		pending: newLedger(opts.PendingTTL),
	}
}

// LoadChannel discards any prior channel state, attaches the realtime
// subscription and populates the sequence from a full fetch. On fetch
// failure the sequence is left empty, loading is cleared and the caller may
// retry.
func (s *Synchronizer) LoadChannel(ctx context.Context, channelID primitive.ObjectID) error {
	s.mu.Lock()
	s.teardownLocked()
	s.channelID = channelID
	s.epoch++
	epoch := s.epoch
	s.loading = true
	s.mu.Unlock()

	if s.sub != nil {
		unsub, err := s.sub.Subscribe(channelID, s.OnRemoteEvent)
		if err != nil {
			s.mu.Lock()
			defer s.mu.Unlock()
			if s.epoch == epoch {
				s.loading = false
			}
			return &FetchError{ChannelID: channelID, Err: err}
		}
		s.mu.Lock()
		if s.epoch != epoch {
			s.mu.Unlock()
			unsub()
			return nil
		}
		s.unsubscribe = unsub
		s.mu.Unlock()
	}

	msgs, err := s.store.FetchMessages(ctx, channelID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		// Channel switched while the fetch was in flight; drop the result.
		return nil
	}
	s.loading = false
	if err != nil {
		return &FetchError{ChannelID: channelID, Err: err}
	}
	// Realtime inserts may have landed during the fetch; ordered insert
	// with dedup merges both.
	for _, m := range msgs {
		s.insertLocked(m)
	}
	return nil
}

// SwitchChannel tears down the previous channel's subscription and pending
// state, then loads the new one.
func (s *Synchronizer) SwitchChannel(ctx context.Context, channelID primitive.ObjectID) error {
	return s.LoadChannel(ctx, channelID)
}

// Send forwards a local send to the store and, on acknowledgment, appends
// the canonical message to the visible sequence before the realtime echo
// arrives. The rate gate and the single-flight gate are checked first and
// reject without any network effect.
func (s *Synchronizer) Send(ctx context.Context, body string, parentID *primitive.ObjectID, attachments ...models.Attachment) (*models.Message, error) {
	s.mu.Lock()
	if s.session.UserID.IsZero() {
		s.mu.Unlock()
		return nil, ErrNotAuthenticated
	}
	if s.channelID.IsZero() {
		s.mu.Unlock()
		return nil, ErrNoChannel
	}
	if strings.TrimSpace(body) == "" && len(attachments) == 0 {
		s.mu.Unlock()
		return nil, ErrEmptyMessage
	}
	now := s.now()
	if !s.lastSendAt.IsZero() && now.Sub(s.lastSendAt) < s.opts.MinSendInterval {
		s.mu.Unlock()
		return nil, ErrRateLimited
	}
	if s.inFlight {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	prevSendAt := s.lastSendAt
	s.lastSendAt = now
	s.inFlight = true
	epoch := s.epoch
	params := CreateMessageParams{
		ChannelID:   s.channelID,
		AuthorID:    s.session.UserID,
		Body:        body,
		ParentID:    parentID,
		Attachments: attachments,
	}
	s.mu.Unlock()

	sendCtx, cancel := context.WithTimeout(ctx, s.opts.SendTimeout)
	defer cancel()
	msg, err := s.store.CreateMessage(sendCtx, params)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch == epoch {
		s.inFlight = false
	}
	if err != nil {
		if s.epoch == epoch {
			// Release the rate gate so the user can retry immediately.
			s.lastSendAt = prevSendAt
		}
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			// The write may still land in the background; the caller only
			// stops waiting.
			return nil, ErrTimeout
		}
		return nil, &SendError{Err: err}
	}
	if s.epoch != epoch {
		// The canonical write stands, but the local view moved on.
		return msg, nil
	}
	s.pending.add(msg.ID, s.now())
	if msg.Author == nil {
		msg.Author = &models.Profile{
			DisplayName: s.session.DisplayName,
			Avatar:      s.session.Avatar,
		}
	}
	s.insertLocked(msg)
	return msg, nil
}

// OnRemoteEvent applies one change-feed notification. Inserts that echo a
// local send (id in the pending ledger or already visible) are discarded;
// updates patch the mutable fields in place; deletes for unknown ids are
// no-ops.
func (s *Synchronizer) OnRemoteEvent(ev models.ChangeEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.channelID.IsZero() || (!ev.ChannelID.IsZero() && ev.ChannelID != s.channelID) {
		return
	}
	switch ev.Kind {
	case models.ChangeInsert:
		if ev.Message == nil {
			return
		}
		if s.pending.contains(ev.Message.ID, s.now()) {
			return
		}
		s.insertLocked(ev.Message)
	case models.ChangeUpdate:
		if ev.Message == nil {
			return
		}
		if cur := s.findLocked(ev.Message.ID); cur != nil {
			cur.Body = ev.Message.Body
			cur.EditedAt = ev.Message.EditedAt
			cur.Pinned = ev.Message.Pinned
			cur.UpdatedAt = ev.Message.UpdatedAt
		}
	case models.ChangeDelete:
		s.removeLocked(ev.MessageID)
	}
}

// Messages returns a snapshot of the visible sequence in ascending
// created_at order.
func (s *Synchronizer) Messages() []*models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.Message, len(s.seq))
	copy(out, s.seq)
	return out
}

func (s *Synchronizer) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

func (s *Synchronizer) ChannelID() primitive.ObjectID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.channelID
}

// PendingSends reports how many local sends still await their echo.
func (s *Synchronizer) PendingSends() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending.sweep(s.now())
	return s.pending.size()
}

// Close detaches the subscription and drops all channel state.
func (s *Synchronizer) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teardownLocked()
	s.channelID = primitive.NilObjectID
	s.epoch++
}

// insertLocked places m at its time-ordered position, keeping insertion
// order for equal timestamps and refusing duplicates by id.
func (s *Synchronizer) insertLocked(m *models.Message) bool {
	if _, ok := s.present[m.ID]; ok {
		return false
	}
	i := len(s.seq)
	for i > 0 && s.seq[i-1].CreatedAt.After(m.CreatedAt) {
		i--
	}
	s.seq = append(s.seq, nil)
	copy(s.seq[i+1:], s.seq[i:])
	s.seq[i] = m
	s.present[m.ID] = struct{}{}
	return true
}

func (s *Synchronizer) findLocked(id primitive.ObjectID) *models.Message {
	if _, ok := s.present[id]; !ok {
		return nil
	}
	for _, m := range s.seq {
		if m.ID == id {
			return m
		}
	}
	return nil
}

func (s *Synchronizer) removeLocked(id primitive.ObjectID) {
	if _, ok := s.present[id]; !ok {
		return
	}
	delete(s.present, id)
	for i, m := range s.seq {
		if m.ID == id {
			s.seq = append(s.seq[:i], s.seq[i+1:]...)
			return
		}
	}
}

func (s *Synchronizer) teardownLocked() {
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
	s.seq = nil
	s.present = make(map[primitive.ObjectID]struct{})
	s.pending.reset()
	s.lastSendAt = time.Time{}
	s.inFlight = false
	s.loading = false
}
