// Package sync maintains the live, deduplicated message view of one chat
// channel. It reconciles three event sources into a single time-ordered
// sequence: the initial bulk fetch, locally-originated sends (inserted
// optimistically as soon as the store acknowledges), and change events
// delivered by the realtime transport. The store and the transport are
// plugged in through the Store and Subscriber ports.
package sync

import (
	"context"
	"time"

	"github.com/tranbn/slackline/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Store is the persistence boundary the synchronizer talks to. Both calls
// may block on the network; neither is retried here.
type Store interface {
	FetchMessages(ctx context.Context, channelID primitive.ObjectID) ([]*models.Message, error)
	CreateMessage(ctx context.Context, params CreateMessageParams) (*models.Message, error)
}

// CreateMessageParams carries a local send to the store. The store assigns
// the canonical id and created_at.
type CreateMessageParams struct {
	ChannelID   primitive.ObjectID
	AuthorID    primitive.ObjectID
	Body        string
	ParentID    *primitive.ObjectID
	Attachments []models.Attachment
}

// Subscriber attaches a callback to the realtime change feed of a channel.
// The returned func detaches it; it must be safe to call more than once.
type Subscriber interface {
	Subscribe(channelID primitive.ObjectID, fn func(models.ChangeEvent)) (func(), error)
}

// Session identifies the authenticated user stamping local sends.
type Session struct {
	UserID      primitive.ObjectID
	DisplayName string
	Avatar      string
}

// Options are the tunable windows of the send policy. The defaults match
// the product behavior; none of them is a derived invariant.
type Options struct {
	// MinSendInterval is the rate gate: a send arriving sooner than this
	// after the last accepted send is rejected with ErrRateLimited.
	MinSendInterval time.Duration
	// PendingTTL bounds how long a locally-sent id stays in the pending
	// ledger waiting for its realtime echo.
	PendingTTL time.Duration
	// SendTimeout caps the store round trip of one send.
	SendTimeout time.Duration
	// Now overrides the wall clock; nil means time.Now.
	Now func() time.Time
}

const (
	DefaultMinSendInterval = 500 * time.Millisecond
	DefaultPendingTTL      = 5 * time.Second
	DefaultSendTimeout     = 10 * time.Second
)

func (o Options) withDefaults() Options {
	if o.MinSendInterval <= 0 {
		o.MinSendInterval = DefaultMinSendInterval
	}
	if o.PendingTTL <= 0 {
		o.PendingTTL = DefaultPendingTTL
	}
	if o.SendTimeout <= 0 {
		o.SendTimeout = DefaultSendTimeout
	}
	return o
}
