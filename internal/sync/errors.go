package sync

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	// ErrRateLimited rejects a send arriving before the rate gate reopens.
	// Local policy, not a store failure; callers usually swallow it.
	ErrRateLimited = errors.New("send rejected: too soon after previous send")

	// ErrBusy rejects a send while another send on the channel is still in
	// flight.
	ErrBusy = errors.New("send rejected: another send in flight")

	// ErrTimeout means the store did not acknowledge the send within the
	// configured window. The write may still land; the caller should stop
	// waiting but must not assume failure.
	ErrTimeout = errors.New("send timed out waiting for the store")

	ErrNotAuthenticated = errors.New("no authenticated session")
	ErrNoChannel        = errors.New("no active channel")
	ErrEmptyMessage     = errors.New("message needs a body or an attachment")
)

// FetchError wraps a failed bulk fetch. The sequence is left empty and the
// caller may retry LoadChannel.
type FetchError struct {
	ChannelID primitive.ObjectID
	Err       error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch messages for channel %s: %v", e.ChannelID.Hex(), e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// SendError wraps a store rejection of a send. No provisional entry was
// added; the user may retry.
type SendError struct {
	Err error
}

func (e *SendError) Error() string { return fmt.Sprintf("send message: %v", e.Err) }

func (e *SendError) Unwrap() error { return e.Err }
