package sync

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ledger tracks ids of locally-originated sends that are waiting for (or
// have just received) their realtime echo. While an id is here, an incoming
// insert event for it is the client's own echo and must not produce a
// second visible entry. Entries expire after the configured TTL.
type ledger struct {
	ttl     time.Duration
	expires map[primitive.ObjectID]time.Time
}

func newLedger(ttl time.Duration) *ledger {
	return &ledger{
		ttl:     ttl,
		expires: make(map[primitive.ObjectID]time.Time),
	}
}

func (l *ledger) add(id primitive.ObjectID, now time.Time) {
	l.sweep(now)
	l.expires[id] = now.Add(l.ttl)
}

func (l *ledger) contains(id primitive.ObjectID, now time.Time) bool {
	exp, ok := l.expires[id]
	if !ok {
		return false
	}
	if now.After(exp) {
		delete(l.expires, id)
		return false
	}
	return true
}

func (l *ledger) sweep(now time.Time) {
	for id, exp := range l.expires {
		if now.After(exp) {
			delete(l.expires, id)
		}
	}
}

func (l *ledger) reset() {
	l.expires = make(map[primitive.ObjectID]time.Time)
}

func (l *ledger) size() int { return len(l.expires) }
