// Package realtime fans change-feed events out to in-process subscribers.
// The kafka consumer publishes every message change here; live channel view
// sessions subscribe per channel.
package realtime

import (
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tranbn/slackline/internal/models"
)

type Dispatcher interface {
	Publish(ev models.ChangeEvent)
	Subscribe(channelID primitive.ObjectID, fn func(models.ChangeEvent)) (func(), error)
}

type dispatcher struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[primitive.ObjectID]map[uint64]func(models.ChangeEvent)
}

func NewDispatcher() Dispatcher {
	return &dispatcher{
		subs: make(map[primitive.ObjectID]map[uint64]func(models.ChangeEvent)),
	}
}

func (d *dispatcher) Subscribe(channelID primitive.ObjectID, fn func(models.ChangeEvent)) (func(), error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	id := d.nextID
	d.nextID++
	if d.subs[channelID] == nil {
		d.subs[channelID] = make(map[uint64]func(models.ChangeEvent))
	}
	d.subs[channelID][id] = fn

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			d.mu.Lock()
			defer d.mu.Unlock()
			delete(d.subs[channelID], id)
			if len(d.subs[channelID]) == 0 {
				delete(d.subs, channelID)
			}
		})
	}
	return unsubscribe, nil
}

// Publish invokes every handler subscribed to the event's channel. Handlers
// run on the caller's goroutine, outside the dispatcher lock.
func (d *dispatcher) Publish(ev models.ChangeEvent) {
	d.mu.RLock()
	handlers := make([]func(models.ChangeEvent), 0, len(d.subs[ev.ChannelID]))
	for _, fn := range d.subs[ev.ChannelID] {
		handlers = append(handlers, fn)
	}
	d.mu.RUnlock()

	for _, fn := range handlers {
		fn(ev)
	}
}
