package sync

import (
	"sync"

	"github.com/tranbn/slackline/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ReactionBoard aggregates per-user reaction rows into per-message emoji
// groups. Toggle is idempotent in the net sense: two identical calls in a
// row flip the state exactly once each, landing back where they started.
type ReactionBoard struct {
	mu sync.Mutex
	// messageID -> emoji -> ordered reacting users
	byMessage map[primitive.ObjectID]map[string][]primitive.ObjectID
	// messageID -> emoji first-seen order, for stable group listings
	emojiOrder map[primitive.ObjectID][]string
}

func NewReactionBoard() *ReactionBoard {
	return &ReactionBoard{
		byMessage:  make(map[primitive.ObjectID]map[string][]primitive.ObjectID),
		emojiOrder: make(map[primitive.ObjectID][]string),
	}
}

// Load rebuilds the board from store rows, replacing any prior state.
func (b *ReactionBoard) Load(reactions []*models.Reaction) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.byMessage = make(map[primitive.ObjectID]map[string][]primitive.ObjectID)
	b.emojiOrder = make(map[primitive.ObjectID][]string)
	for _, r := range reactions {
		b.addLocked(r.MessageID, r.UserID, r.Emoji)
	}
}

// Toggle removes the user's reaction if present, adds it otherwise.
// Returns true when the reaction was added.
func (b *ReactionBoard) Toggle(messageID, userID primitive.ObjectID, emoji string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	users := b.byMessage[messageID][emoji]
	for i, u := range users {
		if u == userID {
			b.byMessage[messageID][emoji] = append(users[:i], users[i+1:]...)
			return false
		}
	}
	b.addLocked(messageID, userID, emoji)
	return true
}

// Groups returns the emoji aggregates of one message in first-seen emoji
// order. Groups whose user set emptied out are skipped.
func (b *ReactionBoard) Groups(messageID primitive.ObjectID) []*models.ReactionGroup {
	b.mu.Lock()
	defer b.mu.Unlock()
	emojis := b.emojiOrder[messageID]
	if len(emojis) == 0 {
		return nil
	}
	groups := make([]*models.ReactionGroup, 0, len(emojis))
	for _, e := range emojis {
		users := b.byMessage[messageID][e]
		if len(users) == 0 {
			continue
		}
		out := make([]primitive.ObjectID, len(users))
		copy(out, users)
		groups = append(groups, &models.ReactionGroup{
			Emoji: e,
			Count: len(out),
			Users: out,
		})
	}
	return groups
}

// Drop forgets every reaction of a message, e.g. after a delete event.
func (b *ReactionBoard) Drop(messageID primitive.ObjectID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.byMessage, messageID)
	delete(b.emojiOrder, messageID)
}

func (b *ReactionBoard) addLocked(messageID, userID primitive.ObjectID, emoji string) {
	perMessage, ok := b.byMessage[messageID]
	if !ok {
		perMessage = make(map[string][]primitive.ObjectID)
		b.byMessage[messageID] = perMessage
	}
	users := perMessage[emoji]
	for _, u := range users {
		if u == userID {
			return
		}
	}
	if len(users) == 0 && !containsEmoji(b.emojiOrder[messageID], emoji) {
		b.emojiOrder[messageID] = append(b.emojiOrder[messageID], emoji)
	}
	perMessage[emoji] = append(users, userID)
}

func containsEmoji(emojis []string, emoji string) bool {
	for _, e := range emojis {
		if e == emoji {
			return true
		}
	}
	return false
}
