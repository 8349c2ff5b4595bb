package sync

import (
	"github.com/tranbn/slackline/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ThreadView is the derived thread state of one root message.
type ThreadView struct {
	Root       *models.Message
	Replies    []*models.Message
	ReplyCount int
	// Participants are the distinct reply authors in first-reply order.
	Participants []primitive.ObjectID
}

// Project derives the per-root thread views from a message sequence. Pure:
// it never mutates its input and is safe to call on every sequence change.
// Replies keep the sequence's created_at order. A reply whose root is not in
// the sequence (deleted or not yet arrived) is left out of every view until
// its root appears; the sequence itself still holds it.
func Project(seq []*models.Message) map[primitive.ObjectID]*ThreadView {
	views := make(map[primitive.ObjectID]*ThreadView)
	for _, m := range seq {
		if m.IsReply() {
			continue
		}
		views[m.ID] = &ThreadView{Root: m}
	}
	for _, m := range seq {
		if !m.IsReply() {
			continue
		}
		view, ok := views[*m.ParentID]
		if !ok {
			continue
		}
		view.Replies = append(view.Replies, m)
		view.ReplyCount++
		if !containsID(view.Participants, m.AuthorID) {
			view.Participants = append(view.Participants, m.AuthorID)
		}
	}
	return views
}

func containsID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
