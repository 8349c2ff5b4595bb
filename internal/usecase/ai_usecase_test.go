package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tranbn/slackline/internal/models"
)

func TestFallbackTone(t *testing.T) {
	t.Parallel()

	cases := []struct {
		body string
		want string
	}{
		{"thanks, that works great", "positive"},
		{"need this ASAP", "urgent"},
		{"deploy!! now!!", "urgent"},
		{"the build is broken again", "negative"},
		{"meeting moved to 3pm", "neutral"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, fallbackTone(tc.body), "body: %s", tc.body)
	}
}

func TestFallbackSentiment(t *testing.T) {
	t.Parallel()

	msgs := func(bodies ...string) []*models.Message {
		out := make([]*models.Message, 0, len(bodies))
		for _, b := range bodies {
			out = append(out, &models.Message{Body: b})
		}
		return out
	}

	t.Run("mostly positive channel scores positive", func(t *testing.T) {
		t.Parallel()
		report := fallbackSentiment(msgs("thanks!", "great work", "ship it :)"))
		assert.Equal(t, "positive", report.Label)
		assert.Greater(t, report.Score, 0.2)
	})

	t.Run("mostly negative channel scores negative", func(t *testing.T) {
		t.Parallel()
		report := fallbackSentiment(msgs("tests fail", "pipeline broken", "meeting at 3"))
		assert.Equal(t, "negative", report.Label)
		assert.Less(t, report.Score, -0.2)
	})

	t.Run("mixed channel stays neutral", func(t *testing.T) {
		t.Parallel()
		report := fallbackSentiment(msgs("great", "broken", "standup notes", "lunch?"))
		assert.Equal(t, "neutral", report.Label)
	})
}

func TestFallbackNotes(t *testing.T) {
	t.Parallel()

	alice := &models.Profile{DisplayName: "alice"}
	bob := &models.Profile{DisplayName: "bob"}
	notes := fallbackNotes([]*models.Message{
		{Body: "first", Author: bob},
		{Body: "second", Author: alice},
		{Body: "third", Author: bob},
	})

	assert.Contains(t, notes, "3 messages")
	// Author names come out sorted regardless of message order.
	assert.Contains(t, notes, "alice, bob")
	assert.Contains(t, notes, "third")
}
