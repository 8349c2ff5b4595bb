package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"

	log "github.com/carousell/ct-go/pkg/logger/log_context"
	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tranbn/slackline/internal/config"
	"github.com/tranbn/slackline/internal/models"
	"github.com/tranbn/slackline/internal/repo/mongodb"
	"github.com/tranbn/slackline/pkg/tmplx"
)

const aiModel = "googleai/gemini-2.5-flash"

// AIUsecase derives assistant features from channel history: catch-up
// notes, thread summaries and tone reads. Without an API key it degrades
// to cheap local heuristics, so the endpoints stay usable in development.
type AIUsecase interface {
	ChannelNotes(ctx context.Context, channelID primitive.ObjectID) (string, error)
	ChannelSentiment(ctx context.Context, channelID primitive.ObjectID) (*SentimentReport, error)
	ThreadSummary(ctx context.Context, rootID primitive.ObjectID) (string, error)
	MessageTone(ctx context.Context, messageID primitive.ObjectID) (string, error)
}

// SentimentReport scores the recent mood of a channel. Score runs from -1
// (hostile) to 1 (upbeat).
type SentimentReport struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

var notesTemplate = tmplx.MustParse("channel_notes", `You are a concise team-chat assistant.
Summarize the conversation below as short catch-up notes, at most five bullet points.
Mention decisions and open questions, skip greetings.

{{range .Messages}}{{.Author}}: {{.Body}}
{{end}}`)

var threadTemplate = tmplx.MustParse("thread_summary", `Summarize this discussion thread in two or three sentences.
Lead with the outcome if there is one.

{{range .Messages}}{{.Author}}: {{.Body}}
{{end}}`)

var toneTemplate = tmplx.MustParse("message_tone", `Classify the tone of this chat message as exactly one word:
positive, neutral, negative or urgent.

Message: {{.Body | quote}}`)

var sentimentTemplate = tmplx.MustParse("channel_sentiment", `Rate the overall mood of the conversation below.
Answer with exactly one word: positive, neutral or negative.

{{range .Messages}}{{.Author}}: {{.Body}}
{{end}}`)

type promptMessage struct {
	Author string
	Body   string
}

type aiUsecase struct {
	genkit      *genkit.Genkit
	enabled     bool
	chat        *ChatUseCase
	messageRepo mongodb.MessageRepository
}

func NewAIUsecase(cfg *config.Config, chat *ChatUseCase, messageRepo mongodb.MessageRepository) AIUsecase {
	uc := &aiUsecase{
		chat:        chat,
		messageRepo: messageRepo,
	}
	if cfg.LLM.GoogleAIAPIKey == "" {
		return uc
	}

	googleAI := &googlegenai.GoogleAI{
		APIKey: cfg.LLM.GoogleAIAPIKey,
	}
	uc.genkit = genkit.Init(context.Background(), genkit.WithPlugins(googleAI))
	uc.enabled = true
	return uc
}

func (uc *aiUsecase) ChannelNotes(ctx context.Context, channelID primitive.ObjectID) (string, error) {
	messages, err := uc.chat.GetChannelMessages(ctx, channelID)
	if err != nil {
		return "", err
	}
	if len(messages) == 0 {
		return "Nothing happened in this channel yet.", nil
	}
	// Only the recent tail matters for catch-up notes.
	const window = 50
	if len(messages) > window {
		messages = messages[len(messages)-window:]
	}

	if !uc.enabled {
		return fallbackNotes(messages), nil
	}

	prompt, err := notesTemplate.Render(map[string]any{"Messages": toPromptMessages(messages)})
	if err != nil {
		return "", fmt.Errorf("failed to render notes prompt: %w", err)
	}
	return uc.generate(ctx, prompt.String())
}

func (uc *aiUsecase) ChannelSentiment(ctx context.Context, channelID primitive.ObjectID) (*SentimentReport, error) {
	messages, err := uc.chat.GetChannelMessages(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if len(messages) == 0 {
		return &SentimentReport{Label: "neutral", Score: 0}, nil
	}
	const window = 50
	if len(messages) > window {
		messages = messages[len(messages)-window:]
	}

	if !uc.enabled {
		return fallbackSentiment(messages), nil
	}

	prompt, err := sentimentTemplate.Render(map[string]any{"Messages": toPromptMessages(messages)})
	if err != nil {
		return nil, fmt.Errorf("failed to render sentiment prompt: %w", err)
	}
	label, err := uc.generate(ctx, prompt.String())
	if err != nil {
		return nil, err
	}

	label = strings.ToLower(strings.TrimSpace(label))
	switch label {
	case "positive":
		return &SentimentReport{Label: label, Score: 1}, nil
	case "negative":
		return &SentimentReport{Label: label, Score: -1}, nil
	case "neutral":
		return &SentimentReport{Label: label, Score: 0}, nil
	}
	log.Warnw(ctx, "model returned unexpected sentiment", "label", label)
	return &SentimentReport{Label: "neutral", Score: 0}, nil
}

func (uc *aiUsecase) ThreadSummary(ctx context.Context, rootID primitive.ObjectID) (string, error) {
	view, err := uc.chat.GetThread(ctx, rootID)
	if err != nil {
		return "", err
	}

	seq := append([]*models.Message{view.Root}, view.Replies...)
	if !uc.enabled {
		return fallbackNotes(seq), nil
	}

	prompt, err := threadTemplate.Render(map[string]any{"Messages": toPromptMessages(seq)})
	if err != nil {
		return "", fmt.Errorf("failed to render thread prompt: %w", err)
	}
	return uc.generate(ctx, prompt.String())
}

func (uc *aiUsecase) MessageTone(ctx context.Context, messageID primitive.ObjectID) (string, error) {
	message, err := uc.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return "", err
	}

	if !uc.enabled {
		return fallbackTone(message.Body), nil
	}

	prompt, err := toneTemplate.Render(map[string]any{"Body": message.Body})
	if err != nil {
		return "", fmt.Errorf("failed to render tone prompt: %w", err)
	}
	tone, err := uc.generate(ctx, prompt.String())
	if err != nil {
		return "", err
	}

	tone = strings.ToLower(strings.TrimSpace(tone))
	switch tone {
	case "positive", "neutral", "negative", "urgent":
		return tone, nil
	}
	log.Warnw(ctx, "model returned unexpected tone", "tone", tone)
	return "neutral", nil
}

func (uc *aiUsecase) generate(ctx context.Context, prompt string) (string, error) {
	resp, err := genkit.Generate(ctx, uc.genkit,
		ai.WithModelName(aiModel),
		ai.WithPrompt(prompt),
	)
	if err != nil {
		return "", fmt.Errorf("generate failed: %w", err)
	}
	return strings.TrimSpace(resp.Text()), nil
}

func toPromptMessages(messages []*models.Message) []promptMessage {
	out := make([]promptMessage, 0, len(messages))
	for _, m := range messages {
		author := "someone"
		if m.Author != nil && m.Author.DisplayName != "" {
			author = m.Author.DisplayName
		}
		out = append(out, promptMessage{Author: author, Body: m.Body})
	}
	return out
}

func fallbackNotes(messages []*models.Message) string {
	authors := make(map[string]struct{})
	for _, m := range messages {
		if m.Author != nil && m.Author.DisplayName != "" {
			authors[m.Author.DisplayName] = struct{}{}
		}
	}
	names := make([]string, 0, len(authors))
	for name := range authors {
		names = append(names, name)
	}
	sort.Strings(names)
	last := messages[len(messages)-1]
	return fmt.Sprintf("%d messages from %d people (%s). Latest: %s",
		len(messages), len(names), strings.Join(names, ", "), last.Body)
}

// fallbackSentiment averages the per-message tone heuristic.
func fallbackSentiment(messages []*models.Message) *SentimentReport {
	score := 0.0
	for _, m := range messages {
		switch fallbackTone(m.Body) {
		case "positive":
			score++
		case "negative", "urgent":
			score--
		}
	}
	score /= float64(len(messages))

	label := "neutral"
	switch {
	case score > 0.2:
		label = "positive"
	case score < -0.2:
		label = "negative"
	}
	return &SentimentReport{Label: label, Score: score}
}

func fallbackTone(body string) string {
	lower := strings.ToLower(body)
	switch {
	case strings.Contains(lower, "asap") || strings.Contains(lower, "urgent") || strings.Count(body, "!") > 1:
		return "urgent"
	case strings.Contains(lower, "thanks") || strings.Contains(lower, "great") || strings.Contains(lower, ":)"):
		return "positive"
	case strings.Contains(lower, "broken") || strings.Contains(lower, "fail") || strings.Contains(lower, ":("):
		return "negative"
	default:
		return "neutral"
	}
}
