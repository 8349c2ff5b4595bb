package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	log "github.com/carousell/ct-go/pkg/logger/log_context"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tranbn/slackline/internal/kafka"
	"github.com/tranbn/slackline/internal/models"
	"github.com/tranbn/slackline/internal/repo/mongodb"
	"github.com/tranbn/slackline/internal/sync"
)

// SocketBroadcaster pushes events to the live connections of specific
// users. Implemented by the socket server client.
type SocketBroadcaster interface {
	MessageReceived(ctx context.Context, userIDs []primitive.ObjectID, message *models.Message)
	MessageSent(ctx context.Context, userID primitive.ObjectID, message *models.Message)
	MessageUpdated(ctx context.Context, userIDs []primitive.ObjectID, message *models.Message)
	MessageDeleted(ctx context.Context, userIDs []primitive.ObjectID, channelID, messageID primitive.ObjectID)
	ReactionUpdated(ctx context.Context, userIDs []primitive.ObjectID, messageID primitive.ObjectID, groups []*models.ReactionGroup)
	Typing(ctx context.Context, userIDs []primitive.ObjectID, channelID, typistID primitive.ObjectID, isTyping bool)
	PresenceChanged(ctx context.Context, userIDs []primitive.ObjectID, userID primitive.ObjectID, presence string)
	MemberJoined(ctx context.Context, userIDs []primitive.ObjectID, channelID, joinedUserID primitive.ObjectID)
	MemberLeft(ctx context.Context, userIDs []primitive.ObjectID, channelID, leftUserID primitive.ObjectID)
}

var (
	ErrNotChannelMember = errors.New("not a channel member")
	ErrNotMessageAuthor = errors.New("not the message author")
)

// ChatUseCase owns the write path for messages and reactions. Every change
// is persisted first, then published to the broker for the live sessions of
// all instances, then pushed to the socket server for connected clients.
type ChatUseCase struct {
	channelRepo       mongodb.ChannelRepository
	channelMemberRepo mongodb.ChannelMemberRepository
	messageRepo       mongodb.MessageRepository
	reactionRepo      mongodb.ReactionRepository
	userRepo          mongodb.UserRepository
	publisher         kafka.Publisher
	broadcaster       SocketBroadcaster
}

func NewChatUseCase(
	channelRepo mongodb.ChannelRepository,
	channelMemberRepo mongodb.ChannelMemberRepository,
	messageRepo mongodb.MessageRepository,
	reactionRepo mongodb.ReactionRepository,
	userRepo mongodb.UserRepository,
	publisher kafka.Publisher,
	broadcaster SocketBroadcaster,
) *ChatUseCase {
	return &ChatUseCase{
		channelRepo:       channelRepo,
		channelMemberRepo: channelMemberRepo,
		messageRepo:       messageRepo,
		reactionRepo:      reactionRepo,
		userRepo:          userRepo,
		publisher:         publisher,
		broadcaster:       broadcaster,
	}
}

type SendMessageParams struct {
	ChannelID   primitive.ObjectID
	AuthorID    primitive.ObjectID
	Body        string
	ParentID    *primitive.ObjectID
	Attachments []models.Attachment
}

func (uc *ChatUseCase) SendMessage(ctx context.Context, params SendMessageParams) (*models.Message, error) {
	if strings.TrimSpace(params.Body) == "" && len(params.Attachments) == 0 {
		return nil, sync.ErrEmptyMessage
	}
	channel, err := uc.channelRepo.GetByID(ctx, params.ChannelID)
	if err != nil {
		return nil, fmt.Errorf("channel not found: %w", err)
	}
	if channel.IsArchived {
		return nil, fmt.Errorf("channel %s is archived", channel.Name)
	}
	if channel.IsPrivate {
		if _, err := uc.channelMemberRepo.GetMember(ctx, params.ChannelID, params.AuthorID); err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return nil, ErrNotChannelMember
			}
			return nil, err
		}
	}

	// Replies must point at a root in the same channel; replying to a reply
	// flattens onto its root's thread.
	if params.ParentID != nil {
		parent, err := uc.messageRepo.GetByID(ctx, *params.ParentID)
		if err != nil {
			return nil, fmt.Errorf("thread root not found: %w", err)
		}
		if parent.ChannelID != params.ChannelID {
			return nil, fmt.Errorf("thread root belongs to another channel")
		}
		if parent.ParentID != nil {
			params.ParentID = parent.ParentID
		}
	}

	message := &models.Message{
		ChannelID:   params.ChannelID,
		AuthorID:    params.AuthorID,
		Body:        params.Body,
		ParentID:    params.ParentID,
		Attachments: params.Attachments,
	}
	if err := uc.messageRepo.Create(ctx, message); err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	if err := uc.channelRepo.UpdateLastMessage(ctx, params.ChannelID); err != nil {
		log.Errorw(ctx, "failed to bump channel last message", "error", err)
	}
	if err := uc.publisher.MessageSent(ctx, message); err != nil {
		log.Errorw(ctx, "failed to publish message.sent", "error", err)
	}

	uc.hydrateAuthors(ctx, message)
	uc.broadcaster.MessageSent(ctx, params.AuthorID, message)
	if memberIDs := uc.memberIDs(ctx, params.ChannelID, params.AuthorID); len(memberIDs) > 0 {
		uc.broadcaster.MessageReceived(ctx, memberIDs, message)
	}

	return message, nil
}

func (uc *ChatUseCase) EditMessage(ctx context.Context, messageID, editorID primitive.ObjectID, body string) (*models.Message, error) {
	if strings.TrimSpace(body) == "" {
		return nil, sync.ErrEmptyMessage
	}
	message, err := uc.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if message.AuthorID != editorID {
		return nil, ErrNotMessageAuthor
	}

	if err := uc.messageRepo.Edit(ctx, messageID, body); err != nil {
		return nil, fmt.Errorf("failed to edit message: %w", err)
	}
	message, err = uc.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}

	if err := uc.publisher.MessageUpdated(ctx, message); err != nil {
		log.Errorw(ctx, "failed to publish message.updated", "error", err)
	}
	uc.hydrateAuthors(ctx, message)
	if memberIDs := uc.memberIDs(ctx, message.ChannelID, primitive.NilObjectID); len(memberIDs) > 0 {
		uc.broadcaster.MessageUpdated(ctx, memberIDs, message)
	}
	return message, nil
}

// DeleteMessage soft-deletes one message. Thread replies are left in place;
// readers drop them from thread views once the root is gone.
func (uc *ChatUseCase) DeleteMessage(ctx context.Context, messageID, editorID primitive.ObjectID) error {
	message, err := uc.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	if message.AuthorID != editorID {
		return ErrNotMessageAuthor
	}

	if err := uc.messageRepo.SoftDelete(ctx, messageID); err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	if err := uc.reactionRepo.DeleteByMessage(ctx, messageID); err != nil {
		log.Errorw(ctx, "failed to delete reactions", "error", err)
	}

	if err := uc.publisher.MessageDeleted(ctx, message.ChannelID.Hex(), messageID.Hex()); err != nil {
		log.Errorw(ctx, "failed to publish message.deleted", "error", err)
	}
	if memberIDs := uc.memberIDs(ctx, message.ChannelID, primitive.NilObjectID); len(memberIDs) > 0 {
		uc.broadcaster.MessageDeleted(ctx, memberIDs, message.ChannelID, messageID)
	}
	return nil
}

func (uc *ChatUseCase) PinMessage(ctx context.Context, messageID primitive.ObjectID, pinned bool) (*models.Message, error) {
	if err := uc.messageRepo.SetPinned(ctx, messageID, pinned); err != nil {
		return nil, err
	}
	message, err := uc.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}

	if err := uc.publisher.MessageUpdated(ctx, message); err != nil {
		log.Errorw(ctx, "failed to publish message.updated", "error", err)
	}
	uc.hydrateAuthors(ctx, message)
	if memberIDs := uc.memberIDs(ctx, message.ChannelID, primitive.NilObjectID); len(memberIDs) > 0 {
		uc.broadcaster.MessageUpdated(ctx, memberIDs, message)
	}
	return message, nil
}

func (uc *ChatUseCase) GetChannelMessages(ctx context.Context, channelID primitive.ObjectID) ([]*models.Message, error) {
	messages, err := uc.messageRepo.ListChannelMessages(ctx, channelID)
	if err != nil {
		return nil, err
	}
	uc.hydrateAuthors(ctx, messages...)
	return messages, nil
}

// GetThread returns a thread root with its replies projected the same way
// the live view renders them.
func (uc *ChatUseCase) GetThread(ctx context.Context, rootID primitive.ObjectID) (*sync.ThreadView, error) {
	root, err := uc.messageRepo.GetByID(ctx, rootID)
	if err != nil {
		return nil, err
	}
	if root.IsDeleted || root.IsReply() {
		return nil, models.ErrNotFound
	}
	replies, err := uc.messageRepo.ListThreadReplies(ctx, rootID)
	if err != nil {
		return nil, err
	}

	seq := append([]*models.Message{root}, replies...)
	uc.hydrateAuthors(ctx, seq...)
	views := sync.Project(seq)
	view, ok := views[rootID]
	if !ok {
		return nil, models.ErrNotFound
	}
	return view, nil
}

func (uc *ChatUseCase) GetPinnedMessages(ctx context.Context, channelID primitive.ObjectID) ([]*models.Message, error) {
	messages, err := uc.messageRepo.ListPinned(ctx, channelID)
	if err != nil {
		return nil, err
	}
	uc.hydrateAuthors(ctx, messages...)
	return messages, nil
}

// ToggleReaction flips one user's emoji on a message and returns the fresh
// aggregate groups.
func (uc *ChatUseCase) ToggleReaction(ctx context.Context, messageID, userID primitive.ObjectID, emoji string) ([]*models.ReactionGroup, error) {
	if emoji == "" {
		return nil, fmt.Errorf("emoji is required")
	}
	message, err := uc.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}

	if _, err := uc.reactionRepo.Toggle(ctx, messageID, userID, emoji); err != nil {
		return nil, err
	}

	rows, err := uc.reactionRepo.ListByMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}
	board := sync.NewReactionBoard()
	board.Load(rows)
	groups := board.Groups(messageID)

	if memberIDs := uc.memberIDs(ctx, message.ChannelID, primitive.NilObjectID); len(memberIDs) > 0 {
		uc.broadcaster.ReactionUpdated(ctx, memberIDs, messageID, groups)
	}
	return groups, nil
}

func (uc *ChatUseCase) GetMessageReactions(ctx context.Context, messageID primitive.ObjectID) ([]*models.ReactionGroup, error) {
	rows, err := uc.reactionRepo.ListByMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}
	board := sync.NewReactionBoard()
	board.Load(rows)
	return board.Groups(messageID), nil
}

func (uc *ChatUseCase) Typing(ctx context.Context, channelID, userID primitive.ObjectID, isTyping bool) {
	if memberIDs := uc.memberIDs(ctx, channelID, primitive.NilObjectID); len(memberIDs) > 0 {
		uc.broadcaster.Typing(ctx, memberIDs, channelID, userID, isTyping)
	}
}

// memberIDs resolves the fan-out audience for a channel, excluding one user
// when the event already reached them another way.
func (uc *ChatUseCase) memberIDs(ctx context.Context, channelID, exclude primitive.ObjectID) []primitive.ObjectID {
	members, err := uc.channelMemberRepo.ListMembers(ctx, channelID)
	if err != nil {
		log.Errorw(ctx, "failed to list channel members", "error", err)
		return nil
	}
	ids := make([]primitive.ObjectID, 0, len(members))
	for _, member := range members {
		if member.UserID == exclude {
			continue
		}
		ids = append(ids, member.UserID)
	}
	return ids
}

func (uc *ChatUseCase) hydrateAuthors(ctx context.Context, messages ...*models.Message) {
	ids := make([]primitive.ObjectID, 0, len(messages))
	seen := make(map[primitive.ObjectID]struct{}, len(messages))
	for _, m := range messages {
		if _, ok := seen[m.AuthorID]; ok || m.AuthorID.IsZero() {
			continue
		}
		seen[m.AuthorID] = struct{}{}
		ids = append(ids, m.AuthorID)
	}

	users, err := uc.userRepo.GetByIDs(ctx, ids)
	if err != nil {
		log.Errorw(ctx, "failed to hydrate message authors", "error", err)
		return
	}
	profiles := make(map[primitive.ObjectID]*models.Profile, len(users))
	for _, u := range users {
		profiles[u.ID] = u.Profile()
	}
	for _, m := range messages {
		if p, ok := profiles[m.AuthorID]; ok {
			m.Author = p
		}
	}
}
