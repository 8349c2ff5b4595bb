package usecase

import (
	"context"
	"errors"
	stdsync "sync"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tranbn/slackline/internal/config"
	"github.com/tranbn/slackline/internal/models"
	"github.com/tranbn/slackline/internal/repo/mongodb"
	"github.com/tranbn/slackline/internal/repo/realtime"
	"github.com/tranbn/slackline/internal/sync"
)

var ErrSessionNotFound = errors.New("session not found")

// ChannelViewUsecase hosts one live channel view per client session. Each
// session owns a synchronizer that merges the bulk fetch, the session's own
// sends and the change feed into a single deduplicated message sequence.
type ChannelViewUsecase struct {
	chat        *ChatUseCase
	channelRepo mongodb.ChannelRepository
	memberRepo  mongodb.ChannelMemberRepository
	dispatcher  realtime.Dispatcher
	opts        sync.Options

	mu       stdsync.Mutex
	sessions map[string]*viewSession
}

type viewSession struct {
	userID primitive.ObjectID
	sync   *sync.Synchronizer
}

func NewChannelViewUsecase(
	chat *ChatUseCase,
	channelRepo mongodb.ChannelRepository,
	memberRepo mongodb.ChannelMemberRepository,
	dispatcher realtime.Dispatcher,
	cfg config.SyncConfig,
) *ChannelViewUsecase {
	return &ChannelViewUsecase{
		chat:        chat,
		channelRepo: channelRepo,
		memberRepo:  memberRepo,
		dispatcher:  dispatcher,
		opts: sync.Options{
			MinSendInterval: cfg.MinSendInterval,
			PendingTTL:      cfg.PendingTTL,
			SendTimeout:     cfg.SendTimeout,
		},
		sessions: make(map[string]*viewSession),
	}
}

// chatStore adapts the chat write path to the synchronizer's store port, so
// session sends flow through the same persistence and fan-out as the REST
// path.
type chatStore struct {
	chat *ChatUseCase
}

func (s *chatStore) FetchMessages(ctx context.Context, channelID primitive.ObjectID) ([]*models.Message, error) {
	return s.chat.GetChannelMessages(ctx, channelID)
}

func (s *chatStore) CreateMessage(ctx context.Context, params sync.CreateMessageParams) (*models.Message, error) {
	return s.chat.SendMessage(ctx, SendMessageParams{
		ChannelID:   params.ChannelID,
		AuthorID:    params.AuthorID,
		Body:        params.Body,
		ParentID:    params.ParentID,
		Attachments: params.Attachments,
	})
}

// OpenSession creates a live view session for a user and returns its id.
func (uc *ChannelViewUsecase) OpenSession(user *models.User) string {
	sessionID := uuid.NewString()
	syncer := sync.New(
		&chatStore{chat: uc.chat},
		uc.dispatcher,
		sync.Session{
			UserID:      user.ID,
			DisplayName: user.DisplayName,
			Avatar:      user.Avatar,
		},
		uc.opts,
	)

	uc.mu.Lock()
	uc.sessions[sessionID] = &viewSession{
		userID: user.ID,
		sync:   syncer,
	}
	uc.mu.Unlock()
	return sessionID
}

func (uc *ChannelViewUsecase) session(sessionID string, userID primitive.ObjectID) (*viewSession, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	s, ok := uc.sessions[sessionID]
	if !ok || s.userID != userID {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// SwitchChannel points the session's view at another channel after checking
// the user may read it.
func (uc *ChannelViewUsecase) SwitchChannel(ctx context.Context, sessionID string, userID, channelID primitive.ObjectID) error {
	s, err := uc.session(sessionID, userID)
	if err != nil {
		return err
	}

	channel, err := uc.channelRepo.GetByID(ctx, channelID)
	if err != nil {
		return err
	}
	if channel.IsPrivate {
		if _, err := uc.memberRepo.GetMember(ctx, channelID, userID); err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return ErrNotChannelMember
			}
			return err
		}
	}

	return s.sync.SwitchChannel(ctx, channelID)
}

// Send posts a message through the session's view. Gate rejections come
// back as the synchronizer's typed errors.
func (uc *ChannelViewUsecase) Send(ctx context.Context, sessionID string, userID primitive.ObjectID, body string, parentID *primitive.ObjectID, attachments ...models.Attachment) (*models.Message, error) {
	s, err := uc.session(sessionID, userID)
	if err != nil {
		return nil, err
	}
	return s.sync.Send(ctx, body, parentID, attachments...)
}

// Messages snapshots the session's current view sequence.
func (uc *ChannelViewUsecase) Messages(sessionID string, userID primitive.ObjectID) ([]*models.Message, bool, error) {
	s, err := uc.session(sessionID, userID)
	if err != nil {
		return nil, false, err
	}
	return s.sync.Messages(), s.sync.Loading(), nil
}

// Threads derives the thread views of the session's current sequence.
func (uc *ChannelViewUsecase) Threads(sessionID string, userID primitive.ObjectID) (map[primitive.ObjectID]*sync.ThreadView, error) {
	s, err := uc.session(sessionID, userID)
	if err != nil {
		return nil, err
	}
	return sync.Project(s.sync.Messages()), nil
}

func (uc *ChannelViewUsecase) CloseSession(sessionID string, userID primitive.ObjectID) error {
	uc.mu.Lock()
	s, ok := uc.sessions[sessionID]
	if ok && s.userID == userID {
		delete(uc.sessions, sessionID)
	}
	uc.mu.Unlock()
	if !ok || s.userID != userID {
		return ErrSessionNotFound
	}
	s.sync.Close()
	return nil
}

// CloseAll tears down every session, used on shutdown.
func (uc *ChannelViewUsecase) CloseAll() {
	uc.mu.Lock()
	sessions := uc.sessions
	uc.sessions = make(map[string]*viewSession)
	uc.mu.Unlock()
	for _, s := range sessions {
		s.sync.Close()
	}
}
