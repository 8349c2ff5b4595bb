package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	log "github.com/carousell/ct-go/pkg/logger/log_context"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tranbn/slackline/internal/models"
	"github.com/tranbn/slackline/internal/repo/mongodb"
)

const (
	RoleAdmin  = "admin"
	RoleOwner  = "owner"
	RoleMember = "member"
)

// WorkspaceUseCase covers workspace and channel administration: creation,
// membership and presence.
type WorkspaceUseCase struct {
	workspaceRepo       mongodb.WorkspaceRepository
	workspaceMemberRepo mongodb.WorkspaceMemberRepository
	channelRepo         mongodb.ChannelRepository
	channelMemberRepo   mongodb.ChannelMemberRepository
	userRepo            mongodb.UserRepository
	broadcaster         SocketBroadcaster
}

func NewWorkspaceUseCase(
	workspaceRepo mongodb.WorkspaceRepository,
	workspaceMemberRepo mongodb.WorkspaceMemberRepository,
	channelRepo mongodb.ChannelRepository,
	channelMemberRepo mongodb.ChannelMemberRepository,
	userRepo mongodb.UserRepository,
	broadcaster SocketBroadcaster,
) *WorkspaceUseCase {
	return &WorkspaceUseCase{
		workspaceRepo:       workspaceRepo,
		workspaceMemberRepo: workspaceMemberRepo,
		channelRepo:         channelRepo,
		channelMemberRepo:   channelMemberRepo,
		userRepo:            userRepo,
		broadcaster:         broadcaster,
	}
}

// CreateWorkspace creates a workspace with its creator as admin and a
// default #general channel everyone lands in.
func (uc *WorkspaceUseCase) CreateWorkspace(ctx context.Context, name string, creatorID primitive.ObjectID) (*models.Workspace, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("workspace name is required")
	}

	workspace := &models.Workspace{
		Name:      name,
		Slug:      slugify(name),
		CreatedBy: creatorID,
	}
	if err := uc.workspaceRepo.Create(ctx, workspace); err != nil {
		return nil, err
	}
	if err := uc.workspaceMemberRepo.AddMember(ctx, workspace.ID, creatorID, RoleAdmin); err != nil {
		return nil, fmt.Errorf("failed to add workspace creator: %w", err)
	}

	general := &models.Channel{
		WorkspaceID: workspace.ID,
		Name:        "general",
		Description: "Workspace-wide announcements and chatter",
		CreatedBy:   creatorID,
	}
	if err := uc.channelRepo.Create(ctx, general); err != nil {
		return nil, fmt.Errorf("failed to create default channel: %w", err)
	}
	if err := uc.channelMemberRepo.AddMember(ctx, general.ID, creatorID, RoleOwner); err != nil {
		return nil, fmt.Errorf("failed to join default channel: %w", err)
	}

	return workspace, nil
}

func (uc *WorkspaceUseCase) ListUserWorkspaces(ctx context.Context, userID primitive.ObjectID) ([]*models.Workspace, error) {
	return uc.workspaceRepo.ListUserWorkspaces(ctx, userID)
}

func (uc *WorkspaceUseCase) GetWorkspace(ctx context.Context, workspaceID primitive.ObjectID) (*models.Workspace, error) {
	return uc.workspaceRepo.GetByID(ctx, workspaceID)
}

// JoinWorkspace adds a user as member and drops them into #general.
func (uc *WorkspaceUseCase) JoinWorkspace(ctx context.Context, workspaceID, userID primitive.ObjectID) error {
	if _, err := uc.workspaceRepo.GetByID(ctx, workspaceID); err != nil {
		return err
	}
	if err := uc.workspaceMemberRepo.AddMember(ctx, workspaceID, userID, RoleMember); err != nil {
		return err
	}

	general, err := uc.channelRepo.GetByName(ctx, workspaceID, "general")
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil
		}
		return err
	}
	return uc.JoinChannel(ctx, general.ID, userID)
}

// ListMembers returns workspace members with their profiles joined in.
func (uc *WorkspaceUseCase) ListMembers(ctx context.Context, workspaceID primitive.ObjectID) ([]*models.WorkspaceMember, error) {
	return uc.workspaceMemberRepo.ListMembers(ctx, workspaceID)
}

type CreateChannelParams struct {
	WorkspaceID primitive.ObjectID
	Name        string
	Description string
	IsPrivate   bool
	CreatorID   primitive.ObjectID
}

func (uc *WorkspaceUseCase) CreateChannel(ctx context.Context, params CreateChannelParams) (*models.Channel, error) {
	name := strings.TrimSpace(strings.ToLower(params.Name))
	if name == "" {
		return nil, fmt.Errorf("channel name is required")
	}
	if _, err := uc.workspaceMemberRepo.GetMember(ctx, params.WorkspaceID, params.CreatorID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("not a workspace member")
		}
		return nil, err
	}

	channel := &models.Channel{
		WorkspaceID: params.WorkspaceID,
		Name:        name,
		Description: params.Description,
		IsPrivate:   params.IsPrivate,
		CreatedBy:   params.CreatorID,
	}
	if err := uc.channelRepo.Create(ctx, channel); err != nil {
		return nil, err
	}
	if err := uc.channelMemberRepo.AddMember(ctx, channel.ID, params.CreatorID, RoleOwner); err != nil {
		return nil, fmt.Errorf("failed to join created channel: %w", err)
	}
	return channel, nil
}

// ListChannels returns the channels a user can see in a workspace.
func (uc *WorkspaceUseCase) ListChannels(ctx context.Context, workspaceID, userID primitive.ObjectID) ([]*models.Channel, error) {
	return uc.channelRepo.ListUserChannels(ctx, workspaceID, userID)
}

func (uc *WorkspaceUseCase) JoinChannel(ctx context.Context, channelID, userID primitive.ObjectID) error {
	channel, err := uc.channelRepo.GetByID(ctx, channelID)
	if err != nil {
		return err
	}
	if channel.IsPrivate {
		// Private channels are invite-only; self-serve join is rejected.
		return ErrNotChannelMember
	}
	if err := uc.channelMemberRepo.AddMember(ctx, channelID, userID, RoleMember); err != nil {
		return err
	}

	uc.notifyMembership(ctx, channelID, userID, true)
	return nil
}

// InviteToChannel lets an existing member pull another workspace member
// into the channel, private ones included.
func (uc *WorkspaceUseCase) InviteToChannel(ctx context.Context, channelID, inviterID, inviteeID primitive.ObjectID) error {
	channel, err := uc.channelRepo.GetByID(ctx, channelID)
	if err != nil {
		return err
	}
	if _, err := uc.channelMemberRepo.GetMember(ctx, channelID, inviterID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return ErrNotChannelMember
		}
		return err
	}
	if _, err := uc.workspaceMemberRepo.GetMember(ctx, channel.WorkspaceID, inviteeID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return fmt.Errorf("invitee is not a workspace member")
		}
		return err
	}

	if err := uc.channelMemberRepo.AddMember(ctx, channelID, inviteeID, RoleMember); err != nil {
		return err
	}
	uc.notifyMembership(ctx, channelID, inviteeID, true)
	return nil
}

func (uc *WorkspaceUseCase) LeaveChannel(ctx context.Context, channelID, userID primitive.ObjectID) error {
	if err := uc.channelMemberRepo.RemoveMember(ctx, channelID, userID); err != nil {
		return err
	}
	uc.notifyMembership(ctx, channelID, userID, false)
	return nil
}

func (uc *WorkspaceUseCase) ListChannelMembers(ctx context.Context, channelID primitive.ObjectID) ([]*models.ChannelMember, error) {
	return uc.channelMemberRepo.ListMembers(ctx, channelID)
}

func (uc *WorkspaceUseCase) ArchiveChannel(ctx context.Context, channelID, userID primitive.ObjectID) error {
	member, err := uc.channelMemberRepo.GetMember(ctx, channelID, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return ErrNotChannelMember
		}
		return err
	}
	if member.Role != RoleOwner {
		return fmt.Errorf("only the channel owner can archive it")
	}
	return uc.channelRepo.Archive(ctx, channelID)
}

// UpdatePresence stores a user's presence and pushes it to every workspace
// they belong to.
func (uc *WorkspaceUseCase) UpdatePresence(ctx context.Context, userID primitive.ObjectID, presence string) error {
	switch presence {
	case models.PresenceOnline, models.PresenceAway, models.PresenceOffline:
	default:
		return fmt.Errorf("unknown presence %q", presence)
	}
	if err := uc.userRepo.UpdatePresence(ctx, userID, presence); err != nil {
		return err
	}

	workspaces, err := uc.workspaceRepo.ListUserWorkspaces(ctx, userID)
	if err != nil {
		log.Errorw(ctx, "failed to list workspaces for presence fanout", "error", err)
		return nil
	}
	for _, workspace := range workspaces {
		members, err := uc.workspaceMemberRepo.ListMembers(ctx, workspace.ID)
		if err != nil {
			log.Errorw(ctx, "failed to list members for presence fanout", "error", err)
			continue
		}
		ids := make([]primitive.ObjectID, 0, len(members))
		for _, member := range members {
			if member.UserID != userID {
				ids = append(ids, member.UserID)
			}
		}
		uc.broadcaster.PresenceChanged(ctx, ids, userID, presence)
	}
	return nil
}

func (uc *WorkspaceUseCase) notifyMembership(ctx context.Context, channelID, userID primitive.ObjectID, joined bool) {
	members, err := uc.channelMemberRepo.ListMembers(ctx, channelID)
	if err != nil {
		log.Errorw(ctx, "failed to list members for membership fanout", "error", err)
		return
	}
	ids := make([]primitive.ObjectID, 0, len(members))
	for _, member := range members {
		ids = append(ids, member.UserID)
	}
	if joined {
		uc.broadcaster.MemberJoined(ctx, ids, channelID, userID)
	} else {
		uc.broadcaster.MemberLeft(ctx, ids, channelID, userID)
	}
}

func slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r == ' ', r == '-', r == '_':
			return '-'
		default:
			return -1
		}
	}, slug)
	return strings.Trim(slug, "-")
}
