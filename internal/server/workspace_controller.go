package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	pkgmdw "github.com/tranbn/slackline/internal/server/middleware"
	"github.com/tranbn/slackline/internal/usecase"
)

type WorkspaceController interface {
	CreateWorkspace(c echo.Context) error
	ListWorkspaces(c echo.Context) error
	GetWorkspace(c echo.Context) error
	JoinWorkspace(c echo.Context) error
	ListWorkspaceMembers(c echo.Context) error
	CreateChannel(c echo.Context) error
	ListChannels(c echo.Context) error
	JoinChannel(c echo.Context) error
	InviteToChannel(c echo.Context) error
	LeaveChannel(c echo.Context) error
	ListChannelMembers(c echo.Context) error
	ArchiveChannel(c echo.Context) error
	UpdatePresence(c echo.Context) error
}

type workspaceController struct {
	workspaceUsecase *usecase.WorkspaceUseCase
}

func NewWorkspaceController(workspaceUsecase *usecase.WorkspaceUseCase) WorkspaceController {
	return &workspaceController{
		workspaceUsecase: workspaceUsecase,
	}
}

type createWorkspaceRequest struct {
	Name string `json:"name" validate:"required"`
}

func (wc *workspaceController) CreateWorkspace(c echo.Context) error {
	var req createWorkspaceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	workspace, err := wc.workspaceUsecase.CreateWorkspace(c.Request().Context(), req.Name, pkgmdw.CurrentUser(c).ID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, workspace)
}

func (wc *workspaceController) ListWorkspaces(c echo.Context) error {
	workspaces, err := wc.workspaceUsecase.ListUserWorkspaces(c.Request().Context(), pkgmdw.CurrentUser(c).ID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"workspaces": workspaces})
}

func (wc *workspaceController) GetWorkspace(c echo.Context) error {
	workspaceID, err := paramID(c, "workspace_id")
	if err != nil {
		return err
	}

	workspace, err := wc.workspaceUsecase.GetWorkspace(c.Request().Context(), workspaceID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, workspace)
}

func (wc *workspaceController) JoinWorkspace(c echo.Context) error {
	workspaceID, err := paramID(c, "workspace_id")
	if err != nil {
		return err
	}

	if err := wc.workspaceUsecase.JoinWorkspace(c.Request().Context(), workspaceID, pkgmdw.CurrentUser(c).ID); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "joined"})
}

func (wc *workspaceController) ListWorkspaceMembers(c echo.Context) error {
	workspaceID, err := paramID(c, "workspace_id")
	if err != nil {
		return err
	}

	members, err := wc.workspaceUsecase.ListMembers(c.Request().Context(), workspaceID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"members": members})
}

type createChannelRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	IsPrivate   bool   `json:"is_private"`
}

func (wc *workspaceController) CreateChannel(c echo.Context) error {
	workspaceID, err := paramID(c, "workspace_id")
	if err != nil {
		return err
	}

	var req createChannelRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	channel, err := wc.workspaceUsecase.CreateChannel(c.Request().Context(), usecase.CreateChannelParams{
		WorkspaceID: workspaceID,
		Name:        req.Name,
		Description: req.Description,
		IsPrivate:   req.IsPrivate,
		CreatorID:   pkgmdw.CurrentUser(c).ID,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, channel)
}

func (wc *workspaceController) ListChannels(c echo.Context) error {
	workspaceID, err := paramID(c, "workspace_id")
	if err != nil {
		return err
	}

	channels, err := wc.workspaceUsecase.ListChannels(c.Request().Context(), workspaceID, pkgmdw.CurrentUser(c).ID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"channels": channels})
}

func (wc *workspaceController) JoinChannel(c echo.Context) error {
	channelID, err := paramID(c, "channel_id")
	if err != nil {
		return err
	}

	if err := wc.workspaceUsecase.JoinChannel(c.Request().Context(), channelID, pkgmdw.CurrentUser(c).ID); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "joined"})
}

type inviteRequest struct {
	UserID string `json:"user_id" validate:"required,objectid"`
}

func (wc *workspaceController) InviteToChannel(c echo.Context) error {
	channelID, err := paramID(c, "channel_id")
	if err != nil {
		return err
	}

	var req inviteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	inviteeID, _ := primitive.ObjectIDFromHex(req.UserID)

	if err := wc.workspaceUsecase.InviteToChannel(c.Request().Context(), channelID, pkgmdw.CurrentUser(c).ID, inviteeID); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "invited"})
}

func (wc *workspaceController) LeaveChannel(c echo.Context) error {
	channelID, err := paramID(c, "channel_id")
	if err != nil {
		return err
	}

	if err := wc.workspaceUsecase.LeaveChannel(c.Request().Context(), channelID, pkgmdw.CurrentUser(c).ID); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "left"})
}

func (wc *workspaceController) ListChannelMembers(c echo.Context) error {
	channelID, err := paramID(c, "channel_id")
	if err != nil {
		return err
	}

	members, err := wc.workspaceUsecase.ListChannelMembers(c.Request().Context(), channelID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"members": members})
}

func (wc *workspaceController) ArchiveChannel(c echo.Context) error {
	channelID, err := paramID(c, "channel_id")
	if err != nil {
		return err
	}

	if err := wc.workspaceUsecase.ArchiveChannel(c.Request().Context(), channelID, pkgmdw.CurrentUser(c).ID); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "archived"})
}

type presenceRequest struct {
	Presence string `json:"presence" validate:"required"`
}

func (wc *workspaceController) UpdatePresence(c echo.Context) error {
	var req presenceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := wc.workspaceUsecase.UpdatePresence(c.Request().Context(), pkgmdw.CurrentUser(c).ID, req.Presence); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "updated"})
}
