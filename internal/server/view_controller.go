package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tranbn/slackline/internal/models"
	pkgmdw "github.com/tranbn/slackline/internal/server/middleware"
	"github.com/tranbn/slackline/internal/usecase"
)

// ViewController exposes the live channel view: a server-held session whose
// message sequence merges history, the session's own sends and the change
// feed, so polling clients see one consistent ordering.
type ViewController interface {
	OpenSession(c echo.Context) error
	SwitchChannel(c echo.Context) error
	Send(c echo.Context) error
	Messages(c echo.Context) error
	Threads(c echo.Context) error
	CloseSession(c echo.Context) error
}

type viewController struct {
	viewUsecase *usecase.ChannelViewUsecase
}

func NewViewController(viewUsecase *usecase.ChannelViewUsecase) ViewController {
	return &viewController{
		viewUsecase: viewUsecase,
	}
}

func (vc *viewController) OpenSession(c echo.Context) error {
	sessionID := vc.viewUsecase.OpenSession(pkgmdw.CurrentUser(c))
	return c.JSON(http.StatusCreated, map[string]string{"session_id": sessionID})
}

type switchChannelRequest struct {
	ChannelID string `json:"channel_id" validate:"required,objectid"`
}

func (vc *viewController) SwitchChannel(c echo.Context) error {
	var req switchChannelRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	channelID, _ := primitive.ObjectIDFromHex(req.ChannelID)

	err := vc.viewUsecase.SwitchChannel(c.Request().Context(), c.Param("session_id"), pkgmdw.CurrentUser(c).ID, channelID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "switched"})
}

type sessionSendRequest struct {
	Body        string              `json:"body"`
	ParentID    string              `json:"parent_id,omitempty" validate:"omitempty,objectid"`
	Attachments []models.Attachment `json:"attachments,omitempty"`
}

func (vc *viewController) Send(c echo.Context) error {
	var req sessionSendRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	var parentID *primitive.ObjectID
	if req.ParentID != "" {
		id, _ := primitive.ObjectIDFromHex(req.ParentID)
		parentID = &id
	}

	message, err := vc.viewUsecase.Send(
		c.Request().Context(),
		c.Param("session_id"),
		pkgmdw.CurrentUser(c).ID,
		req.Body,
		parentID,
		req.Attachments...,
	)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, message)
}

func (vc *viewController) Messages(c echo.Context) error {
	messages, loading, err := vc.viewUsecase.Messages(c.Param("session_id"), pkgmdw.CurrentUser(c).ID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"messages": messages,
		"loading":  loading,
	})
}

func (vc *viewController) Threads(c echo.Context) error {
	threads, err := vc.viewUsecase.Threads(c.Param("session_id"), pkgmdw.CurrentUser(c).ID)
	if err != nil {
		return httpError(err)
	}

	views := make(map[string]any, len(threads))
	for rootID, view := range threads {
		views[rootID.Hex()] = view
	}
	return c.JSON(http.StatusOK, map[string]any{"threads": views})
}

func (vc *viewController) CloseSession(c echo.Context) error {
	if err := vc.viewUsecase.CloseSession(c.Param("session_id"), pkgmdw.CurrentUser(c).ID); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
