package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tranbn/slackline/internal/models"
	pkgmdw "github.com/tranbn/slackline/internal/server/middleware"
	"github.com/tranbn/slackline/internal/sync"
	"github.com/tranbn/slackline/internal/usecase"
)

type ChatController interface {
	ListMessages(c echo.Context) error
	SendMessage(c echo.Context) error
	EditMessage(c echo.Context) error
	DeleteMessage(c echo.Context) error
	PinMessage(c echo.Context) error
	ListPinned(c echo.Context) error
	GetThread(c echo.Context) error
	ToggleReaction(c echo.Context) error
	ListReactions(c echo.Context) error
	Typing(c echo.Context) error
	ChannelNotes(c echo.Context) error
	ChannelSentiment(c echo.Context) error
	ThreadSummary(c echo.Context) error
	MessageTone(c echo.Context) error
}

type chatController struct {
	chatUsecase *usecase.ChatUseCase
	aiUsecase   usecase.AIUsecase
}

func NewChatController(chatUsecase *usecase.ChatUseCase, aiUsecase usecase.AIUsecase) ChatController {
	return &chatController{
		chatUsecase: chatUsecase,
		aiUsecase:   aiUsecase,
	}
}

// httpError translates domain errors into transport status codes.
func httpError(err error) error {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	case errors.Is(err, usecase.ErrNotChannelMember), errors.Is(err, usecase.ErrNotMessageAuthor):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, usecase.ErrSessionNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, sync.ErrRateLimited):
		return echo.NewHTTPError(http.StatusTooManyRequests, err.Error())
	case errors.Is(err, sync.ErrBusy):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, sync.ErrTimeout):
		return echo.NewHTTPError(http.StatusGatewayTimeout, err.Error())
	case errors.Is(err, sync.ErrEmptyMessage), errors.Is(err, sync.ErrNoChannel):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

func paramID(c echo.Context, name string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		return primitive.NilObjectID, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

func (cc *chatController) ListMessages(c echo.Context) error {
	channelID, err := paramID(c, "channel_id")
	if err != nil {
		return err
	}

	messages, err := cc.chatUsecase.GetChannelMessages(c.Request().Context(), channelID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"messages": messages})
}

type sendMessageRequest struct {
	Body        string              `json:"body"`
	ParentID    string              `json:"parent_id,omitempty" validate:"omitempty,objectid"`
	Attachments []models.Attachment `json:"attachments,omitempty"`
}

func (cc *chatController) SendMessage(c echo.Context) error {
	channelID, err := paramID(c, "channel_id")
	if err != nil {
		return err
	}

	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	params := usecase.SendMessageParams{
		ChannelID:   channelID,
		AuthorID:    pkgmdw.CurrentUser(c).ID,
		Body:        req.Body,
		Attachments: req.Attachments,
	}
	if req.ParentID != "" {
		parentID, _ := primitive.ObjectIDFromHex(req.ParentID)
		params.ParentID = &parentID
	}

	message, err := cc.chatUsecase.SendMessage(c.Request().Context(), params)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, message)
}

type editMessageRequest struct {
	Body string `json:"body" validate:"required"`
}

func (cc *chatController) EditMessage(c echo.Context) error {
	messageID, err := paramID(c, "message_id")
	if err != nil {
		return err
	}

	var req editMessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	message, err := cc.chatUsecase.EditMessage(c.Request().Context(), messageID, pkgmdw.CurrentUser(c).ID, req.Body)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, message)
}

func (cc *chatController) DeleteMessage(c echo.Context) error {
	messageID, err := paramID(c, "message_id")
	if err != nil {
		return err
	}

	if err := cc.chatUsecase.DeleteMessage(c.Request().Context(), messageID, pkgmdw.CurrentUser(c).ID); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

type pinMessageRequest struct {
	Pinned bool `json:"pinned"`
}

func (cc *chatController) PinMessage(c echo.Context) error {
	messageID, err := paramID(c, "message_id")
	if err != nil {
		return err
	}

	var req pinMessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	message, err := cc.chatUsecase.PinMessage(c.Request().Context(), messageID, req.Pinned)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, message)
}

func (cc *chatController) ListPinned(c echo.Context) error {
	channelID, err := paramID(c, "channel_id")
	if err != nil {
		return err
	}

	messages, err := cc.chatUsecase.GetPinnedMessages(c.Request().Context(), channelID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"messages": messages})
}

func (cc *chatController) GetThread(c echo.Context) error {
	rootID, err := paramID(c, "message_id")
	if err != nil {
		return err
	}

	view, err := cc.chatUsecase.GetThread(c.Request().Context(), rootID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, view)
}

type toggleReactionRequest struct {
	Emoji string `json:"emoji" validate:"required"`
}

func (cc *chatController) ToggleReaction(c echo.Context) error {
	messageID, err := paramID(c, "message_id")
	if err != nil {
		return err
	}

	var req toggleReactionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	groups, err := cc.chatUsecase.ToggleReaction(c.Request().Context(), messageID, pkgmdw.CurrentUser(c).ID, req.Emoji)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"reactions": groups})
}

func (cc *chatController) ListReactions(c echo.Context) error {
	messageID, err := paramID(c, "message_id")
	if err != nil {
		return err
	}

	groups, err := cc.chatUsecase.GetMessageReactions(c.Request().Context(), messageID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"reactions": groups})
}

type typingRequest struct {
	IsTyping bool `json:"is_typing"`
}

func (cc *chatController) Typing(c echo.Context) error {
	channelID, err := paramID(c, "channel_id")
	if err != nil {
		return err
	}

	var req typingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	cc.chatUsecase.Typing(c.Request().Context(), channelID, pkgmdw.CurrentUser(c).ID, req.IsTyping)
	return c.NoContent(http.StatusAccepted)
}

func (cc *chatController) ChannelNotes(c echo.Context) error {
	channelID, err := paramID(c, "channel_id")
	if err != nil {
		return err
	}

	notes, err := cc.aiUsecase.ChannelNotes(c.Request().Context(), channelID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"notes": notes})
}

func (cc *chatController) ChannelSentiment(c echo.Context) error {
	channelID, err := paramID(c, "channel_id")
	if err != nil {
		return err
	}

	report, err := cc.aiUsecase.ChannelSentiment(c.Request().Context(), channelID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, report)
}

func (cc *chatController) ThreadSummary(c echo.Context) error {
	rootID, err := paramID(c, "message_id")
	if err != nil {
		return err
	}

	summary, err := cc.aiUsecase.ThreadSummary(c.Request().Context(), rootID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"summary": summary})
}

func (cc *chatController) MessageTone(c echo.Context) error {
	messageID, err := paramID(c, "message_id")
	if err != nil {
		return err
	}

	tone, err := cc.aiUsecase.MessageTone(c.Request().Context(), messageID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"tone": tone})
}
