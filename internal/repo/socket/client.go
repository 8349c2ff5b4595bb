// Package socket talks to the external socket server that owns the
// websocket connections. Fan-out is addressed per user: the caller resolves
// channel membership first and the socket server routes each event to that
// user's live connections.
package socket

import (
	"context"
	"fmt"

	log "github.com/carousell/ct-go/pkg/logger/log_context"
	"github.com/go-resty/resty/v2"

	"github.com/tranbn/slackline/internal/config"
	"github.com/tranbn/slackline/pkg/util"
)

type Client struct {
	baseURL string
	token   string
	http    *resty.Client
}

type Event struct {
	UserID   string `json:"user_id"`
	Platform string `json:"platform,omitempty"`
	Name     string `json:"name"`
	Data     any    `json:"data"`
}

type sendEventsRequest struct {
	Events []Event `json:"events"`
}

type sendEventsResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func NewClient(cfg config.SocketConfig) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		token:   cfg.Token,
		http:    util.NewRestyClient(),
	}
}

func (c *Client) SendEvents(ctx context.Context, events []Event) error {
	if len(events) == 0 {
		return nil
	}

	var response sendEventsResponse
	req := c.http.R().
		SetContext(ctx).
		SetBody(sendEventsRequest{Events: events}).
		SetResult(&response).
		SetError(&response)
	if c.token != "" {
		req.SetAuthToken(c.token)
	}

	resp, err := req.Post(c.baseURL + "/v1/events")
	if err != nil {
		return fmt.Errorf("failed to send events: %w", err)
	}
	if resp.IsError() {
		if response.Error != "" {
			return fmt.Errorf("socket server error: %s", response.Error)
		}
		return fmt.Errorf("socket server returned status %d", resp.StatusCode())
	}
	if !response.Success {
		return fmt.Errorf("socket server returned success=false: %s", response.Error)
	}

	log.Debugw(ctx, "sent events to socket server", "event_count", len(events))
	return nil
}
