package server

import (
	"context"
	"errors"
	"net/http"
	"regexp"

	"github.com/carousell/ct-go/pkg/logger"
	log "github.com/carousell/ct-go/pkg/logger/log_context"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/fx"

	"github.com/tranbn/slackline/internal/config"
	pkgmdw "github.com/tranbn/slackline/internal/server/middleware"
	"github.com/tranbn/slackline/internal/usecase"
)

func StartServer(
	lc fx.Lifecycle,
	sd fx.Shutdowner,
	conf *config.Config,
	authUsecase *usecase.AuthUseCase,
	auth AuthController,
	chat ChatController,
	workspace WorkspaceController,
	view ViewController,
) {
	e := echo.New()
	e.HideBanner = true
	e.Validator = pkgmdw.NewValidator()
	e.HTTPErrorHandler = pkgmdw.ErrorHandler(logger.MustNamed("http"))

	logConfig := pkgmdw.LogRequestConfig{
		Logger: logger.MustNamed("http"),
		Enabled: func(c echo.Context) bool {
			uri := c.Request().RequestURI
			return uri != "/health" && uri != "/metrics"
		},
		KeyAndValues: func(c echo.Context) []any {
			args := make([]any, 0, 2)
			if user := pkgmdw.CurrentUser(c); user != nil {
				args = append(args, "user_id", user.ID.Hex())
			}
			return args
		},
	}

	e.Use(pkgmdw.CORS(regexp.MustCompile(conf.Server.CORSOrigins)))
	e.Use(pkgmdw.Metrics())
	e.Use(pkgmdw.RequestID())
	e.Use(pkgmdw.LogRequest(logConfig))
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			log.Errorw(c.Request().Context(), "PANIC RECOVER", "error", err, "stack", string(stack))
			return nil
		},
	}))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	api := e.Group("/api/v1")
	api.POST("/auth/login", auth.Login)

	authed := api.Group("", pkgmdw.JWTAuth(authUsecase))
	authed.POST("/auth/logout", auth.Logout)
	authed.GET("/me", auth.GetProfile)
	authed.PATCH("/me", auth.UpdateProfile)
	authed.PUT("/me/presence", workspace.UpdatePresence)

	authed.POST("/workspaces", workspace.CreateWorkspace)
	authed.GET("/workspaces", workspace.ListWorkspaces)
	authed.GET("/workspaces/:workspace_id", workspace.GetWorkspace)
	authed.POST("/workspaces/:workspace_id/join", workspace.JoinWorkspace)
	authed.GET("/workspaces/:workspace_id/members", workspace.ListWorkspaceMembers)
	authed.POST("/workspaces/:workspace_id/channels", workspace.CreateChannel)
	authed.GET("/workspaces/:workspace_id/channels", workspace.ListChannels)

	authed.POST("/channels/:channel_id/join", workspace.JoinChannel)
	authed.POST("/channels/:channel_id/invite", workspace.InviteToChannel)
	authed.POST("/channels/:channel_id/leave", workspace.LeaveChannel)
	authed.POST("/channels/:channel_id/archive", workspace.ArchiveChannel)
	authed.GET("/channels/:channel_id/members", workspace.ListChannelMembers)

	authed.GET("/channels/:channel_id/messages", chat.ListMessages)
	authed.POST("/channels/:channel_id/messages", chat.SendMessage)
	authed.GET("/channels/:channel_id/pins", chat.ListPinned)
	authed.POST("/channels/:channel_id/typing", chat.Typing)
	authed.GET("/channels/:channel_id/notes", chat.ChannelNotes)
	authed.GET("/channels/:channel_id/sentiment", chat.ChannelSentiment)

	authed.PATCH("/messages/:message_id", chat.EditMessage)
	authed.DELETE("/messages/:message_id", chat.DeleteMessage)
	authed.PUT("/messages/:message_id/pin", chat.PinMessage)
	authed.GET("/messages/:message_id/thread", chat.GetThread)
	authed.GET("/messages/:message_id/thread/summary", chat.ThreadSummary)
	authed.GET("/messages/:message_id/tone", chat.MessageTone)
	authed.POST("/messages/:message_id/reactions", chat.ToggleReaction)
	authed.GET("/messages/:message_id/reactions", chat.ListReactions)

	authed.POST("/sessions", view.OpenSession)
	authed.PUT("/sessions/:session_id/channel", view.SwitchChannel)
	authed.POST("/sessions/:session_id/messages", view.Send)
	authed.GET("/sessions/:session_id/messages", view.Messages)
	authed.GET("/sessions/:session_id/threads", view.Threads)
	authed.DELETE("/sessions/:session_id", view.CloseSession)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Infow(ctx, "starting HTTP server", "addr", conf.Server.Addr())
				if err := e.Start(conf.Server.Addr()); !errors.Is(err, http.ErrServerClosed) {
					sd.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return e.Shutdown(ctx)
		},
	})
}
