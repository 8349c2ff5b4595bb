package app

import (
	"github.com/carousell/ct-go/pkg/logger"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap/zapcore"

	"github.com/tranbn/slackline/internal/config"
	"github.com/tranbn/slackline/internal/kafka"
	"github.com/tranbn/slackline/internal/repo/mongodb"
	"github.com/tranbn/slackline/internal/repo/realtime"
	"github.com/tranbn/slackline/internal/server"
	"github.com/tranbn/slackline/internal/usecase"
)

func Invoke(funcs ...any) *fx.App {
	log := logger.MustNamed("app")
	conf := config.MustLoad()
	log.Debugw("config loaded", log.Reflect("config", conf))
	return fx.New(
		fx.WithLogger(func() fxevent.Logger {
			l := &fxevent.ZapLogger{
				Logger: log.Unwrap().Desugar(),
			}
			l.UseLogLevel(zapcore.DebugLevel)
			return l
		}),
		fx.Provide(
			authConfig,
			databaseConfig,
			kafkaConfig,
			socketConfig,
			syncConfig,

			newMongoDB,
			newPublisher,
			newSocketClient,
			newSocketBroadcaster,
			realtime.NewDispatcher,
			kafka.NewEnvelopeHandler,

			mongodb.NewUserRepository,
			mongodb.NewAuthTokenRepository,
			mongodb.NewWorkspaceRepository,
			mongodb.NewWorkspaceMemberRepository,
			mongodb.NewChannelRepository,
			mongodb.NewChannelMemberRepository,
			mongodb.NewMessageRepository,
			mongodb.NewReactionRepository,

			usecase.NewAuthUseCase,
			usecase.NewChatUseCase,
			usecase.NewWorkspaceUseCase,
			usecase.NewChannelViewUsecase,
			usecase.NewAIUsecase,

			server.NewAuthController,
			server.NewChatController,
			server.NewWorkspaceController,
			server.NewViewController,
		),
		fx.Supply(conf),
		fx.Invoke(closeSessionsOnShutdown),
		fx.Invoke(funcs...),
	)
}
