package app

import (
	"context"
	"time"

	"go.uber.org/fx"

	"github.com/tranbn/slackline/internal/config"
	"github.com/tranbn/slackline/internal/kafka"
	"github.com/tranbn/slackline/internal/repo/mongodb"
	"github.com/tranbn/slackline/internal/repo/socket"
	"github.com/tranbn/slackline/internal/usecase"
)

func authConfig(conf *config.Config) config.AuthConfig {
	return conf.Auth
}

func databaseConfig(conf *config.Config) config.DatabaseConfig {
	return conf.Database
}

func kafkaConfig(conf *config.Config) config.KafkaConfig {
	return conf.Kafka
}

func socketConfig(conf *config.Config) config.SocketConfig {
	return conf.Socket
}

func syncConfig(conf *config.Config) config.SyncConfig {
	return conf.Sync
}

func newMongoDB(lc fx.Lifecycle, cfg config.DatabaseConfig) (*mongodb.DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := mongodb.NewConnection(ctx, cfg)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return mongodb.EnsureIndexes(ctx, db)
		},
		OnStop: func(ctx context.Context) error {
			return db.Close(ctx)
		},
	})
	return db, nil
}

func newPublisher(lc fx.Lifecycle, cfg config.KafkaConfig) kafka.Publisher {
	publisher := kafka.NewPublisher(cfg)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return publisher.Close()
		},
	})
	return publisher
}

func newSocketClient(cfg config.SocketConfig) *socket.Client {
	return socket.NewClient(cfg)
}

func newSocketBroadcaster(client *socket.Client) usecase.SocketBroadcaster {
	return socket.NewBroadcaster(client)
}

func closeSessionsOnShutdown(lc fx.Lifecycle, view *usecase.ChannelViewUsecase) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			view.CloseAll()
			return nil
		},
	})
}
