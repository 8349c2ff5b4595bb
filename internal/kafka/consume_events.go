package kafka

import (
	"context"

	log "github.com/carousell/ct-go/pkg/logger/log_context"
	"go.uber.org/fx"

	"github.com/tranbn/slackline/internal/config"
)

// StartConsumeEvents runs the change-feed consumer for the process lifetime.
// Every instance consumes the full topic so its live sessions see changes
// made anywhere in the cluster.
func StartConsumeEvents(
	sd fx.Shutdowner,
	lc fx.Lifecycle,
	conf *config.Config,
	handler EnvelopeHandler,
) error {
	consumer, err := NewConsumer(conf.Kafka, handler)
	if err != nil {
		return err
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := consumer.Start(context.Background()); err != nil {
					log.Errorw(context.Background(), "kafka consumer stopped", "error", err)
					sd.Shutdown()
				}
			}()
			return nil
		},
		OnStop: consumer.Stop,
	})
	return nil
}
