package inbound

import (
	"context"
	"errors"
	"log/slog"
	"slices"

	"github.com/shandysiswandi/otpgate/internal/pkg/config"
	"github.com/shandysiswandi/otpgate/internal/pkg/goroutine"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/messaging"
	"github.com/shandysiswandi/otpgate/internal/pkg/uid"
	"github.com/shandysiswandi/otpgate/internal/shared/event"
)

func RegisterMQConsumer(
	ctx context.Context,
	cfg config.Config,
	routine *goroutine.Manager,
	messenger messaging.Consumer,
	uuid uid.StringID,
	uc uc,
	ins instrument.Instrumentation,
) {
	mqHandler := &MQHandler{uc: uc, uuid: uuid, ins: ins}

	enableConsumerNames := cfg.GetArray("modules.notification.consumer_names")
	concurrency := cfg.GetInt("modules.notification.consumer_concurrency")

	var consumers = []struct {
		name    string
		topic   string // destination where publisher sent message
		group   string // nsq channel / nats queue group
		handler messaging.Handler
	}{
		{
			name:    event.OTPIssuedDestinationConsumerNotification,
			topic:   event.OTPIssuedDestination,
			group:   event.OTPIssuedDestinationConsumerNotification,
			handler: mqHandler.OTPIssuedNotification,
		},
	}

	for _, consumer := range consumers {
		if !slices.Contains(enableConsumerNames, consumer.name) {
			continue
		}

		routine.Go(ctx, func(pCtx context.Context) error {
			slog.InfoContext(pCtx, "Running job for handling consumer", "consumer", consumer.name)
			err := messenger.Consume(ctx,
				consumer.topic,
				consumer.handler,
				messaging.WithGroup(consumer.group),
				messaging.WithConcurrency(concurrency),
			)
			if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, messaging.ErrClosed) {
				slog.ErrorContext(pCtx, "consumer stopped", "consumer", consumer.name, "error", err)
				return err
			}
			return nil
		})
	}
}
