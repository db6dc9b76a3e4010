package inbound

import (
	"context"
	"errors"
	"log/slog"
	"slices"

	"github.com/samber/lo"
	"github.com/shandysiswandi/otpgate/internal/pkg/config"
	"github.com/shandysiswandi/otpgate/internal/pkg/goroutine"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/messaging"
	"github.com/shandysiswandi/otpgate/internal/pkg/uid"
	"github.com/shandysiswandi/otpgate/internal/shared/event"
)

type consumer struct {
	name    string
	topic   string // destination where publisher sent message
	group   string // nsq channel, nats queue, kafka group or pubsub subscription
	handler messaging.Handler
}

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

	consumers := []consumer{
		{
			name:    event.OTPDeliveryConsumerNotification,
			topic:   event.OTPDeliveryDestination,
			group:   event.OTPDeliveryConsumerNotification,
			handler: mqHandler.OTPDeliveryNotification,
		},
	}

	enabled := cfg.GetArray("modules.notification.consumer_names")
	consumers = lo.Filter(consumers, func(c consumer, _ int) bool {
		return slices.Contains(enabled, c.name)
	})

	concurrency := cfg.GetInt("modules.notification.concurrency")
	attempts := cfg.GetInt("modules.notification.max_attempts")

	for _, c := range consumers {
		routine.Go(ctx, "consumer:"+c.name, func(pCtx context.Context) error {
			slog.InfoContext(ctx, "Running job for handling consumer", "consumer", c.name)
			err := messenger.Consume(pCtx,
				c.topic,
				c.handler,
				messaging.WithGroup(c.group),
				messaging.WithConcurrency(concurrency),
				messaging.WithAttempts(attempts),
			)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}
}
