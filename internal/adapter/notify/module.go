package notify

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/paperdesk/internal/config"
)

// Module provides the Notifier: Kafka when brokers are configured.
var Module = fx.Provide(newNotifier)

type notifierParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    *config.Config
	Logger    *slog.Logger
}

func newNotifier(p notifierParams) Notifier {
	if len(p.Config.KafkaBrokers) == 0 {
		return NewLogNotifier(p.Logger)
	}

	n := NewKafkaNotifier(p.Config.KafkaBrokers, p.Config.KafkaTopic, p.Logger)
	p.Lifecycle.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return n.Close()
		},
	})
	return n
}
