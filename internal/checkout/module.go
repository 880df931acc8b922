package checkout

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/paperdesk/internal/adapter/notify"
	"github.com/polkiloo/paperdesk/internal/adapter/paypal"
	"github.com/polkiloo/paperdesk/internal/config"
	"github.com/polkiloo/paperdesk/internal/domain/repository"
)

// Module provides the checkout Sequencer.
var Module = fx.Provide(newSequencer)

type sequencerParams struct {
	fx.In

	Config      *config.Config
	Logger      *slog.Logger
	Gateway     paypal.Gateway
	Payments    repository.PaymentRepository
	Orders      repository.OrderRepository
	Attachments repository.AttachmentRepository
	Objects     repository.ObjectStore
	Broker      repository.ApprovalBroker
	Tracker     repository.CheckoutTracker
	Notifier    notify.Notifier
}

func newSequencer(p sequencerParams) *Sequencer {
	return NewSequencer(Deps{
		Gateway:     p.Gateway,
		Payments:    p.Payments,
		Orders:      p.Orders,
		Attachments: p.Attachments,
		Objects:     p.Objects,
		Broker:      p.Broker,
		Tracker:     p.Tracker,
		Notifier:    p.Notifier,
		Logger:      p.Logger,
	}, Options{
		ApprovalTimeout:   p.Config.ApprovalTimeout,
		UploadConcurrency: p.Config.UploadConcurrency,
	})
}
