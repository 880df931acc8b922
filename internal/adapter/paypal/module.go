package paypal

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/paperdesk/internal/config"
)

// Module exposes the PayPal gateway to the fx graph.
var Module = fx.Provide(newGateway)

type gatewayParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

func newGateway(p gatewayParams) (Gateway, error) {
	return NewClient(Options{
		BaseURL:      p.Config.PayPalBaseURL,
		ClientID:     p.Config.PayPalClientID,
		ClientSecret: p.Config.PayPalClientSecret,
		ReturnURL:    p.Config.PublicURL + "/api/checkout/return",
		CancelURL:    p.Config.PublicURL + "/api/checkout/cancel",
		BrandName:    p.Config.ServiceName,
		Timeout:      p.Config.PayPalTimeout,
	}, p.Logger)
}
