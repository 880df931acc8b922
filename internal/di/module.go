// Package di composes the application graph.
package di

import (
	"go.uber.org/fx"

	"github.com/polkiloo/paperdesk/internal/adapter/filestore"
	"github.com/polkiloo/paperdesk/internal/adapter/notify"
	"github.com/polkiloo/paperdesk/internal/adapter/paypal"
	"github.com/polkiloo/paperdesk/internal/adapter/session"
	"github.com/polkiloo/paperdesk/internal/app"
	"github.com/polkiloo/paperdesk/internal/checkout"
	"github.com/polkiloo/paperdesk/internal/config"
	"github.com/polkiloo/paperdesk/internal/logger"
	"github.com/polkiloo/paperdesk/internal/pkg/auth"
	"github.com/polkiloo/paperdesk/internal/server/http/router"
	"github.com/polkiloo/paperdesk/internal/storage/postgres"
	"github.com/polkiloo/paperdesk/internal/telemetry"
	"github.com/polkiloo/paperdesk/internal/usecase"
)

// Infrastructure provides configuration, logging, tracing, storage and the
// session stores. The CLI reuses it without the HTTP surface.
func Infrastructure() fx.Option {
	return fx.Options(
		config.Module,
		logger.Module,
		telemetry.Module,
		postgres.Module,
		session.Module,
		notify.Module,
	)
}

// Module wires the complete service. Extra options are applied last so tests
// can replace components.
func Module(opts ...fx.Option) fx.Option {
	modules := []fx.Option{
		Infrastructure(),
		auth.Module,
		filestore.Module,
		paypal.Module,
		usecase.Module,
		checkout.Module,
		router.Module,
		app.Module,
	}
	modules = append(modules, opts...)
	return fx.Options(modules...)
}
