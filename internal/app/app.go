package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/polkiloo/paperdesk/internal/adapter/notify"
	"github.com/polkiloo/paperdesk/internal/adapter/paypal"
	"github.com/polkiloo/paperdesk/internal/checkout"
	"github.com/polkiloo/paperdesk/internal/config"
	"github.com/polkiloo/paperdesk/internal/domain/repository"
	"github.com/polkiloo/paperdesk/internal/server/http/handlers"
	"github.com/polkiloo/paperdesk/internal/storage/postgres"
	"github.com/polkiloo/paperdesk/internal/usecase"
	"github.com/polkiloo/paperdesk/internal/worker"
)

// Module wires application services, runtime components, and lifecycle hooks.
var Module = fx.Options(
	fx.Provide(
		newDeskFacade,
		func(f *DeskFacade) handlers.DeskFacade { return f },
		newHTTPServer,
		newReconciler,
	),
	fx.Invoke(registerLifecycle),
)

type facadeParams struct {
	fx.In

	Auth         *usecase.AuthUseCase
	Capabilities *usecase.CapabilityService
	Orders       *usecase.OrderUseCase
	Admin        *usecase.AdminUseCase
	Sequencer    *checkout.Sequencer
	Broker       repository.ApprovalBroker
	Tracker      repository.CheckoutTracker
	Storage      *postgres.Storage
	Logger       *slog.Logger
}

func newDeskFacade(p facadeParams) *DeskFacade {
	return NewDeskFacade(FacadeDeps{
		Auth:         p.Auth,
		Capabilities: p.Capabilities,
		Orders:       p.Orders,
		Admin:        p.Admin,
		Sequencer:    p.Sequencer,
		Broker:       p.Broker,
		Tracker:      p.Tracker,
		Health:       p.Storage,
		Logger:       p.Logger,
	})
}

type serverParams struct {
	fx.In

	Config *config.Config
	Router *gin.Engine
}

func newHTTPServer(p serverParams) *http.Server {
	return &http.Server{
		Addr:    p.Config.RunAddress,
		Handler: p.Router,
	}
}

type reconcilerParams struct {
	fx.In

	Payments repository.PaymentRepository
	Orders   repository.OrderRepository
	Gateway  paypal.Gateway
	Notifier notify.Notifier
	Config   *config.Config
	Logger   *slog.Logger
}

func newReconciler(p reconcilerParams) *worker.Reconciler {
	return worker.NewReconciler(p.Payments, p.Orders, p.Gateway, p.Notifier, ReconcilerOptions(p.Config), p.Logger)
}

// ReconcilerOptions derives worker settings from configuration. The approval
// window matches the one checkouts wait for.
func ReconcilerOptions(cfg *config.Config) worker.ReconcilerOptions {
	return worker.ReconcilerOptions{
		Interval:    cfg.ReconcileInterval,
		Grace:       cfg.ReconcileGrace,
		ApprovalTTL: cfg.ApprovalTimeout,
		BatchSize:   cfg.ReconcileBatch,
		Workers:     cfg.WorkerPoolSize,
	}
}

type lifecycleParams struct {
	fx.In

	Lifecycle  fx.Lifecycle
	Shutdowner fx.Shutdowner
	Logger     *slog.Logger
	Server     *http.Server
	Worker     *worker.Reconciler
	Facade     *DeskFacade
	Config     *config.Config
}

func registerLifecycle(p lifecycleParams) {
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			p.Logger.Info("starting paperdesk", slog.String("addr", p.Server.Addr))
			p.Worker.Start(ctx)
			go func() {
				if err := p.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					p.Logger.Error("http server terminated", slog.String("error", err.Error()))
					_ = p.Shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx := ctx
			cancel := func() {}
			if _, ok := ctx.Deadline(); !ok {
				shutdownCtx, cancel = context.WithTimeout(ctx, p.Config.ShutdownTimeout)
			}
			defer cancel()

			if err := p.Server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			if err := p.Facade.Close(shutdownCtx); err != nil {
				p.Logger.Warn("checkouts still running at shutdown", slog.String("error", err.Error()))
			}
			p.Worker.Stop()
			p.Logger.Info("paperdesk stopped")
			return nil
		},
	})
}
