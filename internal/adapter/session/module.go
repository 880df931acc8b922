// Package session selects where ephemeral session state lives: Redis when an
// address is configured, process memory otherwise.
package session

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/paperdesk/internal/adapter/memory"
	"github.com/polkiloo/paperdesk/internal/adapter/redisstore"
	"github.com/polkiloo/paperdesk/internal/config"
	"github.com/polkiloo/paperdesk/internal/domain/repository"
)

// Module wires session state stores.
var Module = fx.Options(
	fx.Provide(NewBackend),
	fx.Provide(
		func(b *Backend) repository.CapabilityCache { return b.Capabilities },
		func(b *Backend) repository.TokenRevocations { return b.Revocations },
		func(b *Backend) repository.ApprovalBroker { return b.Broker },
		func(b *Backend) repository.CheckoutTracker { return b.Tracker },
	),
	fx.Invoke(registerLifecycle),
)

// Backend groups the stores of one backing service.
type Backend struct {
	Kind         string
	Capabilities repository.CapabilityCache
	Revocations  repository.TokenRevocations
	Broker       repository.ApprovalBroker
	Tracker      repository.CheckoutTracker
	close        func() error
}

type backendParams struct {
	fx.In

	Ctx    context.Context
	Config *config.Config
	Logger *slog.Logger
}

// NewBackend connects to Redis when configured.
func NewBackend(p backendParams) (*Backend, error) {
	if p.Config.RedisAddr == "" {
		p.Logger.Warn("redis is not configured, session state is kept in memory")
		return &Backend{
			Kind:         "memory",
			Capabilities: memory.NewCapabilityCache(p.Config.CapabilityTTL),
			Revocations:  memory.NewTokenRevocations(),
			Broker:       memory.NewApprovalBroker(),
			Tracker:      memory.NewCheckoutTracker(),
			close:        func() error { return nil },
		}, nil
	}

	rdb, err := redisstore.New(p.Ctx, p.Config.RedisAddr, p.Config.RedisPassword, p.Config.RedisDB)
	if err != nil {
		return nil, err
	}
	p.Logger.Info("session state backed by redis", slog.String("addr", p.Config.RedisAddr))
	return &Backend{
		Kind:         "redis",
		Capabilities: redisstore.NewCapabilityCache(rdb, p.Config.CapabilityTTL),
		Revocations:  redisstore.NewTokenRevocations(rdb),
		Broker:       redisstore.NewApprovalBroker(rdb),
		Tracker:      redisstore.NewCheckoutTracker(rdb),
		close:        rdb.Close,
	}, nil
}

// Close releases the backing connection.
func (b *Backend) Close() error {
	return b.close()
}

func registerLifecycle(lc fx.Lifecycle, backend *Backend) {
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return backend.Close()
		},
	})
}
