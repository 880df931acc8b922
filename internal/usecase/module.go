package usecase

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/paperdesk/internal/adapter/notify"
	"github.com/polkiloo/paperdesk/internal/config"
	"github.com/polkiloo/paperdesk/internal/domain/repository"
	pkgAuth "github.com/polkiloo/paperdesk/internal/pkg/auth"
)

// Module provides core business use cases to the fx container.
var Module = fx.Provide(
	newCapabilityService,
	newAuthUseCase,
	NewOrderUseCase,
	newAdminUseCase,
)

func newCapabilityService(profiles repository.ProfileRepository, cache repository.CapabilityCache, cfg *config.Config, logger *slog.Logger) *CapabilityService {
	return NewCapabilityService(profiles, cache, cfg, logger)
}

type authParams struct {
	fx.In

	Profiles     repository.ProfileRepository
	Resets       repository.PasswordResetRepository
	Hasher       pkgAuth.PasswordHasher
	Strategy     pkgAuth.Strategy
	Revocations  repository.TokenRevocations
	Capabilities *CapabilityService
	Notifier     notify.Notifier
	Config       *config.Config
	Logger       *slog.Logger
}

func newAuthUseCase(p authParams) *AuthUseCase {
	return NewAuthUseCase(p.Profiles, p.Resets, p.Hasher, p.Strategy, p.Revocations, p.Capabilities, p.Notifier, AuthOptions{
		ResetTTL: p.Config.ResetTTL,
		ResetURL: p.Config.FrontendURL + "/reset-password",
	}, p.Logger)
}

func newAdminUseCase(orders repository.OrderRepository, profiles repository.ProfileRepository, cfg *config.Config, logger *slog.Logger) *AdminUseCase {
	return NewAdminUseCase(orders, profiles, AdminOptions{AllowAnyTransition: cfg.AllowAnyTransition}, logger)
}
