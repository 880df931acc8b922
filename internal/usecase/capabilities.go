package usecase

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/polkiloo/paperdesk/internal/domain/model"
	"github.com/polkiloo/paperdesk/internal/domain/repository"
)

// AdminAllowList reports whether an email is granted admin rights by
// configuration.
type AdminAllowList interface {
	IsAdminEmail(email string) bool
}

// CapabilityService resolves what a profile may do.
type CapabilityService struct {
	profiles repository.ProfileRepository
	cache    repository.CapabilityCache
	admins   AdminAllowList
	logger   *slog.Logger
}

// NewCapabilityService constructs CapabilityService.
func NewCapabilityService(profiles repository.ProfileRepository, cache repository.CapabilityCache, admins AdminAllowList, logger *slog.Logger) *CapabilityService {
	return &CapabilityService{profiles: profiles, cache: cache, admins: admins, logger: logger}
}

// Capabilities returns the cached set or resolves it from the profile.
func (s *CapabilityService) Capabilities(ctx context.Context, profileID uuid.UUID) (model.Capabilities, error) {
	caps, ok, err := s.cache.Get(ctx, profileID)
	if err != nil {
		s.logger.Warn("capability cache read failed", slog.String("profile_id", profileID.String()), slog.String("error", err.Error()))
	} else if ok {
		return caps, nil
	}

	profile, err := s.profiles.GetByID(ctx, profileID)
	if err != nil {
		return model.Capabilities{}, err
	}
	caps = s.resolve(profile)

	if err := s.cache.Set(ctx, profileID, caps); err != nil {
		s.logger.Warn("capability cache write failed", slog.String("profile_id", profileID.String()), slog.String("error", err.Error()))
	}
	return caps, nil
}

func (s *CapabilityService) resolve(p *model.Profile) model.Capabilities {
	if !p.IsActive {
		return model.Capabilities{}
	}
	return model.Capabilities{
		Admin:  p.IsAdmin || s.admins.IsAdminEmail(p.Email),
		Writer: p.IsWriter,
	}
}

// Invalidate drops the cached set so the next lookup reads the profile.
func (s *CapabilityService) Invalidate(ctx context.Context, profileID uuid.UUID) error {
	return s.cache.Invalidate(ctx, profileID)
}

// SetRole flips a role flag on the profile found by email and drops its
// cached capabilities.
func (s *CapabilityService) SetRole(ctx context.Context, email string, role model.Role, enabled bool) (*model.Profile, error) {
	profile, err := s.profiles.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if err := s.profiles.SetRole(ctx, profile.ID, role, enabled); err != nil {
		return nil, err
	}
	if err := s.cache.Invalidate(ctx, profile.ID); err != nil {
		s.logger.Warn("capability cache invalidation failed", slog.String("profile_id", profile.ID.String()), slog.String("error", err.Error()))
	}
	switch role {
	case model.RoleAdmin:
		profile.IsAdmin = enabled
	case model.RoleWriter:
		profile.IsWriter = enabled
	}
	return profile, nil
}
