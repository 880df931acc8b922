package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/polkiloo/paperdesk/internal/domain/model"
)

// ProfileRepository describes persistence operations for profiles.
type ProfileRepository interface {
	Create(ctx context.Context, profile model.Profile) (*model.Profile, error)
	GetByEmail(ctx context.Context, email string) (*model.Profile, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Profile, error)
	UpdateName(ctx context.Context, id uuid.UUID, firstName, lastName string) (*model.Profile, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	SetRole(ctx context.Context, id uuid.UUID, role model.Role, enabled bool) error
	ListClients(ctx context.Context) ([]model.Profile, error)
	ListWriters(ctx context.Context) ([]model.Profile, error)
}

// PasswordResetRepository stores single-use password reset tokens.
type PasswordResetRepository interface {
	Create(ctx context.Context, reset model.PasswordReset) error
	// Consume marks an unexpired, unused token as used and returns it.
	Consume(ctx context.Context, tokenHash string, now time.Time) (*model.PasswordReset, error)
}
