package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/polkiloo/paperdesk/internal/adapter/notify"
	domainErrors "github.com/polkiloo/paperdesk/internal/domain/errors"
	"github.com/polkiloo/paperdesk/internal/domain/model"
	"github.com/polkiloo/paperdesk/internal/domain/repository"
	pkgAuth "github.com/polkiloo/paperdesk/internal/pkg/auth"
)

// SignUp carries registration details.
type SignUp struct {
	Email     string `validate:"required,email,max=254"`
	Password  string `validate:"required"`
	FirstName string `validate:"max=100"`
	LastName  string `validate:"max=100"`
}

// Session is an authenticated profile with its signed token.
type Session struct {
	Profile *model.Profile
	Token   string
	Claims  pkgAuth.Claims
}

// AuthOptions configures password reset delivery.
type AuthOptions struct {
	ResetTTL time.Duration
	// ResetURL is the frontend page that accepts ?token=.
	ResetURL string
}

// AuthUseCase handles profile sign-up, sign-in and password recovery.
type AuthUseCase struct {
	profiles     repository.ProfileRepository
	resets       repository.PasswordResetRepository
	hasher       pkgAuth.PasswordHasher
	tokens       pkgAuth.Strategy
	revocations  repository.TokenRevocations
	capabilities *CapabilityService
	notifier     notify.Notifier
	opts         AuthOptions
	logger       *slog.Logger
	validate     *validator.Validate
	now          func() time.Time
}

// NewAuthUseCase constructs AuthUseCase.
func NewAuthUseCase(
	profiles repository.ProfileRepository,
	resets repository.PasswordResetRepository,
	hasher pkgAuth.PasswordHasher,
	strategy pkgAuth.Strategy,
	revocations repository.TokenRevocations,
	capabilities *CapabilityService,
	notifier notify.Notifier,
	opts AuthOptions,
	logger *slog.Logger,
) *AuthUseCase {
	if opts.ResetTTL <= 0 {
		opts.ResetTTL = time.Hour
	}
	return &AuthUseCase{
		profiles:     profiles,
		resets:       resets,
		hasher:       hasher,
		tokens:       strategy,
		revocations:  revocations,
		capabilities: capabilities,
		notifier:     notifier,
		opts:         opts,
		logger:       logger,
		validate:     validator.New(),
		now:          time.Now,
	}
}

// Register creates a client profile and signs it in.
func (u *AuthUseCase) Register(ctx context.Context, in SignUp) (*Session, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	if err := u.validate.Struct(in); err != nil {
		return nil, domainErrors.ErrInvalidCredentials
	}

	hash, err := u.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	profile, err := u.profiles.Create(ctx, model.Profile{
		Email:        in.Email,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		IsActive:     true,
	})
	if err != nil {
		if errors.Is(err, domainErrors.ErrAlreadyExists) {
			return nil, domainErrors.ErrAlreadyExists
		}
		return nil, err
	}

	return u.issue(profile)
}

// Authenticate validates credentials and returns a new session.
func (u *AuthUseCase) Authenticate(ctx context.Context, email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, domainErrors.ErrInvalidCredentials
	}

	profile, err := u.profiles.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			return nil, domainErrors.ErrInvalidCredentials
		}
		return nil, err
	}

	if !profile.IsActive {
		return nil, domainErrors.ErrInvalidCredentials
	}
	if err := u.hasher.Compare(profile.PasswordHash, password); err != nil {
		return nil, domainErrors.ErrInvalidCredentials
	}

	return u.issue(profile)
}

func (u *AuthUseCase) issue(profile *model.Profile) (*Session, error) {
	token, claims, err := u.tokens.IssueToken(profile.ID)
	if err != nil {
		return nil, err
	}
	return &Session{Profile: profile, Token: token, Claims: claims}, nil
}

// Authorize verifies the token and rejects signed-out sessions.
func (u *AuthUseCase) Authorize(ctx context.Context, token string) (pkgAuth.Claims, error) {
	if token == "" {
		return pkgAuth.Claims{}, pkgAuth.ErrInvalidToken
	}
	claims, err := u.tokens.ParseToken(token)
	if err != nil {
		return pkgAuth.Claims{}, err
	}
	revoked, err := u.revocations.IsRevoked(ctx, claims.TokenID)
	if err != nil {
		return pkgAuth.Claims{}, err
	}
	if revoked {
		return pkgAuth.Claims{}, pkgAuth.ErrInvalidToken
	}
	return claims, nil
}

// Logout revokes the session until it would have expired anyway.
func (u *AuthUseCase) Logout(ctx context.Context, claims pkgAuth.Claims) error {
	if err := u.revocations.Revoke(ctx, claims.TokenID, claims.ExpiresAt); err != nil {
		return err
	}
	if err := u.capabilities.Invalidate(ctx, claims.UserID); err != nil {
		u.logger.Warn("capability cache invalidation failed", slog.String("profile_id", claims.UserID.String()), slog.String("error", err.Error()))
	}
	return nil
}

// RequestPasswordReset issues a single-use token and hands it to the
// notifier. Unknown emails succeed silently.
func (u *AuthUseCase) RequestPasswordReset(ctx context.Context, email string) error {
	profile, err := u.profiles.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			return nil
		}
		return err
	}
	if !profile.IsActive {
		return nil
	}

	token := uuid.NewString()
	expires := u.now().UTC().Add(u.opts.ResetTTL)
	if err := u.resets.Create(ctx, model.PasswordReset{
		TokenHash: HashResetToken(token),
		ProfileID: profile.ID,
		ExpiresAt: expires,
	}); err != nil {
		return err
	}

	return u.notifier.PasswordResetRequested(ctx, notify.PasswordResetRequested{
		ProfileID: profile.ID,
		Email:     profile.Email,
		Link:      u.opts.ResetURL + "?token=" + token,
		ExpiresAt: expires,
	})
}

// ResetPassword consumes the token and stores the new password.
func (u *AuthUseCase) ResetPassword(ctx context.Context, token, password string) error {
	if strings.TrimSpace(token) == "" {
		return domainErrors.ErrResetTokenInvalid
	}
	hash, err := u.hasher.Hash(password)
	if err != nil {
		return err
	}

	reset, err := u.resets.Consume(ctx, HashResetToken(strings.TrimSpace(token)), u.now().UTC())
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			return domainErrors.ErrResetTokenInvalid
		}
		return err
	}

	return u.profiles.UpdatePassword(ctx, reset.ProfileID, hash)
}

// Profile returns the profile behind a session.
func (u *AuthUseCase) Profile(ctx context.Context, id uuid.UUID) (*model.Profile, error) {
	return u.profiles.GetByID(ctx, id)
}

// UpdateProfile changes name parts only.
func (u *AuthUseCase) UpdateProfile(ctx context.Context, id uuid.UUID, firstName, lastName string) (*model.Profile, error) {
	return u.profiles.UpdateName(ctx, id, strings.TrimSpace(firstName), strings.TrimSpace(lastName))
}

// HashResetToken is the digest stored for a reset token.
func HashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
