package test

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/polkiloo/paperdesk/internal/domain/model"
	pkgAuth "github.com/polkiloo/paperdesk/internal/pkg/auth"
)

// HasherStub provides deterministic hashing for tests.
type HasherStub struct {
	HashFn    func(string) (string, error)
	CompareFn func(string, string) error
}

// Hash returns a predictable hash for the supplied password.
func (h HasherStub) Hash(password string) (string, error) {
	if h.HashFn != nil {
		return h.HashFn(password)
	}
	if len(password) < pkgAuth.MinPasswordLength {
		return "", pkgAuth.ErrWeakPassword
	}
	return "hash:" + password, nil
}

// Compare validates password against stored hash.
func (h HasherStub) Compare(hash string, password string) error {
	if h.CompareFn != nil {
		return h.CompareFn(hash, password)
	}
	if hash != "hash:"+password {
		return errors.New("mismatch")
	}
	return nil
}

// StrategyStub issues "token:<uuid>:<jti>" strings unless overridden.
type StrategyStub struct {
	IssueFn func(uuid.UUID) (string, pkgAuth.Claims, error)
	ParseFn func(string) (pkgAuth.Claims, error)
	TTL     time.Duration
	NameVal string
}

// IssueToken returns deterministic tokens for tests.
func (s StrategyStub) IssueToken(userID uuid.UUID) (string, pkgAuth.Claims, error) {
	if s.IssueFn != nil {
		return s.IssueFn(userID)
	}
	ttl := s.TTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	claims := pkgAuth.Claims{UserID: userID, TokenID: uuid.NewString(), ExpiresAt: time.Now().Add(ttl)}
	return "token:" + userID.String() + ":" + claims.TokenID, claims, nil
}

// ParseToken parses strings produced by IssueToken.
func (s StrategyStub) ParseToken(token string) (pkgAuth.Claims, error) {
	if s.ParseFn != nil {
		return s.ParseFn(token)
	}
	parts := strings.Split(token, ":")
	if len(parts) != 3 || parts[0] != "token" {
		return pkgAuth.Claims{}, pkgAuth.ErrInvalidToken
	}
	id, err := uuid.Parse(parts[1])
	if err != nil {
		return pkgAuth.Claims{}, pkgAuth.ErrInvalidToken
	}
	return pkgAuth.Claims{UserID: id, TokenID: parts[2], ExpiresAt: time.Now().Add(time.Hour)}, nil
}

// Name returns the strategy identifier used in tests.
func (s StrategyStub) Name() string {
	if s.NameVal != "" {
		return s.NameVal
	}
	return "stub"
}

var _ pkgAuth.PasswordHasher = HasherStub{}
var _ pkgAuth.Strategy = StrategyStub{}

// AuthorizerStub implements the middleware authorization contract.
type AuthorizerStub struct {
	Claims          pkgAuth.Claims
	Err             error
	Caps            model.Capabilities
	CapabilitiesErr error
	AuthorizeFn     func(context.Context, string) (pkgAuth.Claims, error)
}

// Authorize either delegates to override or returns predefined result.
func (s *AuthorizerStub) Authorize(ctx context.Context, token string) (pkgAuth.Claims, error) {
	if s.AuthorizeFn != nil {
		return s.AuthorizeFn(ctx, token)
	}
	if s.Err != nil {
		return pkgAuth.Claims{}, s.Err
	}
	claims := s.Claims
	if claims.UserID == uuid.Nil {
		claims.UserID = uuid.New()
	}
	return claims, nil
}

// Capabilities returns predefined capabilities.
func (s *AuthorizerStub) Capabilities(ctx context.Context, profileID uuid.UUID) (model.Capabilities, error) {
	if s.CapabilitiesErr != nil {
		return model.Capabilities{}, s.CapabilitiesErr
	}
	return s.Caps, nil
}
