package auth

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid auth token")

// Claims is the identity carried by a session token.
type Claims struct {
	UserID    uuid.UUID
	TokenID   string
	ExpiresAt time.Time
}

// Strategy issues and verifies session tokens.
type Strategy interface {
	IssueToken(userID uuid.UUID) (string, Claims, error)
	ParseToken(token string) (Claims, error)
	Name() string
}

type Options struct {
	TTL    time.Duration
	Issuer string
}
