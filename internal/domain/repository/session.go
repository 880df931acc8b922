package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/polkiloo/paperdesk/internal/domain/model"
)

// CapabilityCache memoizes resolved capabilities per profile.
type CapabilityCache interface {
	Get(ctx context.Context, profileID uuid.UUID) (model.Capabilities, bool, error)
	Set(ctx context.Context, profileID uuid.UUID, caps model.Capabilities) error
	Invalidate(ctx context.Context, profileID uuid.UUID) error
}

// TokenRevocations lists signed-out session tokens until they expire.
type TokenRevocations interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// ApprovalBroker carries the buyer decision from the gateway redirect to the
// checkout waiting on it.
type ApprovalBroker interface {
	Signal(ctx context.Context, checkoutID string, decision model.ApprovalDecision) error
	Await(ctx context.Context, checkoutID string) (model.ApprovalDecision, error)
}

// CheckoutTracker stores checkout progress for polling clients.
type CheckoutTracker interface {
	Save(ctx context.Context, snapshot model.CheckoutSnapshot) error
	Get(ctx context.Context, checkoutID string) (*model.CheckoutSnapshot, error)
}
