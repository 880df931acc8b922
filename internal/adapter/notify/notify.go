package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	TypeOrderPlaced            = "order.placed"
	TypePasswordResetRequested = "password.reset_requested"
)

// OrderPlaced is emitted once an order row exists for a captured payment.
type OrderPlaced struct {
	OrderID     uuid.UUID       `json:"order_id"`
	UserID      uuid.UUID       `json:"user_id"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Currency    string          `json:"currency"`
	Deadline    time.Time       `json:"deadline"`
	Attachments int             `json:"attachments"`
}

// PasswordResetRequested carries the reset link for delivery to the user.
type PasswordResetRequested struct {
	ProfileID uuid.UUID `json:"profile_id"`
	Email     string    `json:"email"`
	Link      string    `json:"link"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Notifier delivers domain events to whatever sends mail and pushes.
type Notifier interface {
	OrderPlaced(ctx context.Context, event OrderPlaced) error
	PasswordResetRequested(ctx context.Context, event PasswordResetRequested) error
}

type envelope struct {
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       any       `json:"data"`
}
