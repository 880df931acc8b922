package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/polkiloo/paperdesk/internal/domain/model"
)

// PaymentRepository persists pending checkouts and captured transactions.
type PaymentRepository interface {
	CreatePending(ctx context.Context, pending *model.PendingPayment) error
	GetPending(ctx context.Context, gatewayOrderID string) (*model.PendingPayment, error)
	SetPendingState(ctx context.Context, gatewayOrderID string, state model.PendingState) error
	MarkCaptured(ctx context.Context, gatewayOrderID, transactionID string, payload json.RawMessage) error
	// ListPending returns records in state that were last touched before the cutoff.
	ListPending(ctx context.Context, state model.PendingState, before time.Time, limit int) ([]model.PendingPayment, error)
	// RecordTransaction is idempotent on the gateway transaction ID.
	RecordTransaction(ctx context.Context, tx *model.PaymentTransaction) (bool, error)
}
