package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CaptureStatusCompleted is the only gateway capture status treated as success.
const CaptureStatusCompleted = "COMPLETED"

// CaptureStatusPending is a capture the gateway accepted but has not settled,
// e.g. an eCheck or a payment under review. Funds may still move.
const CaptureStatusPending = "PENDING"

// RemotePayment is a payment order created at the gateway and awaiting approval.
type RemotePayment struct {
	ID         string
	Status     string
	ApproveURL string
}

// Capture is the gateway response to capturing an approved payment. Status
// is the capture's own status and stays empty when the order holds no capture;
// OrderStatus is the status of the enclosing gateway order.
type Capture struct {
	OrderID       string
	OrderStatus   string
	Status        string
	TransactionID string
	Amount        decimal.Decimal
	Currency      string
	Payload       json.RawMessage
}

// Completed reports whether the capture moved funds.
func (c *Capture) Completed() bool {
	return c != nil && c.TransactionID != "" && c.Status == CaptureStatusCompleted
}

// Unsettled reports whether the capture may still complete later.
func (c *Capture) Unsettled() bool {
	return c != nil && c.Status == CaptureStatusPending
}

// PaymentTransaction is the audit record of one captured payment.
type PaymentTransaction struct {
	ID             uuid.UUID
	OrderID        uuid.UUID
	UserID         uuid.UUID
	GatewayOrderID string
	TransactionID  string
	Status         string
	Amount         decimal.Decimal
	Currency       string
	Payload        json.RawMessage
	CreatedAt      time.Time
}

// PendingState tracks a checkout between gateway order creation and order persistence.
type PendingState string

const (
	PendingCreated   PendingState = "created"
	PendingCancelled PendingState = "cancelled"
	PendingFailed    PendingState = "failed"
	PendingCaptured  PendingState = "captured"
	// PendingCaptureUnknown marks a capture whose result never arrived or has
	// not settled. The reconciler asks the gateway what became of it.
	PendingCaptureUnknown PendingState = "capture_unknown"
	PendingReconciled     PendingState = "reconciled"
	PendingExpired        PendingState = "expired"
)

// PendingPayment links a gateway order to the order it will become. A
// captured record without a matching order is repaired by the reconciler.
type PendingPayment struct {
	GatewayOrderID string
	OrderID        uuid.UUID
	UserID         uuid.UUID
	Amount         decimal.Decimal
	Currency       string
	Draft          json.RawMessage
	State          PendingState
	TransactionID  string
	CapturePayload json.RawMessage
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
