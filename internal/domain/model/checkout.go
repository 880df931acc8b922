package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ApprovalDecision is the buyer's answer on the gateway approval page.
type ApprovalDecision string

const (
	DecisionApproved  ApprovalDecision = "approved"
	DecisionCancelled ApprovalDecision = "cancelled"
)

// Valid reports whether d is a known decision.
func (d ApprovalDecision) Valid() bool {
	return d == DecisionApproved || d == DecisionCancelled
}

// CheckoutStatus is the coarse progress of a checkout session.
type CheckoutStatus string

const (
	CheckoutAwaitingApproval CheckoutStatus = "awaiting_approval"
	CheckoutProcessing       CheckoutStatus = "processing"
	CheckoutCompleted        CheckoutStatus = "completed"
	CheckoutCancelled        CheckoutStatus = "cancelled"
	CheckoutFailed           CheckoutStatus = "failed"
)

// Done reports whether the session reached an outcome.
func (s CheckoutStatus) Done() bool {
	return s == CheckoutCompleted || s == CheckoutCancelled || s == CheckoutFailed
}

// CheckoutSnapshot is what the client polls while a checkout runs.
type CheckoutSnapshot struct {
	ID         string          `json:"checkout_id"`
	UserID     uuid.UUID       `json:"user_id"`
	OrderID    uuid.UUID       `json:"order_id"`
	Status     CheckoutStatus  `json:"status"`
	Step       string          `json:"step,omitempty"`
	Error      string          `json:"error,omitempty"`
	ApproveURL string          `json:"approve_url,omitempty"`
	Redirect   string          `json:"redirect,omitempty"`
	Price      decimal.Decimal `json:"price"`
	UpdatedAt  time.Time       `json:"updated_at"`
}
