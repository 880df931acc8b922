package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CheckoutStartedResponse is returned once the payment order exists.
type CheckoutStartedResponse struct {
	CheckoutID string          `json:"checkout_id"`
	OrderID    string          `json:"order_id"`
	ApproveURL string          `json:"approve_url"`
	Price      decimal.Decimal `json:"price"`
	Currency   string          `json:"currency"`
}

// CheckoutStatusResponse reports checkout progress.
type CheckoutStatusResponse struct {
	CheckoutID string          `json:"checkout_id"`
	OrderID    string          `json:"order_id"`
	Status     string          `json:"status"`
	Step       string          `json:"step,omitempty"`
	Error      string          `json:"error,omitempty"`
	ApproveURL string          `json:"approve_url,omitempty"`
	Redirect   string          `json:"redirect,omitempty"`
	Price      decimal.Decimal `json:"price"`
	UpdatedAt  time.Time       `json:"updated_at"`
}
