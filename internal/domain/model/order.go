package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus describes the fulfilment lifecycle of an order.
type OrderStatus string

const (
	OrderStatusPending           OrderStatus = "pending"
	OrderStatusAssigned          OrderStatus = "assigned"
	OrderStatusInProgress        OrderStatus = "in_progress"
	OrderStatusUnderReview       OrderStatus = "under_review"
	OrderStatusRevisionRequested OrderStatus = "revision_requested"
	OrderStatusCompleted         OrderStatus = "completed"
	OrderStatusCancelled         OrderStatus = "cancelled"
	OrderStatusRefunded          OrderStatus = "refunded"
)

var validNext = map[OrderStatus]map[OrderStatus]bool{
	OrderStatusPending: {
		OrderStatusAssigned: true, OrderStatusCancelled: true, OrderStatusRefunded: true,
	},
	OrderStatusAssigned: {
		OrderStatusInProgress: true, OrderStatusCancelled: true, OrderStatusRefunded: true,
	},
	OrderStatusInProgress: {
		OrderStatusUnderReview: true, OrderStatusCancelled: true, OrderStatusRefunded: true,
	},
	OrderStatusUnderReview: {
		OrderStatusRevisionRequested: true, OrderStatusCompleted: true,
		OrderStatusCancelled: true, OrderStatusRefunded: true,
	},
	OrderStatusRevisionRequested: {
		OrderStatusInProgress: true, OrderStatusUnderReview: true,
		OrderStatusCancelled: true, OrderStatusRefunded: true,
	},
	OrderStatusCompleted: {
		OrderStatusRefunded: true,
	},
	OrderStatusCancelled: {},
	OrderStatusRefunded:  {},
}

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	_, ok := validNext[s]
	return ok
}

// Terminal reports whether no further transition is allowed from s.
func (s OrderStatus) Terminal() bool {
	next, ok := validNext[s]
	return ok && len(next) == 0
}

// CanTransition reports whether staff may move an order from one status to another.
func CanTransition(from, to OrderStatus) bool {
	return validNext[from][to]
}

// OrderStatuses lists statuses along the happy path followed by the soft terminal ones.
func OrderStatuses() []OrderStatus {
	return []OrderStatus{
		OrderStatusPending, OrderStatusAssigned, OrderStatusInProgress, OrderStatusUnderReview,
		OrderStatusRevisionRequested, OrderStatusCompleted, OrderStatusCancelled, OrderStatusRefunded,
	}
}

// MinWordCount is the smallest order a client can place.
const MinWordCount = 275

// Currency is the only currency orders are priced in.
const Currency = "USD"

// Order is a client's request for a written work.
type Order struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	PaperType     PaperType
	AcademicLevel AcademicLevel
	Subject       string
	Topic         string
	Instructions  string
	WordCount     int
	SourceCount   int
	Urgency       Urgency
	Urgent        bool
	Price         decimal.Decimal
	Currency      string
	Deadline      time.Time
	Status        OrderStatus
	WriterID      *uuid.UUID
	Attachments   []Attachment
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// StatusCount is the number of orders in a status.
type StatusCount struct {
	Status OrderStatus
	Count  int64
}
