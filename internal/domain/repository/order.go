package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/polkiloo/paperdesk/internal/domain/model"
)

// OrderFilter narrows staff order listings. Zero values match everything.
type OrderFilter struct {
	Status model.OrderStatus
	Limit  int
}

// OrderRepository describes persistence operations with orders.
type OrderRepository interface {
	// Create inserts the order unless a row with the same ID exists. The
	// boolean reports whether a row was written.
	Create(ctx context.Context, order *model.Order) (bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Order, error)
	ListByWriter(ctx context.Context, writerID uuid.UUID) ([]model.Order, error)
	List(ctx context.Context, filter OrderFilter) ([]model.Order, error)
	CountByStatus(ctx context.Context) ([]model.StatusCount, error)
	// UpdateStatus sets status and updated_at. When expected is non-nil the
	// update only applies if the stored status still equals it.
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus, expected *model.OrderStatus, at time.Time) (*model.Order, error)
	AssignWriter(ctx context.Context, id, writerID uuid.UUID, status model.OrderStatus, expected *model.OrderStatus, at time.Time) (*model.Order, error)
}
