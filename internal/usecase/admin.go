package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	domainErrors "github.com/polkiloo/paperdesk/internal/domain/errors"
	"github.com/polkiloo/paperdesk/internal/domain/model"
	"github.com/polkiloo/paperdesk/internal/domain/repository"
)

// Listing is a dashboard panel. When the store fails the panel reports
// itself unavailable instead of failing the page.
type Listing[T any] struct {
	Available bool
	Reason    string
	Items     []T
}

func listing[T any](items []T, err error, logger *slog.Logger, panel string) Listing[T] {
	if err != nil {
		logger.Error("dashboard panel unavailable", slog.String("panel", panel), slog.String("error", err.Error()))
		return Listing[T]{Reason: panel + " are temporarily unavailable"}
	}
	if items == nil {
		items = []T{}
	}
	return Listing[T]{Available: true, Items: items}
}

// AdminOptions toggles the transition guard.
type AdminOptions struct {
	AllowAnyTransition bool
	ListLimit          int
}

// AdminUseCase mutates order status on behalf of staff and feeds the admin
// dashboard.
type AdminUseCase struct {
	orders   repository.OrderRepository
	profiles repository.ProfileRepository
	opts     AdminOptions
	logger   *slog.Logger
	now      func() time.Time
}

// NewAdminUseCase constructs AdminUseCase.
func NewAdminUseCase(orders repository.OrderRepository, profiles repository.ProfileRepository, opts AdminOptions, logger *slog.Logger) *AdminUseCase {
	if opts.ListLimit <= 0 {
		opts.ListLimit = 200
	}
	return &AdminUseCase{orders: orders, profiles: profiles, opts: opts, logger: logger, now: time.Now}
}

// ChangeStatus moves an order to target. With the guard on, the update only
// applies if nobody changed the status since it was read.
func (u *AdminUseCase) ChangeStatus(ctx context.Context, orderID uuid.UUID, target model.OrderStatus) (*model.Order, error) {
	if !target.Valid() {
		return nil, domainErrors.ErrUnknownStatus
	}

	current, err := u.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	var expected *model.OrderStatus
	if !u.opts.AllowAnyTransition {
		if !model.CanTransition(current.Status, target) {
			return nil, domainErrors.ErrInvalidTransition
		}
		from := current.Status
		expected = &from
	}

	order, err := u.orders.UpdateStatus(ctx, orderID, target, expected, u.now().UTC())
	if err != nil {
		return nil, err
	}
	u.logger.Info("order status changed",
		slog.String("order_id", orderID.String()),
		slog.String("from", string(current.Status)),
		slog.String("to", string(target)))
	return order, nil
}

// AssignWriter sets the order's writer. A pending order becomes assigned;
// an order already in work keeps its status.
func (u *AdminUseCase) AssignWriter(ctx context.Context, orderID, writerID uuid.UUID) (*model.Order, error) {
	current, err := u.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	target := current.Status
	switch {
	case current.Status.Terminal():
		return nil, domainErrors.ErrInvalidTransition
	case model.CanTransition(current.Status, model.OrderStatusAssigned):
		target = model.OrderStatusAssigned
	}

	from := current.Status
	order, err := u.orders.AssignWriter(ctx, orderID, writerID, target, &from, u.now().UTC())
	if err != nil {
		return nil, err
	}
	u.logger.Info("writer assigned",
		slog.String("order_id", orderID.String()),
		slog.String("writer_id", writerID.String()),
		slog.String("status", string(target)))
	return order, nil
}

// Orders lists orders, optionally narrowed to one status.
func (u *AdminUseCase) Orders(ctx context.Context, status model.OrderStatus) Listing[model.Order] {
	if status != "" && !status.Valid() {
		return Listing[model.Order]{Reason: "unknown status filter"}
	}
	items, err := u.orders.List(ctx, repository.OrderFilter{Status: status, Limit: u.opts.ListLimit})
	return listing(items, err, u.logger, "orders")
}

// Clients lists profiles without staff flags.
func (u *AdminUseCase) Clients(ctx context.Context) Listing[model.Profile] {
	items, err := u.profiles.ListClients(ctx)
	return listing(items, err, u.logger, "clients")
}

// Writers lists writer profiles.
func (u *AdminUseCase) Writers(ctx context.Context) Listing[model.Profile] {
	items, err := u.profiles.ListWriters(ctx)
	return listing(items, err, u.logger, "writers")
}

// Stats counts orders per status.
func (u *AdminUseCase) Stats(ctx context.Context) Listing[model.StatusCount] {
	items, err := u.orders.CountByStatus(ctx)
	return listing(items, err, u.logger, "statistics")
}
