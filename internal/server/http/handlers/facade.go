package handlers

import (
	"context"
	"io"

	"github.com/google/uuid"

	"github.com/polkiloo/paperdesk/internal/checkout"
	"github.com/polkiloo/paperdesk/internal/domain/model"
	"github.com/polkiloo/paperdesk/internal/orderform"
	pkgAuth "github.com/polkiloo/paperdesk/internal/pkg/auth"
	"github.com/polkiloo/paperdesk/internal/pricing"
	"github.com/polkiloo/paperdesk/internal/server/http/middleware"
	"github.com/polkiloo/paperdesk/internal/usecase"
)

// AuthFacade describes authentication capabilities required by handlers.
type AuthFacade interface {
	middleware.Authorizer
	Register(ctx context.Context, in usecase.SignUp) (*usecase.Session, error)
	Authenticate(ctx context.Context, email, password string) (*usecase.Session, error)
	Logout(ctx context.Context, claims pkgAuth.Claims) error
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, password string) error
	Profile(ctx context.Context, id uuid.UUID) (*model.Profile, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, firstName, lastName string) (*model.Profile, error)
}

// OrderFacade serves the order form and the client and writer dashboards.
type OrderFacade interface {
	Quote(draft orderform.Draft) (pricing.Breakdown, orderform.Errors)
	Orders(ctx context.Context, userID uuid.UUID) ([]model.Order, error)
	WriterOrders(ctx context.Context, writerID uuid.UUID) ([]model.Order, error)
	Order(ctx context.Context, viewer, orderID uuid.UUID) (*model.Order, error)
	AddAttachment(ctx context.Context, viewer, orderID uuid.UUID, up checkout.Upload) (*model.Attachment, error)
	OpenAttachment(ctx context.Context, viewer, attachmentID uuid.UUID) (*model.Attachment, io.ReadCloser, error)
}

// CheckoutFacade drives checkout sessions.
type CheckoutFacade interface {
	StartCheckout(ctx context.Context, req checkout.Request) (*checkout.Session, error)
	ResolveApproval(ctx context.Context, checkoutID string, decision model.ApprovalDecision) error
	CheckoutStatus(ctx context.Context, checkoutID string) (*model.CheckoutSnapshot, error)
}

// AdminFacade backs the staff dashboard.
type AdminFacade interface {
	ChangeOrderStatus(ctx context.Context, orderID uuid.UUID, status model.OrderStatus) (*model.Order, error)
	AssignWriter(ctx context.Context, orderID, writerID uuid.UUID) (*model.Order, error)
	DashboardOrders(ctx context.Context, status model.OrderStatus) usecase.Listing[model.Order]
	DashboardClients(ctx context.Context) usecase.Listing[model.Profile]
	DashboardWriters(ctx context.Context) usecase.Listing[model.Profile]
	DashboardStats(ctx context.Context) usecase.Listing[model.StatusCount]
}

// HealthFacade reports dependency health.
type HealthFacade interface {
	Health(ctx context.Context) error
}

// DeskFacade aggregates the full set of operations used across handlers.
type DeskFacade interface {
	AuthFacade
	OrderFacade
	CheckoutFacade
	AdminFacade
	HealthFacade
}
