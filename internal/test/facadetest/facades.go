package facadetest

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/polkiloo/paperdesk/internal/checkout"
	domainErrors "github.com/polkiloo/paperdesk/internal/domain/errors"
	"github.com/polkiloo/paperdesk/internal/domain/model"
	"github.com/polkiloo/paperdesk/internal/orderform"
	pkgAuth "github.com/polkiloo/paperdesk/internal/pkg/auth"
	"github.com/polkiloo/paperdesk/internal/pricing"
	testhelpers "github.com/polkiloo/paperdesk/internal/test"
	"github.com/polkiloo/paperdesk/internal/usecase"
)

// AuthFacadeStub simulates authentication facade interactions.
type AuthFacadeStub struct {
	testhelpers.AuthorizerStub
	RegisterFn      func(context.Context, usecase.SignUp) (*usecase.Session, error)
	AuthenticateFn  func(context.Context, string, string) (*usecase.Session, error)
	LogoutFn        func(context.Context, pkgAuth.Claims) error
	RequestResetFn  func(context.Context, string) error
	ResetPasswordFn func(context.Context, string, string) error
	ProfileFn       func(context.Context, uuid.UUID) (*model.Profile, error)
	UpdateProfileFn func(context.Context, uuid.UUID, string, string) (*model.Profile, error)
}

// SessionFor builds a session as the auth use case would.
func SessionFor(email string) *usecase.Session {
	id := uuid.New()
	return &usecase.Session{
		Profile: &model.Profile{ID: id, Email: email, IsActive: true},
		Token:   "token:" + id.String(),
		Claims:  pkgAuth.Claims{UserID: id, TokenID: "jti", ExpiresAt: time.Now().Add(time.Hour)},
	}
}

// Register returns a session for successful registration scenarios.
func (s *AuthFacadeStub) Register(ctx context.Context, in usecase.SignUp) (*usecase.Session, error) {
	if s.RegisterFn != nil {
		return s.RegisterFn(ctx, in)
	}
	return SessionFor(in.Email), nil
}

// Authenticate returns a session for successful sign-in scenarios.
func (s *AuthFacadeStub) Authenticate(ctx context.Context, email, password string) (*usecase.Session, error) {
	if s.AuthenticateFn != nil {
		return s.AuthenticateFn(ctx, email, password)
	}
	return SessionFor(email), nil
}

// Logout delegates to override.
func (s *AuthFacadeStub) Logout(ctx context.Context, claims pkgAuth.Claims) error {
	if s.LogoutFn != nil {
		return s.LogoutFn(ctx, claims)
	}
	return nil
}

// RequestPasswordReset delegates to override.
func (s *AuthFacadeStub) RequestPasswordReset(ctx context.Context, email string) error {
	if s.RequestResetFn != nil {
		return s.RequestResetFn(ctx, email)
	}
	return nil
}

// ResetPassword delegates to override.
func (s *AuthFacadeStub) ResetPassword(ctx context.Context, token, password string) error {
	if s.ResetPasswordFn != nil {
		return s.ResetPasswordFn(ctx, token, password)
	}
	return nil
}

// Profile returns a stored or generated profile.
func (s *AuthFacadeStub) Profile(ctx context.Context, id uuid.UUID) (*model.Profile, error) {
	if s.ProfileFn != nil {
		return s.ProfileFn(ctx, id)
	}
	return &model.Profile{ID: id, Email: "user@example.com", FirstName: "Ada", IsActive: true}, nil
}

// UpdateProfile echoes the new name.
func (s *AuthFacadeStub) UpdateProfile(ctx context.Context, id uuid.UUID, firstName, lastName string) (*model.Profile, error) {
	if s.UpdateProfileFn != nil {
		return s.UpdateProfileFn(ctx, id, firstName, lastName)
	}
	return &model.Profile{ID: id, FirstName: firstName, LastName: lastName}, nil
}

// OrderFacadeStub provides controllable behaviour for order endpoints.
type OrderFacadeStub struct {
	OrdersFn         func(context.Context, uuid.UUID) ([]model.Order, error)
	WriterOrdersFn   func(context.Context, uuid.UUID) ([]model.Order, error)
	OrderFn          func(context.Context, uuid.UUID, uuid.UUID) (*model.Order, error)
	AddAttachmentFn  func(context.Context, uuid.UUID, uuid.UUID, checkout.Upload) (*model.Attachment, error)
	OpenAttachmentFn func(context.Context, uuid.UUID, uuid.UUID) (*model.Attachment, io.ReadCloser, error)
}

// Quote prices the draft with the real calculator.
func (s *OrderFacadeStub) Quote(draft orderform.Draft) (pricing.Breakdown, orderform.Errors) {
	form := orderform.New(draft)
	return pricing.Explain(draft.PricingInput()), form.Validate()
}

// Orders returns predefined orders for given user.
func (s *OrderFacadeStub) Orders(ctx context.Context, userID uuid.UUID) ([]model.Order, error) {
	if s.OrdersFn != nil {
		return s.OrdersFn(ctx, userID)
	}
	return []model.Order{{ID: uuid.New(), UserID: userID, Status: model.OrderStatusPending, Price: decimal.NewFromInt(100)}}, nil
}

// WriterOrders returns predefined orders for given writer.
func (s *OrderFacadeStub) WriterOrders(ctx context.Context, writerID uuid.UUID) ([]model.Order, error) {
	if s.WriterOrdersFn != nil {
		return s.WriterOrdersFn(ctx, writerID)
	}
	return nil, nil
}

// Order returns one order.
func (s *OrderFacadeStub) Order(ctx context.Context, viewer, orderID uuid.UUID) (*model.Order, error) {
	if s.OrderFn != nil {
		return s.OrderFn(ctx, viewer, orderID)
	}
	return &model.Order{ID: orderID, UserID: viewer, Status: model.OrderStatusPending}, nil
}

// AddAttachment records the upload.
func (s *OrderFacadeStub) AddAttachment(ctx context.Context, viewer, orderID uuid.UUID, up checkout.Upload) (*model.Attachment, error) {
	if s.AddAttachmentFn != nil {
		return s.AddAttachmentFn(ctx, viewer, orderID, up)
	}
	return &model.Attachment{ID: uuid.New(), OrderID: orderID, OwnerID: viewer, FileName: up.FileName, SizeBytes: int64(len(up.Data))}, nil
}

// OpenAttachment returns fixed content.
func (s *OrderFacadeStub) OpenAttachment(ctx context.Context, viewer, attachmentID uuid.UUID) (*model.Attachment, io.ReadCloser, error) {
	if s.OpenAttachmentFn != nil {
		return s.OpenAttachmentFn(ctx, viewer, attachmentID)
	}
	data := []byte("content")
	return &model.Attachment{ID: attachmentID, FileName: "notes.txt", ContentType: "text/plain", SizeBytes: int64(len(data))},
		io.NopCloser(bytes.NewReader(data)), nil
}

// CheckoutFacadeStub simulates checkout sessions.
type CheckoutFacadeStub struct {
	StartFn   func(context.Context, checkout.Request) (*checkout.Session, error)
	ResolveFn func(context.Context, string, model.ApprovalDecision) error
	StatusFn  func(context.Context, string) (*model.CheckoutSnapshot, error)
	Started   []checkout.Request
	Decisions map[string]model.ApprovalDecision
	Snapshots map[string]*model.CheckoutSnapshot
	LastPrice decimal.Decimal
}

// StartCheckout records the request.
func (s *CheckoutFacadeStub) StartCheckout(ctx context.Context, req checkout.Request) (*checkout.Session, error) {
	s.Started = append(s.Started, req)
	if s.StartFn != nil {
		return s.StartFn(ctx, req)
	}
	_, price, err := orderform.New(req.Draft).Submit()
	if err != nil {
		return nil, err
	}
	s.LastPrice = price
	return &checkout.Session{ID: "PAY-1", OrderID: uuid.New(), UserID: req.UserID, Draft: req.Draft, Price: price, ApproveURL: "https://paypal.test/approve?token=PAY-1"}, nil
}

// ResolveApproval records the decision.
func (s *CheckoutFacadeStub) ResolveApproval(ctx context.Context, checkoutID string, decision model.ApprovalDecision) error {
	if s.ResolveFn != nil {
		return s.ResolveFn(ctx, checkoutID, decision)
	}
	if s.Decisions == nil {
		s.Decisions = make(map[string]model.ApprovalDecision)
	}
	s.Decisions[checkoutID] = decision
	return nil
}

// CheckoutStatus returns a stored snapshot.
func (s *CheckoutFacadeStub) CheckoutStatus(ctx context.Context, checkoutID string) (*model.CheckoutSnapshot, error) {
	if s.StatusFn != nil {
		return s.StatusFn(ctx, checkoutID)
	}
	if snap, ok := s.Snapshots[checkoutID]; ok {
		return snap, nil
	}
	return nil, domainErrors.ErrNotFound
}

// AdminFacadeStub simulates staff operations.
type AdminFacadeStub struct {
	ChangeStatusFn func(context.Context, uuid.UUID, model.OrderStatus) (*model.Order, error)
	AssignWriterFn func(context.Context, uuid.UUID, uuid.UUID) (*model.Order, error)
	OrdersListing  usecase.Listing[model.Order]
	Clients        usecase.Listing[model.Profile]
	Writers        usecase.Listing[model.Profile]
	Stats          usecase.Listing[model.StatusCount]
	LastFilter     model.OrderStatus
}

// ChangeOrderStatus delegates to override.
func (s *AdminFacadeStub) ChangeOrderStatus(ctx context.Context, orderID uuid.UUID, status model.OrderStatus) (*model.Order, error) {
	if s.ChangeStatusFn != nil {
		return s.ChangeStatusFn(ctx, orderID, status)
	}
	return &model.Order{ID: orderID, Status: status}, nil
}

// AssignWriter delegates to override.
func (s *AdminFacadeStub) AssignWriter(ctx context.Context, orderID, writerID uuid.UUID) (*model.Order, error) {
	if s.AssignWriterFn != nil {
		return s.AssignWriterFn(ctx, orderID, writerID)
	}
	return &model.Order{ID: orderID, WriterID: &writerID, Status: model.OrderStatusAssigned}, nil
}

// DashboardOrders returns the configured listing.
func (s *AdminFacadeStub) DashboardOrders(ctx context.Context, status model.OrderStatus) usecase.Listing[model.Order] {
	s.LastFilter = status
	return s.OrdersListing
}

// DashboardClients returns the configured listing.
func (s *AdminFacadeStub) DashboardClients(ctx context.Context) usecase.Listing[model.Profile] {
	return s.Clients
}

// DashboardWriters returns the configured listing.
func (s *AdminFacadeStub) DashboardWriters(ctx context.Context) usecase.Listing[model.Profile] {
	return s.Writers
}

// DashboardStats returns the configured listing.
func (s *AdminFacadeStub) DashboardStats(ctx context.Context) usecase.Listing[model.StatusCount] {
	return s.Stats
}

// DeskFacadeStub aggregates facade dependencies for HTTP layer tests.
type DeskFacadeStub struct {
	AuthFacadeStub
	OrderFacadeStub
	CheckoutFacadeStub
	AdminFacadeStub
	HealthErr error
}

// Health returns HealthErr.
func (s *DeskFacadeStub) Health(ctx context.Context) error {
	return s.HealthErr
}
