package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/polkiloo/paperdesk/internal/checkout"
	"github.com/polkiloo/paperdesk/internal/domain/model"
	"github.com/polkiloo/paperdesk/internal/domain/repository"
	"github.com/polkiloo/paperdesk/internal/orderform"
	pkgAuth "github.com/polkiloo/paperdesk/internal/pkg/auth"
	"github.com/polkiloo/paperdesk/internal/pricing"
	"github.com/polkiloo/paperdesk/internal/usecase"
)

// HealthChecker reports whether a dependency is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// FacadeDeps are the services behind the HTTP surface.
type FacadeDeps struct {
	Auth         *usecase.AuthUseCase
	Capabilities *usecase.CapabilityService
	Orders       *usecase.OrderUseCase
	Admin        *usecase.AdminUseCase
	Sequencer    *checkout.Sequencer
	Broker       repository.ApprovalBroker
	Tracker      repository.CheckoutTracker
	Health       HealthChecker
	Logger       *slog.Logger
}

// DeskFacade adapts the use cases to the handler contracts and owns the
// background half of every checkout.
type DeskFacade struct {
	deps FacadeDeps

	baseCtx  context.Context
	cancel   context.CancelFunc
	inflight sync.WaitGroup
}

func NewDeskFacade(deps FacadeDeps) *DeskFacade {
	baseCtx, cancel := context.WithCancel(context.Background())
	return &DeskFacade{deps: deps, baseCtx: baseCtx, cancel: cancel}
}

func (f *DeskFacade) Register(ctx context.Context, in usecase.SignUp) (*usecase.Session, error) {
	return f.deps.Auth.Register(ctx, in)
}

func (f *DeskFacade) Authenticate(ctx context.Context, email, password string) (*usecase.Session, error) {
	return f.deps.Auth.Authenticate(ctx, email, password)
}

func (f *DeskFacade) Authorize(ctx context.Context, token string) (pkgAuth.Claims, error) {
	return f.deps.Auth.Authorize(ctx, token)
}

func (f *DeskFacade) Capabilities(ctx context.Context, profileID uuid.UUID) (model.Capabilities, error) {
	return f.deps.Capabilities.Capabilities(ctx, profileID)
}

func (f *DeskFacade) Logout(ctx context.Context, claims pkgAuth.Claims) error {
	return f.deps.Auth.Logout(ctx, claims)
}

func (f *DeskFacade) RequestPasswordReset(ctx context.Context, email string) error {
	return f.deps.Auth.RequestPasswordReset(ctx, email)
}

func (f *DeskFacade) ResetPassword(ctx context.Context, token, password string) error {
	return f.deps.Auth.ResetPassword(ctx, token, password)
}

func (f *DeskFacade) Profile(ctx context.Context, id uuid.UUID) (*model.Profile, error) {
	return f.deps.Auth.Profile(ctx, id)
}

func (f *DeskFacade) UpdateProfile(ctx context.Context, id uuid.UUID, firstName, lastName string) (*model.Profile, error) {
	return f.deps.Auth.UpdateProfile(ctx, id, firstName, lastName)
}

// Quote prices the draft as it stands and lists what keeps it from being
// submitted.
func (f *DeskFacade) Quote(draft orderform.Draft) (pricing.Breakdown, orderform.Errors) {
	form := orderform.New(draft)
	return pricing.Explain(form.Draft().PricingInput()), form.Validate()
}

func (f *DeskFacade) Orders(ctx context.Context, userID uuid.UUID) ([]model.Order, error) {
	return f.deps.Orders.ListByUser(ctx, userID)
}

func (f *DeskFacade) WriterOrders(ctx context.Context, writerID uuid.UUID) ([]model.Order, error) {
	return f.deps.Orders.ListByWriter(ctx, writerID)
}

func (f *DeskFacade) Order(ctx context.Context, viewer, orderID uuid.UUID) (*model.Order, error) {
	return f.deps.Orders.Get(ctx, viewer, orderID)
}

func (f *DeskFacade) AddAttachment(ctx context.Context, viewer, orderID uuid.UUID, up checkout.Upload) (*model.Attachment, error) {
	return f.deps.Orders.AddAttachment(ctx, viewer, orderID, up)
}

func (f *DeskFacade) OpenAttachment(ctx context.Context, viewer, attachmentID uuid.UUID) (*model.Attachment, io.ReadCloser, error) {
	return f.deps.Orders.OpenAttachment(ctx, viewer, attachmentID)
}

// StartCheckout creates the remote payment and returns once the buyer can be
// sent to the approval page. The rest of the sequence runs in the background
// until the decision arrives, and is cancelled by Close.
func (f *DeskFacade) StartCheckout(ctx context.Context, req checkout.Request) (*checkout.Session, error) {
	session, err := f.deps.Sequencer.Begin(ctx, req)
	if err != nil {
		return nil, err
	}

	// keep the request span as parent so the whole checkout is one trace
	runCtx := trace.ContextWithSpan(f.baseCtx, trace.SpanFromContext(ctx))
	f.inflight.Add(1)
	go func() {
		defer f.inflight.Done()
		session.Complete(runCtx)
	}()
	return session, nil
}

// ResolveApproval hands the buyer's decision to the waiting checkout. A
// repeated redirect for a checkout that already moved on is a no-op.
func (f *DeskFacade) ResolveApproval(ctx context.Context, checkoutID string, decision model.ApprovalDecision) error {
	if !decision.Valid() {
		return fmt.Errorf("unknown approval decision %q", decision)
	}
	snapshot, err := f.deps.Tracker.Get(ctx, checkoutID)
	if err != nil {
		return err
	}
	if snapshot.Status != model.CheckoutAwaitingApproval {
		f.deps.Logger.InfoContext(ctx, "approval for settled checkout ignored",
			slog.String("checkout_id", checkoutID),
			slog.String("status", string(snapshot.Status)),
		)
		return nil
	}
	return f.deps.Broker.Signal(ctx, checkoutID, decision)
}

func (f *DeskFacade) CheckoutStatus(ctx context.Context, checkoutID string) (*model.CheckoutSnapshot, error) {
	return f.deps.Tracker.Get(ctx, checkoutID)
}

func (f *DeskFacade) ChangeOrderStatus(ctx context.Context, orderID uuid.UUID, status model.OrderStatus) (*model.Order, error) {
	return f.deps.Admin.ChangeStatus(ctx, orderID, status)
}

func (f *DeskFacade) AssignWriter(ctx context.Context, orderID, writerID uuid.UUID) (*model.Order, error) {
	return f.deps.Admin.AssignWriter(ctx, orderID, writerID)
}

func (f *DeskFacade) DashboardOrders(ctx context.Context, status model.OrderStatus) usecase.Listing[model.Order] {
	return f.deps.Admin.Orders(ctx, status)
}

func (f *DeskFacade) DashboardClients(ctx context.Context) usecase.Listing[model.Profile] {
	return f.deps.Admin.Clients(ctx)
}

func (f *DeskFacade) DashboardWriters(ctx context.Context) usecase.Listing[model.Profile] {
	return f.deps.Admin.Writers(ctx)
}

func (f *DeskFacade) DashboardStats(ctx context.Context) usecase.Listing[model.StatusCount] {
	return f.deps.Admin.Stats(ctx)
}

func (f *DeskFacade) Health(ctx context.Context) error {
	if f.deps.Health == nil {
		return nil
	}
	return f.deps.Health.HealthCheck(ctx)
}

// Close cancels checkouts still running and waits for them to record their
// outcome, or for ctx to expire.
func (f *DeskFacade) Close(ctx context.Context) error {
	f.cancel()

	done := make(chan struct{})
	go func() {
		f.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
