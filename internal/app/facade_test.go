package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polkiloo/paperdesk/internal/adapter/memory"
	"github.com/polkiloo/paperdesk/internal/checkout"
	"github.com/polkiloo/paperdesk/internal/config"
	domainErrors "github.com/polkiloo/paperdesk/internal/domain/errors"
	"github.com/polkiloo/paperdesk/internal/domain/model"
	"github.com/polkiloo/paperdesk/internal/orderform"
	"github.com/polkiloo/paperdesk/internal/server/http/handlers"
	testhelpers "github.com/polkiloo/paperdesk/internal/test"
	"github.com/polkiloo/paperdesk/internal/usecase"
)

var _ handlers.DeskFacade = (*DeskFacade)(nil)

type healthStub struct{ err error }

func (h healthStub) HealthCheck(context.Context) error { return h.err }

type facadeFixture struct {
	facade   *DeskFacade
	profiles *testhelpers.ProfileRepositoryStub
	orders   *testhelpers.OrderRepositoryStub
	payments *testhelpers.PaymentRepositoryStub
	gateway  *testhelpers.GatewayStub
	notifier *testhelpers.NotifierStub
	tracker  *memory.CheckoutTracker
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func newFacadeFixture(t *testing.T, approvalTimeout time.Duration) *facadeFixture {
	t.Helper()
	logger := discardLogger()
	f := &facadeFixture{
		profiles: testhelpers.NewProfileRepositoryStub(),
		orders:   testhelpers.NewOrderRepositoryStub(),
		payments: testhelpers.NewPaymentRepositoryStub(),
		gateway:  &testhelpers.GatewayStub{},
		notifier: &testhelpers.NotifierStub{},
		tracker:  memory.NewCheckoutTracker(),
	}
	attachments := testhelpers.NewAttachmentRepositoryStub()
	objects := testhelpers.NewObjectStoreStub()
	broker := memory.NewApprovalBroker()

	caps := usecase.NewCapabilityService(f.profiles, memory.NewCapabilityCache(time.Minute), &config.Config{AdminEmails: []string{"boss@example.com"}}, logger)
	auth := usecase.NewAuthUseCase(f.profiles, testhelpers.NewPasswordResetRepositoryStub(), testhelpers.HasherStub{}, testhelpers.StrategyStub{},
		memory.NewTokenRevocations(), caps, f.notifier, usecase.AuthOptions{ResetURL: "https://desk.test/reset-password"}, logger)
	sequencer := checkout.NewSequencer(checkout.Deps{
		Gateway:     f.gateway,
		Payments:    f.payments,
		Orders:      f.orders,
		Attachments: attachments,
		Objects:     objects,
		Broker:      broker,
		Tracker:     f.tracker,
		Notifier:    f.notifier,
		Logger:      logger,
	}, checkout.Options{ApprovalTimeout: approvalTimeout})

	f.facade = NewDeskFacade(FacadeDeps{
		Auth:         auth,
		Capabilities: caps,
		Orders:       usecase.NewOrderUseCase(f.orders, attachments, objects, caps, logger),
		Admin:        usecase.NewAdminUseCase(f.orders, f.profiles, usecase.AdminOptions{}, logger),
		Sequencer:    sequencer,
		Broker:       broker,
		Tracker:      f.tracker,
		Health:       healthStub{},
		Logger:       logger,
	})
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = f.facade.Close(ctx)
	})
	return f
}

func validDraft() orderform.Draft {
	return orderform.Draft{
		PaperType:     model.PaperEssay,
		AcademicLevel: model.LevelCollege,
		Subject:       "History",
		Urgency:       model.Urgency7d,
		Topic:         "Byzantine trade routes",
		Description:   "Discuss the trade routes of the Byzantine empire in depth.",
		WordCount:     1000,
	}
}

func (f *facadeFixture) waitFor(t *testing.T, checkoutID string, status model.CheckoutStatus) *model.CheckoutSnapshot {
	t.Helper()
	var snapshot *model.CheckoutSnapshot
	require.Eventually(t, func() bool {
		s, err := f.facade.CheckoutStatus(context.Background(), checkoutID)
		if err != nil {
			return false
		}
		snapshot = s
		return s.Status == status
	}, 2*time.Second, 5*time.Millisecond, "checkout never reached %s", status)
	return snapshot
}

func TestDeskFacadeAuthAndCapabilities(t *testing.T) {
	f := newFacadeFixture(t, time.Minute)
	ctx := context.Background()

	session, err := f.facade.Register(ctx, usecase.SignUp{Email: "boss@example.com", Password: "correct horse"})
	require.NoError(t, err)

	claims, err := f.facade.Authorize(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, session.Profile.ID, claims.UserID)

	caps, err := f.facade.Capabilities(ctx, claims.UserID)
	require.NoError(t, err)
	assert.True(t, caps.Admin, "allow-listed email is an admin")
	assert.False(t, caps.Writer)

	require.NoError(t, f.facade.Logout(ctx, claims))
	_, err = f.facade.Authorize(ctx, session.Token)
	assert.Error(t, err)
}

func TestDeskFacadeQuote(t *testing.T) {
	f := newFacadeFixture(t, time.Minute)

	breakdown, problems := f.facade.Quote(validDraft())
	assert.Empty(t, problems)
	assert.Equal(t, "100.00", breakdown.Total.StringFixed(2))

	draft := validDraft()
	draft.WordCount = 10
	breakdown, problems = f.facade.Quote(draft)
	assert.Equal(t, orderform.ReasonBelowMinimum, problems[orderform.FieldWordCount])
	assert.True(t, breakdown.Total.IsZero(), "drafts below the word minimum are not priceable")
}

func TestDeskFacadeCheckoutApproved(t *testing.T) {
	f := newFacadeFixture(t, time.Minute)
	ctx := context.Background()
	userID := uuid.New()

	session, err := f.facade.StartCheckout(ctx, checkout.Request{UserID: userID, Draft: validDraft()})
	require.NoError(t, err)
	assert.NotEmpty(t, session.ApproveURL)

	snapshot, err := f.facade.CheckoutStatus(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, model.CheckoutAwaitingApproval, snapshot.Status)

	require.NoError(t, f.facade.ResolveApproval(ctx, session.ID, model.DecisionApproved))
	done := f.waitFor(t, session.ID, model.CheckoutCompleted)
	assert.Equal(t, session.OrderID, done.OrderID)
	assert.NotEmpty(t, done.Redirect)

	orders, err := f.facade.Orders(ctx, userID)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, model.OrderStatusPending, orders[0].Status)
	assert.Equal(t, 1, f.notifier.PlacedCount())

	// a second redirect for the same checkout changes nothing
	require.NoError(t, f.facade.ResolveApproval(ctx, session.ID, model.DecisionCancelled))
	assert.Len(t, f.gateway.Captured, 1)
}

func TestDeskFacadeCheckoutCancelled(t *testing.T) {
	f := newFacadeFixture(t, time.Minute)
	ctx := context.Background()

	session, err := f.facade.StartCheckout(ctx, checkout.Request{UserID: uuid.New(), Draft: validDraft()})
	require.NoError(t, err)

	require.NoError(t, f.facade.ResolveApproval(ctx, session.ID, model.DecisionCancelled))
	f.waitFor(t, session.ID, model.CheckoutCancelled)

	assert.Empty(t, f.gateway.Captured)
	assert.Equal(t, model.PendingCancelled, f.payments.PendingState(session.ID))
}

func TestDeskFacadeCheckoutRejectsInvalidDraft(t *testing.T) {
	f := newFacadeFixture(t, time.Minute)
	draft := validDraft()
	draft.Topic = ""

	_, err := f.facade.StartCheckout(context.Background(), checkout.Request{UserID: uuid.New(), Draft: draft})
	assert.ErrorIs(t, err, domainErrors.ErrInvalidOrder)
	assert.Empty(t, f.gateway.Requests)
}

func TestDeskFacadeResolveApprovalErrors(t *testing.T) {
	f := newFacadeFixture(t, time.Minute)
	ctx := context.Background()

	err := f.facade.ResolveApproval(ctx, "PAY-missing", model.DecisionApproved)
	assert.ErrorIs(t, err, domainErrors.ErrNotFound)

	err = f.facade.ResolveApproval(ctx, "PAY-missing", model.ApprovalDecision("maybe"))
	assert.Error(t, err)
}

func TestDeskFacadeCloseCancelsWaitingCheckouts(t *testing.T) {
	f := newFacadeFixture(t, time.Hour)

	session, err := f.facade.StartCheckout(context.Background(), checkout.Request{UserID: uuid.New(), Draft: validDraft()})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, f.facade.Close(ctx))

	snapshot, err := f.facade.CheckoutStatus(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, model.CheckoutCancelled, snapshot.Status)
}

func TestDeskFacadeHealth(t *testing.T) {
	f := newFacadeFixture(t, time.Minute)
	assert.NoError(t, f.facade.Health(context.Background()))

	f.facade.deps.Health = healthStub{err: errors.New("db down")}
	assert.Error(t, f.facade.Health(context.Background()))

	f.facade.deps.Health = nil
	assert.NoError(t, f.facade.Health(context.Background()))
}
