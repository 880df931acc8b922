package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/polkiloo/paperdesk/internal/adapter/filestore"
	"github.com/polkiloo/paperdesk/internal/adapter/notify"
	"github.com/polkiloo/paperdesk/internal/adapter/paypal"
	domainErrors "github.com/polkiloo/paperdesk/internal/domain/errors"
	"github.com/polkiloo/paperdesk/internal/domain/model"
	"github.com/polkiloo/paperdesk/internal/domain/repository"
	"github.com/polkiloo/paperdesk/internal/orderform"
)

const tracerName = "github.com/polkiloo/paperdesk/internal/checkout"

// Upload is a file the client attached to the order form.
type Upload struct {
	FileName    string
	ContentType string
	Data        []byte
}

// Request is everything needed to start a checkout.
type Request struct {
	UserID      uuid.UUID
	Draft       orderform.Draft
	Attachments []Upload
}

// Options tune the sequence.
type Options struct {
	ApprovalTimeout   time.Duration
	UploadConcurrency int
}

// Deps are the collaborators of a Sequencer.
type Deps struct {
	Gateway     paypal.Gateway
	Payments    repository.PaymentRepository
	Orders      repository.OrderRepository
	Attachments repository.AttachmentRepository
	Objects     repository.ObjectStore
	Broker      repository.ApprovalBroker
	Tracker     repository.CheckoutTracker
	Notifier    notify.Notifier
	Logger      *slog.Logger
}

// markCapturedAttempts bounds how often a captured payment is written before
// the sequence moves on and leaves the record to the reconciler.
const markCapturedAttempts = 3

// Sequencer drives payment, order creation and attachment upload strictly in order.
type Sequencer struct {
	deps       Deps
	opts       Options
	now        func() time.Time
	retryDelay time.Duration
	tracer     trace.Tracer
}

// NewSequencer builds a Sequencer. Non-positive options fall back to defaults.
func NewSequencer(deps Deps, opts Options) *Sequencer {
	if opts.ApprovalTimeout <= 0 {
		opts.ApprovalTimeout = 30 * time.Minute
	}
	if opts.UploadConcurrency <= 0 {
		opts.UploadConcurrency = 4
	}
	return &Sequencer{deps: deps, opts: opts, now: time.Now, retryDelay: 50 * time.Millisecond, tracer: otel.Tracer(tracerName)}
}

// Session is a checkout whose remote payment exists and awaits approval.
type Session struct {
	seq         *Sequencer
	ID          string
	OrderID     uuid.UUID
	UserID      uuid.UUID
	Draft       orderform.Draft
	Price       decimal.Decimal
	Description string
	ApproveURL  string
	uploads     []Upload
}

// Begin validates the draft, creates the remote payment and records it as
// pending. Nothing is persisted when it fails.
func (s *Sequencer) Begin(ctx context.Context, req Request) (*Session, error) {
	ctx, span := s.tracer.Start(ctx, "checkout."+string(StepCreatePayment))
	defer span.End()

	draft, price, err := orderform.New(req.Draft).Submit()
	if err != nil {
		return nil, err
	}
	if !price.IsPositive() {
		return nil, fmt.Errorf("%w: order is not priceable", domainErrors.ErrInvalidOrder)
	}

	session := &Session{
		seq:         s,
		OrderID:     uuid.New(),
		UserID:      req.UserID,
		Draft:       draft,
		Price:       price,
		Description: model.Describe(draft.PaperType, draft.AcademicLevel, draft.WordCount, draft.Urgency),
		uploads:     req.Attachments,
	}
	span.SetAttributes(attribute.String("order.id", session.OrderID.String()))

	remote, err := s.deps.Gateway.CreateOrder(ctx, paypal.OrderRequest{
		ReferenceID: session.OrderID.String(),
		Amount:      price,
		Currency:    model.Currency,
		Description: session.Description,
	})
	if err != nil {
		fail(span, err)
		return nil, fmt.Errorf("create payment: %w", err)
	}
	session.ID = remote.ID
	session.ApproveURL = remote.ApproveURL

	rawDraft, err := json.Marshal(draft)
	if err != nil {
		return nil, err
	}
	err = s.deps.Payments.CreatePending(ctx, &model.PendingPayment{
		GatewayOrderID: remote.ID,
		OrderID:        session.OrderID,
		UserID:         req.UserID,
		Amount:         price,
		Currency:       model.Currency,
		Draft:          rawDraft,
		State:          model.PendingCreated,
	})
	if err != nil {
		fail(span, err)
		return nil, fmt.Errorf("record pending payment: %w", err)
	}

	s.track(ctx, session, model.CheckoutAwaitingApproval, "", nil)
	s.deps.Logger.InfoContext(ctx, "checkout started",
		slog.String("checkout_id", session.ID),
		slog.String("order_id", session.OrderID.String()),
		slog.String("price", price.StringFixed(2)),
	)
	return session, nil
}

// Run executes the whole sequence and blocks until it ends.
func (s *Sequencer) Run(ctx context.Context, req Request) Result {
	session, err := s.Begin(ctx, req)
	if err != nil {
		res := Result{Outcome: OutcomeFailed, Step: StepCreatePayment, Err: err}
		checkoutOutcomesTotal.WithLabelValues(string(res.Outcome), string(res.Step)).Inc()
		return res
	}
	return session.Complete(ctx)
}

// Complete waits for approval, captures the payment and persists the order.
func (ss *Session) Complete(ctx context.Context) Result {
	res := ss.complete(ctx)
	res.CheckoutID = ss.ID
	checkoutOutcomesTotal.WithLabelValues(string(res.Outcome), string(res.Step)).Inc()

	ss.seq.track(context.WithoutCancel(ctx), ss, res.status(), res.Step, res.Err)
	log := ss.seq.deps.Logger.With(
		slog.String("checkout_id", ss.ID),
		slog.String("order_id", ss.OrderID.String()),
		slog.String("outcome", string(res.Outcome)),
		slog.String("step", string(res.Step)),
	)
	if res.Err != nil {
		log.WarnContext(ctx, "checkout finished", slog.String("error", res.Err.Error()))
	} else {
		log.InfoContext(ctx, "checkout finished")
	}
	return res
}

func (ss *Session) complete(ctx context.Context) Result {
	s := ss.seq
	cleanupCtx := context.WithoutCancel(ctx)

	if err := ss.awaitApproval(ctx); err != nil {
		if !approvalAbandoned(err) {
			s.setPending(cleanupCtx, ss.ID, model.PendingFailed)
			return Result{Outcome: OutcomeFailed, Step: StepAwaitApproval, Err: err}
		}
		s.setPending(cleanupCtx, ss.ID, model.PendingCancelled)
		return Result{Outcome: OutcomeCancelled, Step: StepAwaitApproval, Err: err}
	}
	s.track(ctx, ss, model.CheckoutProcessing, StepCapture, nil)

	capture, err := ss.capture(ctx)
	if err != nil {
		s.setPending(cleanupCtx, ss.ID, captureFailureState(capture, err))
		return Result{Outcome: OutcomeFailed, Step: StepCapture, Err: err}
	}
	ss.markCaptured(cleanupCtx, capture)

	order, inserted, err := ss.persistOrder(ctx)
	if err != nil {
		// the pending record stays captured for the reconciler
		return Result{Outcome: OutcomeFailed, Step: StepPersistOrder, Err: err}
	}

	order.Attachments = ss.uploadAttachments(ctx, order)
	ss.recordTransaction(ctx, capture)
	ss.finalize(ctx, order, inserted)

	return Result{
		Outcome:  OutcomeCompleted,
		Step:     StepFinalize,
		Order:    order,
		Redirect: "/dashboard/orders/" + order.ID.String(),
	}
}

// approvalAbandoned separates a buyer who cancelled or never came back from
// a broker that could not deliver the decision.
func approvalAbandoned(err error) bool {
	return errors.Is(err, domainErrors.ErrPaymentNotApproved) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled)
}

// captureFailureState picks the pending state after a failed capture. A
// rejection by the gateway is final; a lost answer or an unsettled capture
// is resolved later by the reconciler.
func captureFailureState(capture *model.Capture, err error) model.PendingState {
	if capture != nil {
		if capture.Unsettled() {
			return model.PendingCaptureUnknown
		}
		return model.PendingFailed
	}
	var apiErr *paypal.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode < http.StatusInternalServerError {
		return model.PendingFailed
	}
	return model.PendingCaptureUnknown
}

func (ss *Session) awaitApproval(ctx context.Context) error {
	ctx, span := ss.seq.tracer.Start(ctx, "checkout."+string(StepAwaitApproval))
	defer span.End()

	waitCtx, cancel := context.WithTimeout(ctx, ss.seq.opts.ApprovalTimeout)
	defer cancel()

	decision, err := ss.seq.deps.Broker.Await(waitCtx, ss.ID)
	if err != nil {
		// brokers report an expired wait in their own terms
		if ctxErr := waitCtx.Err(); ctxErr != nil {
			span.SetAttributes(attribute.String("decision", "timeout"))
			return fmt.Errorf("approval not received: %w", ctxErr)
		}
		fail(span, err)
		return fmt.Errorf("approval broker: %w", err)
	}
	span.SetAttributes(attribute.String("decision", string(decision)))
	if decision != model.DecisionApproved {
		return domainErrors.ErrPaymentNotApproved
	}
	return nil
}

// capture settles the payment. A capture the gateway answered but did not
// complete is returned together with the error.
func (ss *Session) capture(ctx context.Context) (*model.Capture, error) {
	ctx, span := ss.seq.tracer.Start(ctx, "checkout."+string(StepCapture))
	defer span.End()

	capture, err := ss.seq.deps.Gateway.Capture(ctx, ss.ID)
	if err != nil {
		fail(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.String("capture.status", capture.Status))
	if !capture.Completed() {
		err := fmt.Errorf("%w: status %q", domainErrors.ErrCaptureIncomplete, capture.Status)
		fail(span, err)
		return capture, err
	}
	return capture, nil
}

func (ss *Session) markCaptured(ctx context.Context, capture *model.Capture) {
	var err error
	for attempt := 1; attempt <= markCapturedAttempts; attempt++ {
		if err = ss.seq.deps.Payments.MarkCaptured(ctx, ss.ID, capture.TransactionID, capture.Payload); err == nil {
			return
		}
		if attempt < markCapturedAttempts {
			time.Sleep(time.Duration(attempt) * ss.seq.retryDelay)
		}
	}
	// the record stays created; the reconciler checks the gateway before expiring it
	ss.seq.deps.Logger.ErrorContext(ctx, "failed to mark payment captured",
		slog.String("checkout_id", ss.ID),
		slog.String("transaction_id", capture.TransactionID),
		slog.String("error", err.Error()),
	)
}

func (ss *Session) persistOrder(ctx context.Context) (*model.Order, bool, error) {
	ctx, span := ss.seq.tracer.Start(ctx, "checkout."+string(StepPersistOrder))
	defer span.End()

	order := BuildOrder(ss.OrderID, ss.UserID, ss.Draft, ss.Price, ss.seq.now().UTC())
	inserted, err := ss.seq.deps.Orders.Create(ctx, &order)
	if err != nil {
		fail(span, err)
		return nil, false, err
	}
	span.SetAttributes(attribute.Bool("order.inserted", inserted))
	return &order, inserted, nil
}

func (ss *Session) uploadAttachments(ctx context.Context, order *model.Order) []model.Attachment {
	if len(ss.uploads) == 0 {
		return nil
	}
	ctx, span := ss.seq.tracer.Start(ctx, "checkout."+string(StepUploadAttachments))
	defer span.End()

	var (
		mu       sync.Mutex
		uploaded = make([]model.Attachment, 0, len(ss.uploads))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ss.seq.opts.UploadConcurrency)
	for _, up := range ss.uploads {
		g.Go(func() error {
			attachment, err := StoreAttachment(gctx, ss.seq.deps.Objects, ss.seq.deps.Attachments, order, ss.UserID, up)
			if err != nil {
				ss.seq.deps.Logger.WarnContext(ctx, "attachment upload failed",
					slog.String("order_id", order.ID.String()),
					slog.String("file", up.FileName),
					slog.String("error", err.Error()),
				)
				return nil
			}
			mu.Lock()
			uploaded = append(uploaded, *attachment)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	span.SetAttributes(attribute.Int("attachments.uploaded", len(uploaded)), attribute.Int("attachments.requested", len(ss.uploads)))
	return uploaded
}

func (ss *Session) recordTransaction(ctx context.Context, capture *model.Capture) {
	ctx, span := ss.seq.tracer.Start(ctx, "checkout."+string(StepRecordTransaction))
	defer span.End()

	amount := capture.Amount
	if amount.IsZero() {
		amount = ss.Price
	}
	currency := capture.Currency
	if currency == "" {
		currency = model.Currency
	}
	_, err := ss.seq.deps.Payments.RecordTransaction(ctx, &model.PaymentTransaction{
		OrderID:        ss.OrderID,
		UserID:         ss.UserID,
		GatewayOrderID: ss.ID,
		TransactionID:  capture.TransactionID,
		Status:         capture.Status,
		Amount:         amount,
		Currency:       currency,
		Payload:        capture.Payload,
	})
	if err != nil {
		fail(span, err)
		ss.seq.deps.Logger.ErrorContext(ctx, "failed to record payment transaction",
			slog.String("order_id", ss.OrderID.String()), slog.String("error", err.Error()))
	}
}

// finalize closes the pending record. The order.placed event goes out only
// when this sequence wrote the order; otherwise the reconciler already sent it.
func (ss *Session) finalize(ctx context.Context, order *model.Order, inserted bool) {
	ctx, span := ss.seq.tracer.Start(ctx, "checkout."+string(StepFinalize))
	defer span.End()

	ss.seq.setPending(ctx, ss.ID, model.PendingReconciled)
	if !inserted {
		ss.seq.deps.Logger.InfoContext(ctx, "order already restored, notification skipped",
			slog.String("order_id", order.ID.String()))
		return
	}
	err := ss.seq.deps.Notifier.OrderPlaced(ctx, notify.OrderPlaced{
		OrderID:     order.ID,
		UserID:      order.UserID,
		Description: ss.Description,
		Price:       order.Price,
		Currency:    order.Currency,
		Deadline:    order.Deadline,
		Attachments: len(order.Attachments),
	})
	if err != nil {
		ss.seq.deps.Logger.WarnContext(ctx, "order notification failed",
			slog.String("order_id", order.ID.String()), slog.String("error", err.Error()))
	}
}

func (s *Sequencer) setPending(ctx context.Context, id string, state model.PendingState) {
	if err := s.deps.Payments.SetPendingState(ctx, id, state); err != nil {
		s.deps.Logger.ErrorContext(ctx, "failed to update pending payment",
			slog.String("checkout_id", id), slog.String("state", string(state)), slog.String("error", err.Error()))
	}
}

func (s *Sequencer) track(ctx context.Context, ss *Session, status model.CheckoutStatus, step Step, stepErr error) {
	if s.deps.Tracker == nil {
		return
	}
	snapshot := model.CheckoutSnapshot{
		ID:         ss.ID,
		UserID:     ss.UserID,
		OrderID:    ss.OrderID,
		Status:     status,
		Step:       string(step),
		ApproveURL: ss.ApproveURL,
		Price:      ss.Price,
		UpdatedAt:  s.now().UTC(),
	}
	if status == model.CheckoutCompleted {
		snapshot.Redirect = "/dashboard/orders/" + ss.OrderID.String()
	}
	if stepErr != nil {
		snapshot.Error = stepErr.Error()
	}
	if err := s.deps.Tracker.Save(ctx, snapshot); err != nil {
		s.deps.Logger.WarnContext(ctx, "failed to save checkout snapshot",
			slog.String("checkout_id", ss.ID), slog.String("error", err.Error()))
	}
}

// BuildOrder materializes a paid draft as a pending order.
func BuildOrder(id, userID uuid.UUID, draft orderform.Draft, price decimal.Decimal, at time.Time) model.Order {
	return model.Order{
		ID:            id,
		UserID:        userID,
		PaperType:     draft.PaperType,
		AcademicLevel: draft.AcademicLevel,
		Subject:       draft.Subject,
		Topic:         draft.Topic,
		Instructions:  draft.Description,
		WordCount:     draft.WordCount,
		SourceCount:   draft.SourceCount,
		Urgency:       draft.Urgency,
		Urgent:        draft.Urgency.Urgent(),
		Price:         price,
		Currency:      model.Currency,
		Deadline:      draft.Urgency.Deadline(at),
		Status:        model.OrderStatusPending,
		CreatedAt:     at,
		UpdatedAt:     at,
	}
}

// RestoreOrder rebuilds the order a captured pending payment stands for.
func RestoreOrder(p model.PendingPayment, at time.Time) (model.Order, error) {
	var draft orderform.Draft
	if err := json.Unmarshal(p.Draft, &draft); err != nil {
		return model.Order{}, fmt.Errorf("decode draft of %s: %w", p.GatewayOrderID, err)
	}
	return BuildOrder(p.OrderID, p.UserID, draft, p.Amount, at), nil
}

// StoreAttachment uploads one file under the order's path and records it.
func StoreAttachment(ctx context.Context, objects repository.ObjectStore, attachments repository.AttachmentRepository, order *model.Order, ownerID uuid.UUID, up Upload) (*model.Attachment, error) {
	path := filestore.ObjectPath(order.UserID, order.ID, up.FileName)
	size, err := objects.Put(ctx, path, bytes.NewReader(up.Data))
	if err != nil {
		return nil, fmt.Errorf("store %s: %w", up.FileName, err)
	}
	attachment := &model.Attachment{
		OrderID:     order.ID,
		OwnerID:     ownerID,
		FileName:    filestore.SanitizeName(up.FileName),
		StoragePath: path,
		ContentType: up.ContentType,
		SizeBytes:   size,
	}
	if err := attachments.Create(ctx, attachment); err != nil {
		return nil, fmt.Errorf("record %s: %w", up.FileName, err)
	}
	return attachment, nil
}

func fail(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
