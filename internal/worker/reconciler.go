package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/polkiloo/paperdesk/internal/adapter/notify"
	"github.com/polkiloo/paperdesk/internal/adapter/paypal"
	"github.com/polkiloo/paperdesk/internal/checkout"
	"github.com/polkiloo/paperdesk/internal/domain/model"
	"github.com/polkiloo/paperdesk/internal/domain/repository"
)

var reconciledPaymentsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "reconciled_payments_total",
		Help: "Pending payments handled by the reconciler by result",
	},
	[]string{"result"},
)

func init() {
	prometheus.MustRegister(reconciledPaymentsTotal)
}

// ReconcilerOptions tune polling.
type ReconcilerOptions struct {
	Interval    time.Duration
	Grace       time.Duration
	ApprovalTTL time.Duration
	BatchSize   int
	Workers     int
}

// Report summarizes one reconciliation pass.
type Report struct {
	Reconciled int
	Inserted   int
	// Recovered counts captures found at the gateway that were never recorded.
	Recovered int
	Expired   int
	Failed    int
}

// Reconciler repairs captured payments whose order was never written,
// settles captures whose result was lost, and expires checkouts that were
// never approved.
type Reconciler struct {
	payments repository.PaymentRepository
	orders   repository.OrderRepository
	gateway  paypal.Gateway
	notifier notify.Notifier
	opts     ReconcilerOptions
	logger   *slog.Logger
	now      func() time.Time

	jobs   chan model.PendingPayment
	wg     sync.WaitGroup
	cancel context.CancelFunc
	mu     sync.Mutex
}

// NewReconciler constructs the reconciler worker pool.
func NewReconciler(payments repository.PaymentRepository, orders repository.OrderRepository, gateway paypal.Gateway, notifier notify.Notifier, opts ReconcilerOptions, logger *slog.Logger) *Reconciler {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 1
	}
	if opts.Interval <= 0 {
		opts.Interval = 30 * time.Second
	}
	return &Reconciler{
		payments: payments,
		orders:   orders,
		gateway:  gateway,
		notifier: notifier,
		opts:     opts,
		logger:   logger,
		now:      time.Now,
		jobs:     make(chan model.PendingPayment, opts.BatchSize*opts.Workers),
	}
}

// Start launches background processing.
func (r *Reconciler) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	for i := 0; i < r.opts.Workers; i++ {
		r.wg.Add(1)
		go r.worker(runCtx)
	}

	r.wg.Add(1)
	go r.dispatch(runCtx)
}

// Stop cancels polling and waits for in-flight records.
func (r *Reconciler) Stop() {
	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.mu.Unlock()

	r.wg.Wait()
}

// RunOnce performs a single synchronous pass.
func (r *Reconciler) RunOnce(ctx context.Context) (Report, error) {
	var report Report

	if err := r.settleUnknown(ctx, &report); err != nil {
		return report, err
	}
	if err := r.expireAbandoned(ctx, &report); err != nil {
		return report, err
	}

	captured, err := r.payments.ListPending(ctx, model.PendingCaptured, r.now().Add(-r.opts.Grace), r.opts.BatchSize)
	if err != nil {
		return report, err
	}
	for _, p := range captured {
		report.add(r.reconcile(ctx, p))
	}
	return report, nil
}

func (rep *Report) add(inserted bool, err error) {
	switch {
	case err != nil:
		rep.Failed++
	case inserted:
		rep.Inserted++
		rep.Reconciled++
	default:
		rep.Reconciled++
	}
}

func (rep *Report) recovered(inserted bool, err error) {
	if err == nil {
		rep.Recovered++
	}
	rep.add(inserted, err)
}

func (r *Reconciler) dispatch(ctx context.Context) {
	defer r.wg.Done()
	defer close(r.jobs)
	ticker := time.NewTicker(r.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.fetchAndDispatch(ctx)
		}
	}
}

func (r *Reconciler) fetchAndDispatch(ctx context.Context) {
	var report Report
	if err := r.settleUnknown(ctx, &report); err != nil {
		r.logger.Error("settle unknown captures failed", slog.String("error", err.Error()))
	}
	if err := r.expireAbandoned(ctx, &report); err != nil {
		r.logger.Error("expire abandoned checkouts failed", slog.String("error", err.Error()))
	}

	captured, err := r.payments.ListPending(ctx, model.PendingCaptured, r.now().Add(-r.opts.Grace), r.opts.BatchSize)
	if err != nil {
		r.logger.Error("fetch captured payments failed", slog.String("error", err.Error()))
		return
	}
	for _, p := range captured {
		select {
		case <-ctx.Done():
			return
		case r.jobs <- p:
		}
	}
}

func (r *Reconciler) worker(ctx context.Context) {
	defer r.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case p, ok := <-r.jobs:
			if !ok {
				return
			}
			_, _ = r.reconcile(ctx, p)
		}
	}
}

// settleUnknown asks the gateway about captures whose result never arrived.
// A completed capture is recorded and reconciled, a still pending one is
// left for the next pass, anything else failed.
func (r *Reconciler) settleUnknown(ctx context.Context, report *Report) error {
	unknown, err := r.payments.ListPending(ctx, model.PendingCaptureUnknown, r.now().Add(-r.opts.Grace), r.opts.BatchSize)
	if err != nil {
		return err
	}
	for _, p := range unknown {
		capture, err := r.gateway.ShowOrder(ctx, p.GatewayOrderID)
		switch {
		case err != nil:
			r.logger.Warn("gateway lookup failed", slog.String("checkout_id", p.GatewayOrderID), slog.String("error", err.Error()))
			report.Failed++
		case capture.Completed():
			report.recovered(r.recoverCapture(ctx, p, capture))
		case capture.Unsettled():
			r.logger.Info("capture still pending at gateway", slog.String("checkout_id", p.GatewayOrderID))
		default:
			if err := r.payments.SetPendingState(ctx, p.GatewayOrderID, model.PendingFailed); err != nil {
				report.Failed++
				continue
			}
			reconciledPaymentsTotal.WithLabelValues("capture_failed").Inc()
		}
	}
	return nil
}

// expireAbandoned closes checkouts still waiting for approval past their
// TTL. The gateway is asked first, since a capture whose record update was
// lost also looks like this.
func (r *Reconciler) expireAbandoned(ctx context.Context, report *Report) error {
	if r.opts.ApprovalTTL <= 0 {
		return nil
	}
	stale, err := r.payments.ListPending(ctx, model.PendingCreated, r.now().Add(-(r.opts.ApprovalTTL + r.opts.Grace)), r.opts.BatchSize)
	if err != nil {
		return err
	}
	for _, p := range stale {
		capture, err := r.gateway.ShowOrder(ctx, p.GatewayOrderID)
		if err != nil {
			r.logger.Warn("gateway lookup failed", slog.String("checkout_id", p.GatewayOrderID), slog.String("error", err.Error()))
			report.Failed++
			continue
		}
		if capture.Completed() {
			report.recovered(r.recoverCapture(ctx, p, capture))
			continue
		}
		if err := r.payments.SetPendingState(ctx, p.GatewayOrderID, model.PendingExpired); err != nil {
			r.logger.Error("expire checkout failed", slog.String("checkout_id", p.GatewayOrderID), slog.String("error", err.Error()))
			report.Failed++
			continue
		}
		report.Expired++
		reconciledPaymentsTotal.WithLabelValues("expired").Inc()
	}
	return nil
}

// recoverCapture records a capture found at the gateway and reconciles it.
func (r *Reconciler) recoverCapture(ctx context.Context, p model.PendingPayment, capture *model.Capture) (bool, error) {
	if err := r.payments.MarkCaptured(ctx, p.GatewayOrderID, capture.TransactionID, capture.Payload); err != nil {
		r.logger.Error("mark recovered capture failed", slog.String("checkout_id", p.GatewayOrderID), slog.String("error", err.Error()))
		reconciledPaymentsTotal.WithLabelValues("failed").Inc()
		return false, err
	}
	r.logger.Info("capture recovered from gateway",
		slog.String("checkout_id", p.GatewayOrderID), slog.String("transaction_id", capture.TransactionID))
	reconciledPaymentsTotal.WithLabelValues("recovered").Inc()

	p.State = model.PendingCaptured
	p.TransactionID = capture.TransactionID
	p.CapturePayload = capture.Payload
	p.UpdatedAt = r.now()
	return r.reconcile(ctx, p)
}

// reconcile writes the order and transaction of a captured payment. Both
// writes are idempotent, so a record may be handled more than once.
func (r *Reconciler) reconcile(ctx context.Context, p model.PendingPayment) (bool, error) {
	log := r.logger.With(slog.String("checkout_id", p.GatewayOrderID), slog.String("order_id", p.OrderID.String()))

	order, err := checkout.RestoreOrder(p, p.UpdatedAt.UTC())
	if err != nil {
		log.Error("restore order failed", slog.String("error", err.Error()))
		reconciledPaymentsTotal.WithLabelValues("failed").Inc()
		return false, err
	}

	inserted, err := r.orders.Create(ctx, &order)
	if err != nil {
		log.Error("insert order failed", slog.String("error", err.Error()))
		reconciledPaymentsTotal.WithLabelValues("failed").Inc()
		return false, err
	}

	if p.TransactionID != "" {
		_, err := r.payments.RecordTransaction(ctx, &model.PaymentTransaction{
			OrderID:        p.OrderID,
			UserID:         p.UserID,
			GatewayOrderID: p.GatewayOrderID,
			TransactionID:  p.TransactionID,
			Status:         model.CaptureStatusCompleted,
			Amount:         p.Amount,
			Currency:       p.Currency,
			Payload:        p.CapturePayload,
		})
		if err != nil {
			log.Error("record transaction failed", slog.String("error", err.Error()))
			reconciledPaymentsTotal.WithLabelValues("failed").Inc()
			return false, err
		}
	}

	if err := r.payments.SetPendingState(ctx, p.GatewayOrderID, model.PendingReconciled); err != nil {
		log.Error("mark reconciled failed", slog.String("error", err.Error()))
		reconciledPaymentsTotal.WithLabelValues("failed").Inc()
		return false, err
	}

	if inserted {
		err := r.notifier.OrderPlaced(ctx, notify.OrderPlaced{
			OrderID:     order.ID,
			UserID:      order.UserID,
			Description: model.Describe(order.PaperType, order.AcademicLevel, order.WordCount, order.Urgency),
			Price:       order.Price,
			Currency:    order.Currency,
			Deadline:    order.Deadline,
		})
		if err != nil {
			log.Warn("order notification failed", slog.String("error", err.Error()))
		}
		log.Info("order restored from captured payment")
		reconciledPaymentsTotal.WithLabelValues("inserted").Inc()
	} else {
		reconciledPaymentsTotal.WithLabelValues("reconciled").Inc()
	}
	return inserted, nil
}
