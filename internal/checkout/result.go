package checkout

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/polkiloo/paperdesk/internal/domain/model"
)

// Outcome is how a checkout ended. Cancellation is an outcome, not an error.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeCancelled Outcome = "cancelled"
	OutcomeFailed    Outcome = "failed"
)

// Step names the stage a checkout stopped at.
type Step string

const (
	StepCreatePayment     Step = "create_payment"
	StepAwaitApproval     Step = "await_approval"
	StepCapture           Step = "capture"
	StepPersistOrder      Step = "persist_order"
	StepUploadAttachments Step = "upload_attachments"
	StepRecordTransaction Step = "record_transaction"
	StepFinalize          Step = "finalize"
)

// Result describes the end of a checkout sequence.
type Result struct {
	CheckoutID string
	Outcome    Outcome
	Step       Step
	Err        error
	Order      *model.Order
	Redirect   string
}

func (r Result) status() model.CheckoutStatus {
	switch r.Outcome {
	case OutcomeCompleted:
		return model.CheckoutCompleted
	case OutcomeCancelled:
		return model.CheckoutCancelled
	default:
		return model.CheckoutFailed
	}
}

var checkoutOutcomesTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "checkout_outcomes_total",
		Help: "Total number of finished checkout sequences by outcome",
	},
	[]string{"outcome", "step"},
)

func init() {
	prometheus.MustRegister(checkoutOutcomesTotal)
}
