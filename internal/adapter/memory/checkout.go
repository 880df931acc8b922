package memory

import (
	"context"
	"sync"
	"time"

	domainErrors "github.com/polkiloo/paperdesk/internal/domain/errors"
	"github.com/polkiloo/paperdesk/internal/domain/model"
)

type approvalSlot struct {
	done     chan struct{}
	decision model.ApprovalDecision
}

// ApprovalBroker hands buyer decisions from the return/cancel endpoints to
// the goroutine awaiting them. A decision that arrives first is kept until
// it is awaited.
type ApprovalBroker struct {
	mu    sync.Mutex
	slots map[string]*approvalSlot
}

func NewApprovalBroker() *ApprovalBroker {
	return &ApprovalBroker{slots: make(map[string]*approvalSlot)}
}

func (b *ApprovalBroker) slot(id string) *approvalSlot {
	s, ok := b.slots[id]
	if !ok {
		s = &approvalSlot{done: make(chan struct{})}
		b.slots[id] = s
	}
	return s
}

// Signal records the first decision for a checkout; later ones are ignored.
func (b *ApprovalBroker) Signal(_ context.Context, checkoutID string, decision model.ApprovalDecision) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := b.slot(checkoutID)
	select {
	case <-s.done:
	default:
		s.decision = decision
		close(s.done)
	}
	return nil
}

// Await blocks until a decision arrives or ctx ends.
func (b *ApprovalBroker) Await(ctx context.Context, checkoutID string) (model.ApprovalDecision, error) {
	b.mu.Lock()
	s := b.slot(checkoutID)
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		delete(b.slots, checkoutID)
		b.mu.Unlock()
	}()

	select {
	case <-s.done:
		return s.decision, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// SnapshotRetention bounds how long finished checkouts stay queryable.
const SnapshotRetention = time.Hour

// CheckoutTracker keeps the latest snapshot per checkout.
type CheckoutTracker struct {
	mu        sync.RWMutex
	snapshots map[string]model.CheckoutSnapshot
}

func NewCheckoutTracker() *CheckoutTracker {
	return &CheckoutTracker{snapshots: make(map[string]model.CheckoutSnapshot)}
}

func (t *CheckoutTracker) Save(_ context.Context, snapshot model.CheckoutSnapshot) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	cutoff := snapshot.UpdatedAt.Add(-SnapshotRetention)
	for id, s := range t.snapshots {
		if s.Status.Done() && s.UpdatedAt.Before(cutoff) {
			delete(t.snapshots, id)
		}
	}
	t.snapshots[snapshot.ID] = snapshot
	return nil
}

func (t *CheckoutTracker) Get(_ context.Context, checkoutID string) (*model.CheckoutSnapshot, error) {
	t.mu.RLock()
	snapshot, ok := t.snapshots[checkoutID]
	t.mu.RUnlock()
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	return &snapshot, nil
}
