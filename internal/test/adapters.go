package test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/polkiloo/paperdesk/internal/adapter/notify"
	"github.com/polkiloo/paperdesk/internal/adapter/paypal"
	domainErrors "github.com/polkiloo/paperdesk/internal/domain/errors"
	"github.com/polkiloo/paperdesk/internal/domain/model"
	"github.com/polkiloo/paperdesk/internal/domain/repository"
)

// GatewayStub simulates the payment gateway.
type GatewayStub struct {
	mu            sync.Mutex
	CreateFn      func(context.Context, paypal.OrderRequest) (*model.RemotePayment, error)
	CaptureFn     func(context.Context, string) (*model.Capture, error)
	ShowFn        func(context.Context, string) (*model.Capture, error)
	Requests      []paypal.OrderRequest
	Captured      []string
	Shown         []string
	CaptureStatus string
}

// CreateOrder returns a remote payment with an approval link.
func (g *GatewayStub) CreateOrder(ctx context.Context, req paypal.OrderRequest) (*model.RemotePayment, error) {
	g.mu.Lock()
	g.Requests = append(g.Requests, req)
	n := len(g.Requests)
	g.mu.Unlock()
	if g.CreateFn != nil {
		return g.CreateFn(ctx, req)
	}
	id := fmt.Sprintf("PAY-%d", n)
	return &model.RemotePayment{ID: id, Status: "CREATED", ApproveURL: "https://paypal.test/approve?token=" + id}, nil
}

// Capture returns a capture with CaptureStatus, COMPLETED by default.
func (g *GatewayStub) Capture(ctx context.Context, id string) (*model.Capture, error) {
	g.mu.Lock()
	g.Captured = append(g.Captured, id)
	g.mu.Unlock()
	if g.CaptureFn != nil {
		return g.CaptureFn(ctx, id)
	}
	status := g.CaptureStatus
	if status == "" {
		status = model.CaptureStatusCompleted
	}
	payload, _ := json.Marshal(map[string]string{"id": id, "status": status})
	return &model.Capture{
		OrderID:       id,
		OrderStatus:   model.CaptureStatusCompleted,
		Status:        status,
		TransactionID: "TX-" + id,
		Amount:        decimal.Zero,
		Payload:       payload,
	}, nil
}

// ShowOrder delegates to ShowFn and reports an order without capture otherwise.
func (g *GatewayStub) ShowOrder(ctx context.Context, id string) (*model.Capture, error) {
	g.mu.Lock()
	g.Shown = append(g.Shown, id)
	g.mu.Unlock()
	if g.ShowFn != nil {
		return g.ShowFn(ctx, id)
	}
	return &model.Capture{OrderID: id, OrderStatus: "APPROVED"}, nil
}

// CompletedCapture builds the gateway view of a settled capture.
func CompletedCapture(id, transactionID string) *model.Capture {
	payload, _ := json.Marshal(map[string]string{"id": id, "status": model.CaptureStatusCompleted})
	return &model.Capture{
		OrderID:       id,
		OrderStatus:   model.CaptureStatusCompleted,
		Status:        model.CaptureStatusCompleted,
		TransactionID: transactionID,
		Payload:       payload,
	}
}

// ObjectStoreStub keeps objects in memory.
type ObjectStoreStub struct {
	mu      sync.Mutex
	Objects map[string][]byte
	PutFn   func(path string) error
}

// NewObjectStoreStub constructs empty stub.
func NewObjectStoreStub() *ObjectStoreStub {
	return &ObjectStoreStub{Objects: make(map[string][]byte)}
}

// Put stores bytes under path.
func (s *ObjectStoreStub) Put(ctx context.Context, path string, r io.Reader) (int64, error) {
	if s.PutFn != nil {
		if err := s.PutFn(path); err != nil {
			return 0, err
		}
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	s.Objects[path] = data
	s.mu.Unlock()
	return int64(len(data)), nil
}

// Open returns stored bytes.
func (s *ObjectStoreStub) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.Objects[path]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// NotifierStub records delivered events.
type NotifierStub struct {
	mu     sync.Mutex
	Placed []notify.OrderPlaced
	Resets []notify.PasswordResetRequested
	Err    error
}

// OrderPlaced records the event.
func (n *NotifierStub) OrderPlaced(ctx context.Context, event notify.OrderPlaced) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.Err != nil {
		return n.Err
	}
	n.Placed = append(n.Placed, event)
	return nil
}

// PasswordResetRequested records the event.
func (n *NotifierStub) PasswordResetRequested(ctx context.Context, event notify.PasswordResetRequested) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.Err != nil {
		return n.Err
	}
	n.Resets = append(n.Resets, event)
	return nil
}

// PlacedCount returns number of order events.
func (n *NotifierStub) PlacedCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.Placed)
}

var (
	_ paypal.Gateway         = (*GatewayStub)(nil)
	_ repository.ObjectStore = (*ObjectStoreStub)(nil)
	_ notify.Notifier        = (*NotifierStub)(nil)
)
