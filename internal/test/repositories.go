package test

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	domainErrors "github.com/polkiloo/paperdesk/internal/domain/errors"
	"github.com/polkiloo/paperdesk/internal/domain/model"
	"github.com/polkiloo/paperdesk/internal/domain/repository"
)

// ProfileRepositoryStub stores profiles in-memory for tests.
type ProfileRepositoryStub struct {
	mu   sync.Mutex
	ByID map[uuid.UUID]*model.Profile
	Err  error
}

// NewProfileRepositoryStub constructs stub repository with initialized maps.
func NewProfileRepositoryStub(profiles ...model.Profile) *ProfileRepositoryStub {
	s := &ProfileRepositoryStub{ByID: make(map[uuid.UUID]*model.Profile)}
	for i := range profiles {
		p := profiles[i]
		s.ByID[p.ID] = &p
	}
	return s
}

// Create registers profile unless the email is taken.
func (s *ProfileRepositoryStub) Create(ctx context.Context, p model.Profile) (*model.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	for _, existing := range s.ByID {
		if existing.Email == p.Email {
			return nil, domainErrors.ErrAlreadyExists
		}
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.IsActive = true
	p.CreatedAt = time.Now().UTC()
	p.UpdatedAt = p.CreatedAt
	s.ByID[p.ID] = &p
	copied := p
	return &copied, nil
}

// GetByEmail fetches profile by email or returns not found.
func (s *ProfileRepositoryStub) GetByEmail(ctx context.Context, email string) (*model.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	email = strings.ToLower(strings.TrimSpace(email))
	for _, p := range s.ByID {
		if p.Email == email {
			copied := *p
			return &copied, nil
		}
	}
	return nil, domainErrors.ErrNotFound
}

// GetByID fetches profile by identifier.
func (s *ProfileRepositoryStub) GetByID(ctx context.Context, id uuid.UUID) (*model.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	if p, ok := s.ByID[id]; ok {
		copied := *p
		return &copied, nil
	}
	return nil, domainErrors.ErrNotFound
}

// UpdateName changes name parts.
func (s *ProfileRepositoryStub) UpdateName(ctx context.Context, id uuid.UUID, firstName, lastName string) (*model.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	p, ok := s.ByID[id]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	p.FirstName, p.LastName = firstName, lastName
	copied := *p
	return &copied, nil
}

// UpdatePassword replaces the stored hash.
func (s *ProfileRepositoryStub) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	p, ok := s.ByID[id]
	if !ok {
		return domainErrors.ErrNotFound
	}
	p.PasswordHash = passwordHash
	return nil
}

// SetRole flips admin or writer flag.
func (s *ProfileRepositoryStub) SetRole(ctx context.Context, id uuid.UUID, role model.Role, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	p, ok := s.ByID[id]
	if !ok {
		return domainErrors.ErrNotFound
	}
	switch role {
	case model.RoleAdmin:
		p.IsAdmin = enabled
	case model.RoleWriter:
		p.IsWriter = enabled
	}
	return nil
}

// ListClients returns profiles without staff flags.
func (s *ProfileRepositoryStub) ListClients(ctx context.Context) ([]model.Profile, error) {
	return s.filter(func(p *model.Profile) bool { return !p.IsWriter && !p.IsAdmin })
}

// ListWriters returns writer profiles.
func (s *ProfileRepositoryStub) ListWriters(ctx context.Context) ([]model.Profile, error) {
	return s.filter(func(p *model.Profile) bool { return p.IsWriter })
}

func (s *ProfileRepositoryStub) filter(keep func(*model.Profile) bool) ([]model.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	var result []model.Profile
	for _, p := range s.ByID {
		if keep(p) {
			result = append(result, *p)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Email < result[j].Email })
	return result, nil
}

// PasswordResetRepositoryStub keeps reset tokens by hash.
type PasswordResetRepositoryStub struct {
	mu     sync.Mutex
	ByHash map[string]*model.PasswordReset
	Err    error
}

// NewPasswordResetRepositoryStub constructs empty stub.
func NewPasswordResetRepositoryStub() *PasswordResetRepositoryStub {
	return &PasswordResetRepositoryStub{ByHash: make(map[string]*model.PasswordReset)}
}

// Create stores a reset token.
func (s *PasswordResetRepositoryStub) Create(ctx context.Context, reset model.PasswordReset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.ByHash[reset.TokenHash] = &reset
	return nil
}

// Consume marks the token used when it is still valid.
func (s *PasswordResetRepositoryStub) Consume(ctx context.Context, tokenHash string, now time.Time) (*model.PasswordReset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	reset, ok := s.ByHash[tokenHash]
	if !ok || reset.UsedAt != nil || !now.Before(reset.ExpiresAt) {
		return nil, domainErrors.ErrNotFound
	}
	used := now
	reset.UsedAt = &used
	copied := *reset
	return &copied, nil
}

// OrderRepositoryStub stores orders in-memory for tests.
type OrderRepositoryStub struct {
	mu        sync.Mutex
	ByID      map[uuid.UUID]*model.Order
	Writers   map[uuid.UUID]bool
	Err       error
	CreateErr error
	Creates   int
}

// NewOrderRepositoryStub constructs stub repository with initialized maps.
func NewOrderRepositoryStub(orders ...model.Order) *OrderRepositoryStub {
	s := &OrderRepositoryStub{ByID: make(map[uuid.UUID]*model.Order), Writers: make(map[uuid.UUID]bool)}
	for i := range orders {
		o := orders[i]
		s.ByID[o.ID] = &o
	}
	return s
}

// Create inserts unless the ID exists.
func (s *OrderRepositoryStub) Create(ctx context.Context, order *model.Order) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Creates++
	if s.CreateErr != nil {
		return false, s.CreateErr
	}
	if s.Err != nil {
		return false, s.Err
	}
	if _, exists := s.ByID[order.ID]; exists {
		return false, nil
	}
	copied := *order
	copied.Attachments = nil
	s.ByID[order.ID] = &copied
	return true, nil
}

// GetByID returns stored order.
func (s *OrderRepositoryStub) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	if o, ok := s.ByID[id]; ok {
		copied := *o
		return &copied, nil
	}
	return nil, domainErrors.ErrNotFound
}

// ListByUser returns client orders.
func (s *OrderRepositoryStub) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Order, error) {
	return s.filter(0, func(o *model.Order) bool { return o.UserID == userID })
}

// ListByWriter returns orders assigned to writer.
func (s *OrderRepositoryStub) ListByWriter(ctx context.Context, writerID uuid.UUID) ([]model.Order, error) {
	return s.filter(0, func(o *model.Order) bool { return o.WriterID != nil && *o.WriterID == writerID })
}

// List applies the staff filter.
func (s *OrderRepositoryStub) List(ctx context.Context, filter repository.OrderFilter) ([]model.Order, error) {
	return s.filter(filter.Limit, func(o *model.Order) bool { return filter.Status == "" || o.Status == filter.Status })
}

// CountByStatus aggregates stored orders.
func (s *OrderRepositoryStub) CountByStatus(ctx context.Context) ([]model.StatusCount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	counts := make(map[model.OrderStatus]int64)
	for _, o := range s.ByID {
		counts[o.Status]++
	}
	var result []model.StatusCount
	for _, status := range model.OrderStatuses() {
		if n := counts[status]; n > 0 {
			result = append(result, model.StatusCount{Status: status, Count: n})
		}
	}
	return result, nil
}

// UpdateStatus honours the optional expected status.
func (s *OrderRepositoryStub) UpdateStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus, expected *model.OrderStatus, at time.Time) (*model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	o, ok := s.ByID[id]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	if expected != nil && o.Status != *expected {
		return nil, domainErrors.ErrStatusConflict
	}
	o.Status = status
	o.UpdatedAt = at
	copied := *o
	return &copied, nil
}

// AssignWriter requires the writer to be registered in Writers.
func (s *OrderRepositoryStub) AssignWriter(ctx context.Context, id, writerID uuid.UUID, status model.OrderStatus, expected *model.OrderStatus, at time.Time) (*model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	if !s.Writers[writerID] {
		return nil, domainErrors.ErrWriterUnavailable
	}
	o, ok := s.ByID[id]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	if expected != nil && o.Status != *expected {
		return nil, domainErrors.ErrStatusConflict
	}
	w := writerID
	o.WriterID = &w
	o.Status = status
	o.UpdatedAt = at
	copied := *o
	return &copied, nil
}

func (s *OrderRepositoryStub) filter(limit int, keep func(*model.Order) bool) ([]model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	var result []model.Order
	for _, o := range s.ByID {
		if keep(o) {
			result = append(result, *o)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// AttachmentRepositoryStub stores attachment rows.
type AttachmentRepositoryStub struct {
	mu   sync.Mutex
	ByID map[uuid.UUID]*model.Attachment
	Err  error
}

// NewAttachmentRepositoryStub constructs empty stub.
func NewAttachmentRepositoryStub() *AttachmentRepositoryStub {
	return &AttachmentRepositoryStub{ByID: make(map[uuid.UUID]*model.Attachment)}
}

// Create stores attachment and assigns identifiers.
func (s *AttachmentRepositoryStub) Create(ctx context.Context, a *model.Attachment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	copied := *a
	s.ByID[a.ID] = &copied
	return nil
}

// GetByID returns attachment.
func (s *AttachmentRepositoryStub) GetByID(ctx context.Context, id uuid.UUID) (*model.Attachment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.ByID[id]; ok {
		copied := *a
		return &copied, nil
	}
	return nil, domainErrors.ErrNotFound
}

// ListByOrder returns attachments of order.
func (s *AttachmentRepositoryStub) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]model.Attachment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	var result []model.Attachment
	for _, a := range s.ByID {
		if a.OrderID == orderID {
			result = append(result, *a)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].FileName < result[j].FileName })
	return result, nil
}

// PaymentRepositoryStub keeps pending payments and transactions.
type PaymentRepositoryStub struct {
	mu           sync.Mutex
	Pending      map[string]*model.PendingPayment
	Transactions map[string]*model.PaymentTransaction
	Err          error
	PendingErr   error
	RecordErr    error
	// MarkCapturedFn, when set, can fail a MarkCaptured call before it is applied.
	MarkCapturedFn func(id string) error
	MarkCalls      int
}

// NewPaymentRepositoryStub constructs empty stub.
func NewPaymentRepositoryStub() *PaymentRepositoryStub {
	return &PaymentRepositoryStub{
		Pending:      make(map[string]*model.PendingPayment),
		Transactions: make(map[string]*model.PaymentTransaction),
	}
}

// CreatePending stores a pending record.
func (s *PaymentRepositoryStub) CreatePending(ctx context.Context, p *model.PendingPayment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.PendingErr != nil {
		return s.PendingErr
	}
	if s.Err != nil {
		return s.Err
	}
	if _, exists := s.Pending[p.GatewayOrderID]; exists {
		return domainErrors.ErrAlreadyExists
	}
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = p.CreatedAt
	if p.State == "" {
		p.State = model.PendingCreated
	}
	copied := *p
	s.Pending[p.GatewayOrderID] = &copied
	return nil
}

// GetPending returns a pending record.
func (s *PaymentRepositoryStub) GetPending(ctx context.Context, id string) (*model.PendingPayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	if p, ok := s.Pending[id]; ok {
		copied := *p
		return &copied, nil
	}
	return nil, domainErrors.ErrNotFound
}

// SetPendingState moves a record to state.
func (s *PaymentRepositoryStub) SetPendingState(ctx context.Context, id string, state model.PendingState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	p, ok := s.Pending[id]
	if !ok {
		return domainErrors.ErrNotFound
	}
	p.State = state
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// MarkCaptured stores capture details.
func (s *PaymentRepositoryStub) MarkCaptured(ctx context.Context, id, transactionID string, payload json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.MarkCalls++
	if s.MarkCapturedFn != nil {
		if err := s.MarkCapturedFn(id); err != nil {
			return err
		}
	}
	if s.Err != nil {
		return s.Err
	}
	p, ok := s.Pending[id]
	if !ok {
		return domainErrors.ErrNotFound
	}
	p.State = model.PendingCaptured
	p.TransactionID = transactionID
	p.CapturePayload = payload
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// ListPending returns records in state last touched before cutoff.
func (s *PaymentRepositoryStub) ListPending(ctx context.Context, state model.PendingState, before time.Time, limit int) ([]model.PendingPayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	var result []model.PendingPayment
	for _, p := range s.Pending {
		if p.State == state && p.UpdatedAt.Before(before) {
			result = append(result, *p)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].UpdatedAt.Before(result[j].UpdatedAt) })
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// RecordTransaction is idempotent on transaction id.
func (s *PaymentRepositoryStub) RecordTransaction(ctx context.Context, tx *model.PaymentTransaction) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.RecordErr != nil {
		return false, s.RecordErr
	}
	if s.Err != nil {
		return false, s.Err
	}
	if _, exists := s.Transactions[tx.TransactionID]; exists {
		return false, nil
	}
	if tx.ID == uuid.Nil {
		tx.ID = uuid.New()
	}
	copied := *tx
	s.Transactions[tx.TransactionID] = &copied
	return true, nil
}

// PendingState returns the current state of a pending record.
func (s *PaymentRepositoryStub) PendingState(id string) model.PendingState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.Pending[id]; ok {
		return p.State
	}
	return ""
}

var (
	_ repository.ProfileRepository       = (*ProfileRepositoryStub)(nil)
	_ repository.PasswordResetRepository = (*PasswordResetRepositoryStub)(nil)
	_ repository.OrderRepository         = (*OrderRepositoryStub)(nil)
	_ repository.AttachmentRepository    = (*AttachmentRepositoryStub)(nil)
	_ repository.PaymentRepository       = (*PaymentRepositoryStub)(nil)
)
