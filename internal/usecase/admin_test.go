package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainErrors "github.com/polkiloo/paperdesk/internal/domain/errors"
	"github.com/polkiloo/paperdesk/internal/domain/model"
	testhelpers "github.com/polkiloo/paperdesk/internal/test"
)

var adminNow = time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC)

func newAdmin(orders *testhelpers.OrderRepositoryStub, profiles *testhelpers.ProfileRepositoryStub, opts AdminOptions) *AdminUseCase {
	uc := NewAdminUseCase(orders, profiles, opts, discardLogger())
	uc.now = func() time.Time { return adminNow }
	return uc
}

func orderIn(status model.OrderStatus) model.Order {
	return model.Order{ID: uuid.New(), UserID: uuid.New(), Status: status, CreatedAt: adminNow.Add(-time.Hour)}
}

func TestChangeStatusFollowsGuard(t *testing.T) {
	cases := []struct {
		from, to model.OrderStatus
		err      error
	}{
		{model.OrderStatusPending, model.OrderStatusAssigned, nil},
		{model.OrderStatusUnderReview, model.OrderStatusCompleted, nil},
		{model.OrderStatusRevisionRequested, model.OrderStatusInProgress, nil},
		{model.OrderStatusCompleted, model.OrderStatusRefunded, nil},
		{model.OrderStatusPending, model.OrderStatusCompleted, domainErrors.ErrInvalidTransition},
		{model.OrderStatusCancelled, model.OrderStatusPending, domainErrors.ErrInvalidTransition},
		{model.OrderStatusRefunded, model.OrderStatusCompleted, domainErrors.ErrInvalidTransition},
		{model.OrderStatusPending, model.OrderStatus("shipped"), domainErrors.ErrUnknownStatus},
	}
	for _, tc := range cases {
		t.Run(string(tc.from)+"->"+string(tc.to), func(t *testing.T) {
			order := orderIn(tc.from)
			orders := testhelpers.NewOrderRepositoryStub(order)
			uc := newAdmin(orders, testhelpers.NewProfileRepositoryStub(), AdminOptions{})

			updated, err := uc.ChangeStatus(context.Background(), order.ID, tc.to)
			if tc.err != nil {
				require.ErrorIs(t, err, tc.err)
				stored, _ := orders.GetByID(context.Background(), order.ID)
				assert.Equal(t, tc.from, stored.Status)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.to, updated.Status)
			assert.Equal(t, adminNow, updated.UpdatedAt)
		})
	}
}

func TestChangeStatusWithoutGuard(t *testing.T) {
	order := orderIn(model.OrderStatusCancelled)
	orders := testhelpers.NewOrderRepositoryStub(order)
	uc := newAdmin(orders, testhelpers.NewProfileRepositoryStub(), AdminOptions{AllowAnyTransition: true})

	updated, err := uc.ChangeStatus(context.Background(), order.ID, model.OrderStatusPending)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPending, updated.Status)

	_, err = uc.ChangeStatus(context.Background(), order.ID, model.OrderStatus("bogus"))
	assert.ErrorIs(t, err, domainErrors.ErrUnknownStatus)
}

func TestChangeStatusMissingOrder(t *testing.T) {
	uc := newAdmin(testhelpers.NewOrderRepositoryStub(), testhelpers.NewProfileRepositoryStub(), AdminOptions{})
	_, err := uc.ChangeStatus(context.Background(), uuid.New(), model.OrderStatusAssigned)
	assert.ErrorIs(t, err, domainErrors.ErrNotFound)
}

type racingOrders struct {
	*testhelpers.OrderRepositoryStub
	concurrent model.OrderStatus
}

// GetByID returns the stored order, then lets another admin change it.
func (r *racingOrders) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	order, err := r.OrderRepositoryStub.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := r.OrderRepositoryStub.UpdateStatus(ctx, id, r.concurrent, nil, adminNow); err != nil {
		return nil, err
	}
	return order, nil
}

func TestChangeStatusDetectsConcurrentUpdate(t *testing.T) {
	order := orderIn(model.OrderStatusPending)
	orders := &racingOrders{OrderRepositoryStub: testhelpers.NewOrderRepositoryStub(order), concurrent: model.OrderStatusCancelled}
	uc := NewAdminUseCase(orders, testhelpers.NewProfileRepositoryStub(), AdminOptions{}, discardLogger())

	_, err := uc.ChangeStatus(context.Background(), order.ID, model.OrderStatusAssigned)
	require.ErrorIs(t, err, domainErrors.ErrStatusConflict)

	stored, _ := orders.OrderRepositoryStub.GetByID(context.Background(), order.ID)
	assert.Equal(t, model.OrderStatusCancelled, stored.Status)
}

func TestAssignWriter(t *testing.T) {
	writerID := uuid.New()

	t.Run("pending becomes assigned", func(t *testing.T) {
		order := orderIn(model.OrderStatusPending)
		orders := testhelpers.NewOrderRepositoryStub(order)
		orders.Writers[writerID] = true
		uc := newAdmin(orders, testhelpers.NewProfileRepositoryStub(), AdminOptions{})

		updated, err := uc.AssignWriter(context.Background(), order.ID, writerID)
		require.NoError(t, err)
		assert.Equal(t, model.OrderStatusAssigned, updated.Status)
		require.NotNil(t, updated.WriterID)
		assert.Equal(t, writerID, *updated.WriterID)
	})

	t.Run("work in progress keeps status", func(t *testing.T) {
		order := orderIn(model.OrderStatusInProgress)
		orders := testhelpers.NewOrderRepositoryStub(order)
		orders.Writers[writerID] = true
		uc := newAdmin(orders, testhelpers.NewProfileRepositoryStub(), AdminOptions{})

		updated, err := uc.AssignWriter(context.Background(), order.ID, writerID)
		require.NoError(t, err)
		assert.Equal(t, model.OrderStatusInProgress, updated.Status)
	})

	t.Run("terminal order rejected", func(t *testing.T) {
		order := orderIn(model.OrderStatusRefunded)
		orders := testhelpers.NewOrderRepositoryStub(order)
		orders.Writers[writerID] = true
		uc := newAdmin(orders, testhelpers.NewProfileRepositoryStub(), AdminOptions{})

		_, err := uc.AssignWriter(context.Background(), order.ID, writerID)
		assert.ErrorIs(t, err, domainErrors.ErrInvalidTransition)
	})

	t.Run("not a writer", func(t *testing.T) {
		order := orderIn(model.OrderStatusPending)
		orders := testhelpers.NewOrderRepositoryStub(order)
		uc := newAdmin(orders, testhelpers.NewProfileRepositoryStub(), AdminOptions{})

		_, err := uc.AssignWriter(context.Background(), order.ID, uuid.New())
		assert.ErrorIs(t, err, domainErrors.ErrWriterUnavailable)
	})
}

func TestDashboardListings(t *testing.T) {
	client := activeProfile("client@example.com")
	writer := activeProfile("writer@example.com")
	writer.IsWriter = true
	profiles := testhelpers.NewProfileRepositoryStub(client, writer)
	orders := testhelpers.NewOrderRepositoryStub(
		orderIn(model.OrderStatusPending),
		orderIn(model.OrderStatusPending),
		orderIn(model.OrderStatusCompleted),
	)
	uc := newAdmin(orders, profiles, AdminOptions{})
	ctx := context.Background()

	all := uc.Orders(ctx, "")
	assert.True(t, all.Available)
	assert.Len(t, all.Items, 3)

	pending := uc.Orders(ctx, model.OrderStatusPending)
	assert.Len(t, pending.Items, 2)

	bad := uc.Orders(ctx, model.OrderStatus("nope"))
	assert.False(t, bad.Available)
	assert.NotEmpty(t, bad.Reason)

	clients := uc.Clients(ctx)
	require.True(t, clients.Available)
	require.Len(t, clients.Items, 1)
	assert.Equal(t, client.ID, clients.Items[0].ID)

	writers := uc.Writers(ctx)
	require.Len(t, writers.Items, 1)
	assert.Equal(t, writer.ID, writers.Items[0].ID)

	stats := uc.Stats(ctx)
	require.True(t, stats.Available)
	assert.Equal(t, []model.StatusCount{
		{Status: model.OrderStatusPending, Count: 2},
		{Status: model.OrderStatusCompleted, Count: 1},
	}, stats.Items)
}

func TestDashboardDegradesOnStoreFailure(t *testing.T) {
	profiles := testhelpers.NewProfileRepositoryStub()
	profiles.Err = errors.New("connection refused")
	orders := testhelpers.NewOrderRepositoryStub()
	orders.Err = errors.New("connection refused")
	uc := newAdmin(orders, profiles, AdminOptions{})
	ctx := context.Background()

	for _, available := range []bool{
		uc.Orders(ctx, "").Available,
		uc.Clients(ctx).Available,
		uc.Writers(ctx).Available,
		uc.Stats(ctx).Available,
	} {
		assert.False(t, available)
	}
	listing := uc.Clients(ctx)
	assert.Equal(t, "clients are temporarily unavailable", listing.Reason)
	assert.Empty(t, listing.Items)
}

func TestDashboardEmptyIsAvailable(t *testing.T) {
	uc := newAdmin(testhelpers.NewOrderRepositoryStub(), testhelpers.NewProfileRepositoryStub(), AdminOptions{})
	orders := uc.Orders(context.Background(), "")
	assert.True(t, orders.Available)
	assert.NotNil(t, orders.Items)
	assert.Empty(t, orders.Items)
}
