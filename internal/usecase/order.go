package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/polkiloo/paperdesk/internal/checkout"
	domainErrors "github.com/polkiloo/paperdesk/internal/domain/errors"
	"github.com/polkiloo/paperdesk/internal/domain/model"
	"github.com/polkiloo/paperdesk/internal/domain/repository"
)

// OrderUseCase serves the client and writer dashboards.
type OrderUseCase struct {
	orders       repository.OrderRepository
	attachments  repository.AttachmentRepository
	objects      repository.ObjectStore
	capabilities *CapabilityService
	logger       *slog.Logger
}

// NewOrderUseCase constructs OrderUseCase.
func NewOrderUseCase(orders repository.OrderRepository, attachments repository.AttachmentRepository, objects repository.ObjectStore, capabilities *CapabilityService, logger *slog.Logger) *OrderUseCase {
	return &OrderUseCase{orders: orders, attachments: attachments, objects: objects, capabilities: capabilities, logger: logger}
}

// ListByUser returns the client's orders, newest first.
func (u *OrderUseCase) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Order, error) {
	return u.orders.ListByUser(ctx, userID)
}

// ListByWriter returns orders assigned to the writer.
func (u *OrderUseCase) ListByWriter(ctx context.Context, writerID uuid.UUID) ([]model.Order, error) {
	return u.orders.ListByWriter(ctx, writerID)
}

// Get returns an order with its attachments when viewer is a party to it.
func (u *OrderUseCase) Get(ctx context.Context, viewer, orderID uuid.UUID) (*model.Order, error) {
	order, err := u.authorized(ctx, viewer, orderID)
	if err != nil {
		return nil, err
	}
	attachments, err := u.attachments.ListByOrder(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("list attachments: %w", err)
	}
	order.Attachments = attachments
	return order, nil
}

// AddAttachment stores another file for the order under the usual path.
func (u *OrderUseCase) AddAttachment(ctx context.Context, viewer, orderID uuid.UUID, up checkout.Upload) (*model.Attachment, error) {
	order, err := u.authorized(ctx, viewer, orderID)
	if err != nil {
		return nil, err
	}
	attachment, err := checkout.StoreAttachment(ctx, u.objects, u.attachments, order, viewer, up)
	if err != nil {
		return nil, err
	}
	u.logger.Info("attachment added",
		slog.String("order_id", order.ID.String()),
		slog.String("attachment_id", attachment.ID.String()),
		slog.Int64("size", attachment.SizeBytes))
	return attachment, nil
}

// OpenAttachment returns the attachment metadata and its content. The
// caller closes the reader.
func (u *OrderUseCase) OpenAttachment(ctx context.Context, viewer, attachmentID uuid.UUID) (*model.Attachment, io.ReadCloser, error) {
	attachment, err := u.attachments.GetByID(ctx, attachmentID)
	if err != nil {
		return nil, nil, err
	}
	if _, err := u.authorized(ctx, viewer, attachment.OrderID); err != nil {
		return nil, nil, err
	}
	body, err := u.objects.Open(ctx, attachment.StoragePath)
	if err != nil {
		return nil, nil, err
	}
	return attachment, body, nil
}

// authorized loads the order if viewer owns it, is its writer or is an admin.
func (u *OrderUseCase) authorized(ctx context.Context, viewer, orderID uuid.UUID) (*model.Order, error) {
	order, err := u.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID == viewer || (order.WriterID != nil && *order.WriterID == viewer) {
		return order, nil
	}
	caps, err := u.capabilities.Capabilities(ctx, viewer)
	if err != nil {
		return nil, err
	}
	if !caps.Admin {
		return nil, domainErrors.ErrForbidden
	}
	return order, nil
}
