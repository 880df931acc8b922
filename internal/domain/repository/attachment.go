package repository

import (
	"context"
	"io"

	"github.com/google/uuid"

	"github.com/polkiloo/paperdesk/internal/domain/model"
)

// AttachmentRepository stores references to uploaded order files.
type AttachmentRepository interface {
	Create(ctx context.Context, attachment *model.Attachment) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Attachment, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]model.Attachment, error)
}

// ObjectStore keeps attachment bytes addressed by storage path.
type ObjectStore interface {
	Put(ctx context.Context, path string, r io.Reader) (int64, error)
	Open(ctx context.Context, path string) (io.ReadCloser, error)
}
