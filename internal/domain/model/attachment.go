package model

import (
	"time"

	"github.com/google/uuid"
)

// Attachment is a file uploaded for an order by its client or writer.
type Attachment struct {
	ID          uuid.UUID
	OrderID     uuid.UUID
	OwnerID     uuid.UUID
	FileName    string
	StoragePath string
	ContentType string
	SizeBytes   int64
	CreatedAt   time.Time
}
