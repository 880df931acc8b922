package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/polkiloo/paperdesk/internal/domain/model"
)

const attachmentColumns = `id, order_id, owner_id, file_name, storage_path, content_type, size_bytes, created_at`

func scanAttachment(row pgx.Row) (*model.Attachment, error) {
	var a model.Attachment
	if err := row.Scan(&a.ID, &a.OrderID, &a.OwnerID, &a.FileName, &a.StoragePath, &a.ContentType, &a.SizeBytes, &a.CreatedAt); err != nil {
		return nil, mapError(err)
	}
	return &a, nil
}

func (r *attachmentRepository) Create(ctx context.Context, a *model.Attachment) error {
	const query = `INSERT INTO attachments (id, order_id, owner_id, file_name, storage_path, content_type, size_bytes, created_at)
                   VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	_, err := r.storage.pool.Exec(ctx, query, a.ID, a.OrderID, a.OwnerID, a.FileName, a.StoragePath, a.ContentType, a.SizeBytes, a.CreatedAt)
	return mapError(err)
}

func (r *attachmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Attachment, error) {
	const query = `SELECT ` + attachmentColumns + ` FROM attachments WHERE id=$1`
	return scanAttachment(r.storage.pool.QueryRow(ctx, query, id))
}

func (r *attachmentRepository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]model.Attachment, error) {
	const query = `SELECT ` + attachmentColumns + ` FROM attachments WHERE order_id=$1 ORDER BY created_at`
	rows, err := r.storage.pool.Query(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Attachment
	for rows.Next() {
		a, err := scanAttachment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
