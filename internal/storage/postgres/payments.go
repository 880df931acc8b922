package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	domainErrors "github.com/polkiloo/paperdesk/internal/domain/errors"
	"github.com/polkiloo/paperdesk/internal/domain/model"
)

const pendingColumns = `gateway_order_id, order_id, user_id, amount_cents, currency, draft, state, transaction_id,
                        capture_payload, created_at, updated_at`

func scanPending(row pgx.Row) (*model.PendingPayment, error) {
	var (
		p     model.PendingPayment
		cents int64
	)
	err := row.Scan(&p.GatewayOrderID, &p.OrderID, &p.UserID, &cents, &p.Currency, &p.Draft, &p.State,
		&p.TransactionID, &p.CapturePayload, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	p.Amount = fromCents(cents)
	return &p, nil
}

func (r *paymentRepository) CreatePending(ctx context.Context, p *model.PendingPayment) error {
	const query = `INSERT INTO pending_payments (gateway_order_id, order_id, user_id, amount_cents, currency, draft,
                       state, created_at, updated_at)
                   VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)`
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	if p.State == "" {
		p.State = model.PendingCreated
	}
	_, err := r.storage.pool.Exec(ctx, query, p.GatewayOrderID, p.OrderID, p.UserID, toCents(p.Amount), p.Currency,
		p.Draft, p.State, now)
	return mapError(err)
}

func (r *paymentRepository) GetPending(ctx context.Context, gatewayOrderID string) (*model.PendingPayment, error) {
	const query = `SELECT ` + pendingColumns + ` FROM pending_payments WHERE gateway_order_id=$1`
	return scanPending(r.storage.pool.QueryRow(ctx, query, gatewayOrderID))
}

func (r *paymentRepository) SetPendingState(ctx context.Context, gatewayOrderID string, state model.PendingState) error {
	const query = `UPDATE pending_payments SET state=$2, updated_at=$3 WHERE gateway_order_id=$1`
	tag, err := r.storage.pool.Exec(ctx, query, gatewayOrderID, state, time.Now().UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}

func (r *paymentRepository) MarkCaptured(ctx context.Context, gatewayOrderID, transactionID string, payload json.RawMessage) error {
	const query = `UPDATE pending_payments SET state=$2, transaction_id=$3, capture_payload=$4, updated_at=$5
                   WHERE gateway_order_id=$1`
	tag, err := r.storage.pool.Exec(ctx, query, gatewayOrderID, model.PendingCaptured, transactionID, payload, time.Now().UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}

func (r *paymentRepository) ListPending(ctx context.Context, state model.PendingState, before time.Time, limit int) ([]model.PendingPayment, error) {
	const query = `SELECT ` + pendingColumns + ` FROM pending_payments
                   WHERE state=$1 AND updated_at < $2
                   ORDER BY updated_at
                   LIMIT $3`
	rows, err := r.storage.pool.Query(ctx, query, state, before, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.PendingPayment
	for rows.Next() {
		p, err := scanPending(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *paymentRepository) RecordTransaction(ctx context.Context, tx *model.PaymentTransaction) (bool, error) {
	const query = `INSERT INTO payment_transactions (id, order_id, user_id, gateway_order_id, transaction_id, status,
                       amount_cents, currency, payload, created_at)
                   VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
                   ON CONFLICT (transaction_id) DO NOTHING`
	if tx.ID == uuid.Nil {
		tx.ID = uuid.New()
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now().UTC()
	}
	tag, err := r.storage.pool.Exec(ctx, query, tx.ID, tx.OrderID, tx.UserID, tx.GatewayOrderID, tx.TransactionID,
		tx.Status, toCents(tx.Amount), tx.Currency, tx.Payload, tx.CreatedAt)
	if err != nil {
		return false, mapError(err)
	}
	return tag.RowsAffected() == 1, nil
}
