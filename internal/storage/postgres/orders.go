package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	domainErrors "github.com/polkiloo/paperdesk/internal/domain/errors"
	"github.com/polkiloo/paperdesk/internal/domain/model"
	"github.com/polkiloo/paperdesk/internal/domain/repository"
)

const orderColumns = `id, user_id, paper_type, academic_level, subject, topic, instructions, word_count,
                      source_count, urgency, urgent, price_cents, currency, deadline, status, writer_id,
                      created_at, updated_at`

func scanOrder(row pgx.Row) (*model.Order, error) {
	var (
		o     model.Order
		cents int64
	)
	err := row.Scan(&o.ID, &o.UserID, &o.PaperType, &o.AcademicLevel, &o.Subject, &o.Topic, &o.Instructions,
		&o.WordCount, &o.SourceCount, &o.Urgency, &o.Urgent, &cents, &o.Currency, &o.Deadline, &o.Status,
		&o.WriterID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	o.Price = fromCents(cents)
	return &o, nil
}

func (r *orderRepository) Create(ctx context.Context, o *model.Order) (bool, error) {
	const query = `INSERT INTO orders (id, user_id, paper_type, academic_level, subject, topic, instructions,
                       word_count, source_count, urgency, urgent, price_cents, currency, deadline, status,
                       created_at, updated_at)
                   VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $16)
                   ON CONFLICT (id) DO NOTHING`
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}
	o.UpdatedAt = o.CreatedAt
	if o.Currency == "" {
		o.Currency = model.Currency
	}

	tag, err := r.storage.pool.Exec(ctx, query, o.ID, o.UserID, o.PaperType, o.AcademicLevel, o.Subject, o.Topic,
		o.Instructions, o.WordCount, o.SourceCount, o.Urgency, o.Urgent, toCents(o.Price), o.Currency, o.Deadline,
		o.Status, o.CreatedAt)
	if err != nil {
		return false, mapError(err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	const query = `SELECT ` + orderColumns + ` FROM orders WHERE id=$1`
	return scanOrder(r.storage.pool.QueryRow(ctx, query, id))
}

func (r *orderRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Order, error) {
	const query = `SELECT ` + orderColumns + ` FROM orders WHERE user_id=$1 ORDER BY created_at DESC`
	return r.list(ctx, query, userID)
}

func (r *orderRepository) ListByWriter(ctx context.Context, writerID uuid.UUID) ([]model.Order, error) {
	const query = `SELECT ` + orderColumns + ` FROM orders WHERE writer_id=$1 ORDER BY deadline`
	return r.list(ctx, query, writerID)
}

func (r *orderRepository) List(ctx context.Context, filter repository.OrderFilter) ([]model.Order, error) {
	const query = `SELECT ` + orderColumns + ` FROM orders
                   WHERE ($1 = '' OR status = $1)
                   ORDER BY created_at DESC
                   LIMIT NULLIF($2, 0)`
	return r.list(ctx, query, string(filter.Status), filter.Limit)
}

func (r *orderRepository) CountByStatus(ctx context.Context) ([]model.StatusCount, error) {
	const query = `SELECT status, COUNT(*) FROM orders GROUP BY status ORDER BY status`
	rows, err := r.storage.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.StatusCount
	for rows.Next() {
		var c model.StatusCount
		if err := rows.Scan(&c.Status, &c.Count); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus, expected *model.OrderStatus, at time.Time) (*model.Order, error) {
	const query = `UPDATE orders SET status=$2, updated_at=$3
                   WHERE id=$1 AND ($4::text IS NULL OR status=$4)
                   RETURNING ` + orderColumns
	order, err := scanOrder(r.storage.pool.QueryRow(ctx, query, id, status, at, expectedArg(expected)))
	if errors.Is(err, domainErrors.ErrNotFound) && expected != nil {
		return nil, r.conflictOrMissing(ctx, id)
	}
	return order, err
}

// AssignWriter locks the writer's profile so a concurrent demotion cannot
// race the assignment.
func (r *orderRepository) AssignWriter(ctx context.Context, id, writerID uuid.UUID, status model.OrderStatus, expected *model.OrderStatus, at time.Time) (*model.Order, error) {
	const eligibility = `SELECT is_writer AND is_active FROM profiles WHERE id=$1 FOR SHARE`
	const update = `UPDATE orders SET writer_id=$2, status=$3, updated_at=$4
                    WHERE id=$1 AND ($5::text IS NULL OR status=$5)
                    RETURNING ` + orderColumns

	var order *model.Order
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		var eligible bool
		if err := tx.QueryRow(ctx, eligibility, writerID).Scan(&eligible); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domainErrors.ErrWriterUnavailable
			}
			return err
		}
		if !eligible {
			return domainErrors.ErrWriterUnavailable
		}

		var err error
		order, err = scanOrder(tx.QueryRow(ctx, update, id, writerID, status, at, expectedArg(expected)))
		return err
	})
	if errors.Is(err, domainErrors.ErrNotFound) && expected != nil {
		return nil, r.conflictOrMissing(ctx, id)
	}
	if err != nil {
		return nil, err
	}
	return order, nil
}

// conflictOrMissing tells a vanished row apart from a lost compare-and-set.
func (r *orderRepository) conflictOrMissing(ctx context.Context, id uuid.UUID) error {
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	return domainErrors.ErrStatusConflict
}

func expectedArg(expected *model.OrderStatus) *string {
	if expected == nil {
		return nil
	}
	s := string(*expected)
	return &s
}

func (r *orderRepository) list(ctx context.Context, query string, args ...any) ([]model.Order, error) {
	rows, err := r.storage.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
