package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	domainErrors "github.com/polkiloo/paperdesk/internal/domain/errors"
	"github.com/polkiloo/paperdesk/internal/domain/model"
)

const profileColumns = `id, email, password_hash, first_name, last_name, is_active, is_writer, is_admin,
                        rating, completed_orders, created_at, updated_at`

func scanProfile(row pgx.Row) (*model.Profile, error) {
	var p model.Profile
	err := row.Scan(&p.ID, &p.Email, &p.PasswordHash, &p.FirstName, &p.LastName, &p.IsActive, &p.IsWriter,
		&p.IsAdmin, &p.Rating, &p.CompletedOrders, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return &p, nil
}

func (r *profileRepository) Create(ctx context.Context, p model.Profile) (*model.Profile, error) {
	const query = `INSERT INTO profiles (id, email, password_hash, first_name, last_name, is_active)
                   VALUES ($1, $2, $3, $4, $5, TRUE)
                   RETURNING ` + profileColumns
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	email := strings.ToLower(strings.TrimSpace(p.Email))
	return scanProfile(r.storage.pool.QueryRow(ctx, query, p.ID, email, p.PasswordHash, p.FirstName, p.LastName))
}

func (r *profileRepository) GetByEmail(ctx context.Context, email string) (*model.Profile, error) {
	const query = `SELECT ` + profileColumns + ` FROM profiles WHERE email=$1`
	return scanProfile(r.storage.pool.QueryRow(ctx, query, strings.ToLower(strings.TrimSpace(email))))
}

func (r *profileRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Profile, error) {
	const query = `SELECT ` + profileColumns + ` FROM profiles WHERE id=$1`
	return scanProfile(r.storage.pool.QueryRow(ctx, query, id))
}

func (r *profileRepository) UpdateName(ctx context.Context, id uuid.UUID, firstName, lastName string) (*model.Profile, error) {
	const query = `UPDATE profiles SET first_name=$2, last_name=$3, updated_at=$4 WHERE id=$1
                   RETURNING ` + profileColumns
	return scanProfile(r.storage.pool.QueryRow(ctx, query, id, firstName, lastName, time.Now().UTC()))
}

func (r *profileRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	const query = `UPDATE profiles SET password_hash=$2, updated_at=$3 WHERE id=$1`
	tag, err := r.storage.pool.Exec(ctx, query, id, passwordHash, time.Now().UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}

func (r *profileRepository) SetRole(ctx context.Context, id uuid.UUID, role model.Role, enabled bool) error {
	var column string
	switch role {
	case model.RoleAdmin:
		column = "is_admin"
	case model.RoleWriter:
		column = "is_writer"
	default:
		return fmt.Errorf("unknown role %q", role)
	}

	query := `UPDATE profiles SET ` + column + `=$2, updated_at=$3 WHERE id=$1`
	tag, err := r.storage.pool.Exec(ctx, query, id, enabled, time.Now().UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}

func (r *profileRepository) ListClients(ctx context.Context) ([]model.Profile, error) {
	const query = `SELECT ` + profileColumns + ` FROM profiles
                   WHERE NOT is_writer AND NOT is_admin ORDER BY created_at DESC`
	return r.list(ctx, query)
}

func (r *profileRepository) ListWriters(ctx context.Context) ([]model.Profile, error) {
	const query = `SELECT ` + profileColumns + ` FROM profiles
                   WHERE is_writer ORDER BY rating DESC, completed_orders DESC`
	return r.list(ctx, query)
}

func (r *profileRepository) list(ctx context.Context, query string) ([]model.Profile, error) {
	rows, err := r.storage.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
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

func (r *passwordResetRepository) Create(ctx context.Context, reset model.PasswordReset) error {
	const query = `INSERT INTO password_resets (token_hash, profile_id, expires_at) VALUES ($1, $2, $3)`
	_, err := r.storage.pool.Exec(ctx, query, reset.TokenHash, reset.ProfileID, reset.ExpiresAt)
	return mapError(err)
}

func (r *passwordResetRepository) Consume(ctx context.Context, tokenHash string, now time.Time) (*model.PasswordReset, error) {
	const query = `UPDATE password_resets SET used_at=$2
                   WHERE token_hash=$1 AND used_at IS NULL AND expires_at > $2
                   RETURNING token_hash, profile_id, expires_at, used_at`
	var reset model.PasswordReset
	err := r.storage.pool.QueryRow(ctx, query, tokenHash, now).Scan(&reset.TokenHash, &reset.ProfileID, &reset.ExpiresAt, &reset.UsedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return &reset, nil
}
