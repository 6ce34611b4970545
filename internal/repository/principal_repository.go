package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/trainer-service/internal/domain"
	"github.com/spec-kit/trainer-service/internal/identity"
)

const uniqueViolation = "23505"

// PrincipalRepository defines persistence access for principals. Principals
// are deactivated, never deleted, so owned records keep their referential
// history.
type PrincipalRepository interface {
	Create(ctx context.Context, principal *domain.Principal) error
	GetByID(ctx context.Context, id string) (*domain.Principal, error)
	GetByExternalSubject(ctx context.Context, subject string) (*domain.Principal, error)
	List(ctx context.Context, limit, offset int) ([]domain.Principal, error)
	Deactivate(ctx context.Context, id string) error
}

type principalRepository struct {
	pool *pgxpool.Pool
}

// NewPrincipalRepository returns a Postgres-backed implementation.
func NewPrincipalRepository(pool *pgxpool.Pool) PrincipalRepository {
	return &principalRepository{pool: pool}
}

// Create inserts the principal. The unique index on external_subject_id
// arbitrates concurrent first-sight provisioning across processes; a
// violation is reported as identity.ErrSubjectExists so the caller can
// re-read the winning row.
func (r *principalRepository) Create(ctx context.Context, principal *domain.Principal) error {
	const query = `
        INSERT INTO principals (external_subject_id, email, name, role, tenant_id, active)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		principal.ExternalSubjectID,
		principal.Email,
		principal.Name,
		principal.Role,
		principal.TenantID,
		principal.Active,
	).Scan(&principal.ID, &principal.CreatedAt, &principal.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return identity.ErrSubjectExists
		}
		return err
	}
	return nil
}

func (r *principalRepository) GetByID(ctx context.Context, id string) (*domain.Principal, error) {
	const query = `
        SELECT id, external_subject_id, email, name, role, tenant_id, active, created_at, updated_at
        FROM principals WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *principalRepository) GetByExternalSubject(ctx context.Context, subject string) (*domain.Principal, error) {
	const query = `
        SELECT id, external_subject_id, email, name, role, tenant_id, active, created_at, updated_at
        FROM principals WHERE external_subject_id=$1`
	return r.fetchSingle(ctx, query, subject)
}

func (r *principalRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Principal, error) {
	var principal domain.Principal
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&principal.ID,
		&principal.ExternalSubjectID,
		&principal.Email,
		&principal.Name,
		&principal.Role,
		&principal.TenantID,
		&principal.Active,
		&principal.CreatedAt,
		&principal.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &principal, nil
}

func (r *principalRepository) List(ctx context.Context, limit, offset int) ([]domain.Principal, error) {
	if limit <= 0 {
		limit = 100
	}
	const query = `
        SELECT id, external_subject_id, email, name, role, tenant_id, active, created_at, updated_at
        FROM principals ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var principals []domain.Principal
	for rows.Next() {
		var principal domain.Principal
		if err := rows.Scan(
			&principal.ID,
			&principal.ExternalSubjectID,
			&principal.Email,
			&principal.Name,
			&principal.Role,
			&principal.TenantID,
			&principal.Active,
			&principal.CreatedAt,
			&principal.UpdatedAt,
		); err != nil {
			return nil, err
		}
		principals = append(principals, principal)
	}
	return principals, rows.Err()
}

// Deactivate flips the active flag off. There is no inverse operation here;
// reactivation is a distinct administrative concern.
func (r *principalRepository) Deactivate(ctx context.Context, id string) error {
	const query = `UPDATE principals SET active=FALSE, updated_at=NOW() WHERE id=$1`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
