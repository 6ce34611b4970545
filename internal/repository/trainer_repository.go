package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/trainer-service/internal/domain"
)

// TrainerRepository defines persistence access for trainer profiles (tenants).
type TrainerRepository interface {
	Create(ctx context.Context, trainer *domain.Trainer) error
	GetByID(ctx context.Context, id string) (*domain.Trainer, error)
	GetByPrincipal(ctx context.Context, principalID string) (*domain.Trainer, error)
}

type trainerRepository struct {
	pool *pgxpool.Pool
}

// NewTrainerRepository returns a Postgres-backed implementation.
func NewTrainerRepository(pool *pgxpool.Pool) TrainerRepository {
	return &trainerRepository{pool: pool}
}

// Create inserts the tenant row and binds the owning principal to it in one
// transaction, so a failure cannot leave an orphan trainer. A principal that
// already carries a tenant aborts the insert with pgx.ErrNoRows.
func (r *trainerRepository) Create(ctx context.Context, trainer *domain.Trainer) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const insert = `
        INSERT INTO trainers (principal_id, phone, specialty, bio)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at`

	if err := tx.QueryRow(ctx, insert,
		trainer.PrincipalID,
		trainer.Phone,
		trainer.Specialty,
		trainer.Bio,
	).Scan(&trainer.ID, &trainer.CreatedAt); err != nil {
		return err
	}

	const bind = `UPDATE principals SET tenant_id=$1, updated_at=NOW() WHERE id=$2 AND tenant_id IS NULL`
	cmd, err := tx.Exec(ctx, bind, trainer.ID, trainer.PrincipalID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return tx.Commit(ctx)
}

func (r *trainerRepository) GetByID(ctx context.Context, id string) (*domain.Trainer, error) {
	const query = `
        SELECT id, principal_id, phone, specialty, bio, created_at
        FROM trainers WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *trainerRepository) GetByPrincipal(ctx context.Context, principalID string) (*domain.Trainer, error) {
	const query = `
        SELECT id, principal_id, phone, specialty, bio, created_at
        FROM trainers WHERE principal_id=$1`
	return r.fetchSingle(ctx, query, principalID)
}

func (r *trainerRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Trainer, error) {
	var trainer domain.Trainer
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&trainer.ID,
		&trainer.PrincipalID,
		&trainer.Phone,
		&trainer.Specialty,
		&trainer.Bio,
		&trainer.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &trainer, nil
}
