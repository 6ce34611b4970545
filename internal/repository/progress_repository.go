package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/trainer-service/internal/domain"
	"github.com/spec-kit/trainer-service/internal/tenancy"
)

// ProgressRepository encapsulates progress log persistence.
type ProgressRepository interface {
	Create(ctx context.Context, log *domain.ProgressLog) error
	ListByStudent(ctx context.Context, scope tenancy.Scope, studentID string, limit, offset int) ([]domain.ProgressLog, error)
}

type progressRepository struct {
	pool *pgxpool.Pool
}

// NewProgressRepository instantiates repository.
func NewProgressRepository(pool *pgxpool.Pool) ProgressRepository {
	return &progressRepository{pool: pool}
}

func (r *progressRepository) Create(ctx context.Context, log *domain.ProgressLog) error {
	var measurements []byte
	if log.Measurements != nil {
		encoded, err := json.Marshal(log.Measurements)
		if err != nil {
			return err
		}
		measurements = encoded
	}

	const query = `
        INSERT INTO progress_logs (tenant_id, student_id, recorded_on, weight_kg, measurements, notes)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`

	return r.pool.QueryRow(ctx, query,
		log.TenantID,
		log.StudentID,
		log.RecordedOn,
		log.WeightKg,
		measurements,
		log.Notes,
	).Scan(&log.ID, &log.CreatedAt)
}

func (r *progressRepository) ListByStudent(ctx context.Context, scope tenancy.Scope, studentID string, limit, offset int) ([]domain.ProgressLog, error) {
	args := []any{studentID}
	conds := []string{"student_id=$1"}
	conds, args = appendScope(conds, args, scope, "tenant_id", "student_id")

	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)
	limitClause := fmt.Sprintf("LIMIT $%d", len(args))
	args = append(args, offset)
	offsetClause := fmt.Sprintf("OFFSET $%d", len(args))

	query := fmt.Sprintf(`
        SELECT id, tenant_id, student_id, recorded_on, weight_kg, measurements, notes, created_at
        FROM progress_logs WHERE %s ORDER BY recorded_on DESC %s %s`,
		strings.Join(conds, " AND "), limitClause, offsetClause)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []domain.ProgressLog
	for rows.Next() {
		var (
			log          domain.ProgressLog
			measurements []byte
		)
		if err := rows.Scan(
			&log.ID,
			&log.TenantID,
			&log.StudentID,
			&log.RecordedOn,
			&log.WeightKg,
			&measurements,
			&log.Notes,
			&log.CreatedAt,
		); err != nil {
			return nil, err
		}
		if len(measurements) > 0 {
			if err := json.Unmarshal(measurements, &log.Measurements); err != nil {
				return nil, err
			}
		}
		logs = append(logs, log)
	}
	return logs, rows.Err()
}
