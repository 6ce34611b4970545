package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/trainer-service/internal/domain"
	"github.com/spec-kit/trainer-service/internal/tenancy"
)

// ScheduleFilter captures listing parameters for sessions.
type ScheduleFilter struct {
	StudentID *string
	From      *time.Time
	To        *time.Time
	Statuses  []domain.ScheduleStatus
	Limit     int
	Offset    int
}

// ScheduleRepository encapsulates schedule persistence.
type ScheduleRepository interface {
	Create(ctx context.Context, schedule *domain.Schedule) error
	Update(ctx context.Context, scope tenancy.Scope, schedule *domain.Schedule) error
	GetByID(ctx context.Context, scope tenancy.Scope, id string) (*domain.Schedule, error)
	List(ctx context.Context, scope tenancy.Scope, filter ScheduleFilter) ([]domain.Schedule, error)
}

type scheduleRepository struct {
	pool *pgxpool.Pool
}

// NewScheduleRepository instantiates repository.
func NewScheduleRepository(pool *pgxpool.Pool) ScheduleRepository {
	return &scheduleRepository{pool: pool}
}

const scheduleColumns = `id, tenant_id, student_id, starts_at, duration_minutes, location, notes, status, created_at, updated_at`

func (r *scheduleRepository) Create(ctx context.Context, schedule *domain.Schedule) error {
	const query = `
        INSERT INTO schedules (tenant_id, student_id, starts_at, duration_minutes, location, notes, status)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		schedule.TenantID,
		schedule.StudentID,
		schedule.StartsAt,
		schedule.DurationMinutes,
		schedule.Location,
		schedule.Notes,
		schedule.Status,
	).Scan(&schedule.ID, &schedule.CreatedAt, &schedule.UpdatedAt)
}

func (r *scheduleRepository) Update(ctx context.Context, scope tenancy.Scope, schedule *domain.Schedule) error {
	args := []any{
		schedule.StartsAt,
		schedule.DurationMinutes,
		schedule.Location,
		schedule.Notes,
		schedule.Status,
		schedule.ID,
	}
	conds := []string{"id=$6"}
	conds, args = appendScope(conds, args, scope, "tenant_id", "student_id")

	query := fmt.Sprintf(`
        UPDATE schedules SET starts_at=$1, duration_minutes=$2, location=$3, notes=$4, status=$5, updated_at=NOW()
        WHERE %s`, strings.Join(conds, " AND "))

	cmd, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *scheduleRepository) GetByID(ctx context.Context, scope tenancy.Scope, id string) (*domain.Schedule, error) {
	args := []any{id}
	conds := []string{"id=$1"}
	// Tenant predicate only; sibling access is reported by the enforcer.
	conds, args = appendScope(conds, args, tenancy.Scope{All: scope.All, TenantID: scope.TenantID}, "tenant_id", "")

	query := fmt.Sprintf(`SELECT %s FROM schedules WHERE %s`, scheduleColumns, strings.Join(conds, " AND "))

	var schedule domain.Schedule
	if err := r.pool.QueryRow(ctx, query, args...).Scan(
		&schedule.ID,
		&schedule.TenantID,
		&schedule.StudentID,
		&schedule.StartsAt,
		&schedule.DurationMinutes,
		&schedule.Location,
		&schedule.Notes,
		&schedule.Status,
		&schedule.CreatedAt,
		&schedule.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &schedule, nil
}

func (r *scheduleRepository) List(ctx context.Context, scope tenancy.Scope, filter ScheduleFilter) ([]domain.Schedule, error) {
	conds := []string{"TRUE"}
	args := []any{}
	conds, args = appendScope(conds, args, scope, "tenant_id", "student_id")

	if filter.StudentID != nil {
		args = append(args, *filter.StudentID)
		conds = append(conds, fmt.Sprintf("student_id=$%d", len(args)))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		conds = append(conds, fmt.Sprintf("starts_at >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		conds = append(conds, fmt.Sprintf("starts_at < $%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, 0, len(filter.Statuses))
		for _, status := range filter.Statuses {
			statuses = append(statuses, string(status))
		}
		args = append(args, statuses)
		conds = append(conds, fmt.Sprintf("status = ANY($%d)", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)
	limitClause := fmt.Sprintf("LIMIT $%d", len(args))
	args = append(args, filter.Offset)
	offsetClause := fmt.Sprintf("OFFSET $%d", len(args))

	query := fmt.Sprintf(`SELECT %s FROM schedules WHERE %s ORDER BY starts_at ASC %s %s`,
		scheduleColumns, strings.Join(conds, " AND "), limitClause, offsetClause)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var schedules []domain.Schedule
	for rows.Next() {
		var schedule domain.Schedule
		if err := rows.Scan(
			&schedule.ID,
			&schedule.TenantID,
			&schedule.StudentID,
			&schedule.StartsAt,
			&schedule.DurationMinutes,
			&schedule.Location,
			&schedule.Notes,
			&schedule.Status,
			&schedule.CreatedAt,
			&schedule.UpdatedAt,
		); err != nil {
			return nil, err
		}
		schedules = append(schedules, schedule)
	}
	return schedules, rows.Err()
}
