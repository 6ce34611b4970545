package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/trainer-service/internal/domain"
	"github.com/spec-kit/trainer-service/internal/tenancy"
)

// StudentFilter captures listing parameters. Tenant confinement comes from
// the scope, never from the filter.
type StudentFilter struct {
	Active *bool
	Search *string
	Limit  int
	Offset int
}

// StudentStats aggregates roster numbers for a tenant.
type StudentStats struct {
	Total        int64
	Active       int64
	Inactive     int64
	NewThisMonth int64
}

// StudentRepository encapsulates student persistence.
type StudentRepository interface {
	Create(ctx context.Context, student *domain.Student) error
	Update(ctx context.Context, scope tenancy.Scope, student *domain.Student) error
	GetByID(ctx context.Context, scope tenancy.Scope, id string) (*domain.Student, error)
	GetByPrincipal(ctx context.Context, principalID string) (*domain.Student, error)
	List(ctx context.Context, scope tenancy.Scope, filter StudentFilter) ([]domain.Student, error)
	Stats(ctx context.Context, scope tenancy.Scope) (*StudentStats, error)
	Deactivate(ctx context.Context, scope tenancy.Scope, id string) error
}

type studentRepository struct {
	pool *pgxpool.Pool
}

// NewStudentRepository instantiates repository.
func NewStudentRepository(pool *pgxpool.Pool) StudentRepository {
	return &studentRepository{pool: pool}
}

const studentColumns = `id, tenant_id, principal_id, name, email, phone, birth_date, goal, default_location, active, created_at, updated_at`

func (r *studentRepository) Create(ctx context.Context, student *domain.Student) error {
	const query = `
        INSERT INTO students (tenant_id, principal_id, name, email, phone, birth_date, goal, default_location, active)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		student.TenantID,
		student.PrincipalID,
		student.Name,
		student.Email,
		student.Phone,
		student.BirthDate,
		student.Goal,
		student.DefaultLocation,
		student.Active,
	).Scan(&student.ID, &student.CreatedAt, &student.UpdatedAt)
}

func (r *studentRepository) Update(ctx context.Context, scope tenancy.Scope, student *domain.Student) error {
	args := []any{
		student.Name,
		student.Email,
		student.Phone,
		student.BirthDate,
		student.Goal,
		student.DefaultLocation,
		student.Active,
		student.ID,
	}
	conds := []string{"id=$8"}
	conds, args = appendScope(conds, args, scope, "tenant_id", "id")

	query := fmt.Sprintf(`
        UPDATE students SET name=$1, email=$2, phone=$3, birth_date=$4, goal=$5,
            default_location=$6, active=$7, updated_at=NOW()
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

func (r *studentRepository) GetByID(ctx context.Context, scope tenancy.Scope, id string) (*domain.Student, error) {
	args := []any{id}
	conds := []string{"id=$1"}
	// The owner predicate is left to the enforcer here so that a managed
	// subject addressing a sibling gets a CROSS_TENANT_WRITE, not a 404.
	conds, args = appendScope(conds, args, tenancy.Scope{All: scope.All, TenantID: scope.TenantID}, "tenant_id", "")

	query := fmt.Sprintf(`SELECT %s FROM students WHERE %s`, studentColumns, strings.Join(conds, " AND "))

	var student domain.Student
	if err := r.pool.QueryRow(ctx, query, args...).Scan(
		&student.ID,
		&student.TenantID,
		&student.PrincipalID,
		&student.Name,
		&student.Email,
		&student.Phone,
		&student.BirthDate,
		&student.Goal,
		&student.DefaultLocation,
		&student.Active,
		&student.CreatedAt,
		&student.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &student, nil
}

// GetByPrincipal resolves the student record linked to a principal. It runs
// during authorization-context construction, before any scope exists, and
// selects by the unique principal link only.
func (r *studentRepository) GetByPrincipal(ctx context.Context, principalID string) (*domain.Student, error) {
	query := fmt.Sprintf(`SELECT %s FROM students WHERE principal_id=$1`, studentColumns)

	var student domain.Student
	if err := r.pool.QueryRow(ctx, query, principalID).Scan(
		&student.ID,
		&student.TenantID,
		&student.PrincipalID,
		&student.Name,
		&student.Email,
		&student.Phone,
		&student.BirthDate,
		&student.Goal,
		&student.DefaultLocation,
		&student.Active,
		&student.CreatedAt,
		&student.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &student, nil
}

func (r *studentRepository) List(ctx context.Context, scope tenancy.Scope, filter StudentFilter) ([]domain.Student, error) {
	conds := []string{"TRUE"}
	args := []any{}
	conds, args = appendScope(conds, args, scope, "tenant_id", "id")

	if filter.Active != nil {
		args = append(args, *filter.Active)
		conds = append(conds, fmt.Sprintf("active=$%d", len(args)))
	}
	if filter.Search != nil && *filter.Search != "" {
		args = append(args, "%"+*filter.Search+"%")
		conds = append(conds, fmt.Sprintf("(name ILIKE $%d OR email ILIKE $%d)", len(args), len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)
	limitClause := fmt.Sprintf("LIMIT $%d", len(args))
	args = append(args, filter.Offset)
	offsetClause := fmt.Sprintf("OFFSET $%d", len(args))

	query := fmt.Sprintf(`SELECT %s FROM students WHERE %s ORDER BY created_at DESC %s %s`,
		studentColumns, strings.Join(conds, " AND "), limitClause, offsetClause)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var students []domain.Student
	for rows.Next() {
		var student domain.Student
		if err := rows.Scan(
			&student.ID,
			&student.TenantID,
			&student.PrincipalID,
			&student.Name,
			&student.Email,
			&student.Phone,
			&student.BirthDate,
			&student.Goal,
			&student.DefaultLocation,
			&student.Active,
			&student.CreatedAt,
			&student.UpdatedAt,
		); err != nil {
			return nil, err
		}
		students = append(students, student)
	}
	return students, rows.Err()
}

func (r *studentRepository) Stats(ctx context.Context, scope tenancy.Scope) (*StudentStats, error) {
	conds := []string{"TRUE"}
	args := []any{}
	conds, args = appendScope(conds, args, scope, "tenant_id", "id")

	query := fmt.Sprintf(`
        SELECT COUNT(*),
               COUNT(*) FILTER (WHERE active),
               COUNT(*) FILTER (WHERE NOT active),
               COUNT(*) FILTER (WHERE created_at >= date_trunc('month', NOW()))
        FROM students WHERE %s`, strings.Join(conds, " AND "))

	var stats StudentStats
	if err := r.pool.QueryRow(ctx, query, args...).Scan(
		&stats.Total,
		&stats.Active,
		&stats.Inactive,
		&stats.NewThisMonth,
	); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (r *studentRepository) Deactivate(ctx context.Context, scope tenancy.Scope, id string) error {
	args := []any{id}
	conds := []string{"id=$1"}
	conds, args = appendScope(conds, args, scope, "tenant_id", "id")

	query := fmt.Sprintf(`UPDATE students SET active=FALSE, updated_at=NOW() WHERE %s`, strings.Join(conds, " AND "))

	cmd, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
