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

// TrainingSheetFilter captures listing parameters for workout plans.
type TrainingSheetFilter struct {
	StudentID     *string
	TemplatesOnly bool
	Active        *bool
	Limit         int
	Offset        int
}

// TrainingSheetRepository encapsulates training sheet persistence. Exercises
// are stored alongside the sheet and replaced wholesale on update.
type TrainingSheetRepository interface {
	Create(ctx context.Context, sheet *domain.TrainingSheet) error
	Update(ctx context.Context, scope tenancy.Scope, sheet *domain.TrainingSheet) error
	GetByID(ctx context.Context, scope tenancy.Scope, id string) (*domain.TrainingSheet, error)
	List(ctx context.Context, scope tenancy.Scope, filter TrainingSheetFilter) ([]domain.TrainingSheet, error)
}

type trainingSheetRepository struct {
	pool *pgxpool.Pool
}

// NewTrainingSheetRepository instantiates repository.
func NewTrainingSheetRepository(pool *pgxpool.Pool) TrainingSheetRepository {
	return &trainingSheetRepository{pool: pool}
}

const sheetColumns = `id, tenant_id, student_id, name, description, active, created_at, updated_at`

func (r *trainingSheetRepository) Create(ctx context.Context, sheet *domain.TrainingSheet) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const query = `
        INSERT INTO training_sheets (tenant_id, student_id, name, description, active)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, updated_at`

	if err := tx.QueryRow(ctx, query,
		sheet.TenantID,
		sheet.StudentID,
		sheet.Name,
		sheet.Description,
		sheet.Active,
	).Scan(&sheet.ID, &sheet.CreatedAt, &sheet.UpdatedAt); err != nil {
		return err
	}

	if err := insertExercises(ctx, tx, sheet); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *trainingSheetRepository) Update(ctx context.Context, scope tenancy.Scope, sheet *domain.TrainingSheet) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	args := []any{
		sheet.StudentID,
		sheet.Name,
		sheet.Description,
		sheet.Active,
		sheet.ID,
	}
	conds := []string{"id=$5"}
	conds, args = appendScope(conds, args, scope, "tenant_id", "student_id")

	query := fmt.Sprintf(`
        UPDATE training_sheets SET student_id=$1, name=$2, description=$3, active=$4, updated_at=NOW()
        WHERE %s`, strings.Join(conds, " AND "))

	cmd, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	if _, err := tx.Exec(ctx, `DELETE FROM exercises WHERE sheet_id=$1`, sheet.ID); err != nil {
		return err
	}
	if err := insertExercises(ctx, tx, sheet); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func insertExercises(ctx context.Context, tx pgx.Tx, sheet *domain.TrainingSheet) error {
	const query = `
        INSERT INTO exercises (sheet_id, position, name, description, duration_seconds, rest_seconds)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`

	for i := range sheet.Exercises {
		ex := &sheet.Exercises[i]
		ex.SheetID = sheet.ID
		if err := tx.QueryRow(ctx, query,
			sheet.ID,
			ex.Position,
			ex.Name,
			ex.Description,
			ex.DurationSeconds,
			ex.RestSeconds,
		).Scan(&ex.ID, &ex.CreatedAt); err != nil {
			return err
		}
	}
	return nil
}

func (r *trainingSheetRepository) GetByID(ctx context.Context, scope tenancy.Scope, id string) (*domain.TrainingSheet, error) {
	args := []any{id}
	conds := []string{"id=$1"}
	// Tenant predicate only; sibling access is reported by the enforcer.
	conds, args = appendScope(conds, args, tenancy.Scope{All: scope.All, TenantID: scope.TenantID}, "tenant_id", "")

	query := fmt.Sprintf(`SELECT %s FROM training_sheets WHERE %s`, sheetColumns, strings.Join(conds, " AND "))

	var sheet domain.TrainingSheet
	if err := r.pool.QueryRow(ctx, query, args...).Scan(
		&sheet.ID,
		&sheet.TenantID,
		&sheet.StudentID,
		&sheet.Name,
		&sheet.Description,
		&sheet.Active,
		&sheet.CreatedAt,
		&sheet.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := r.loadExercises(ctx, &sheet); err != nil {
		return nil, err
	}
	return &sheet, nil
}

func (r *trainingSheetRepository) loadExercises(ctx context.Context, sheet *domain.TrainingSheet) error {
	const query = `
        SELECT id, sheet_id, position, name, description, duration_seconds, rest_seconds, created_at
        FROM exercises WHERE sheet_id=$1 ORDER BY position ASC`

	rows, err := r.pool.Query(ctx, query, sheet.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var ex domain.Exercise
		if err := rows.Scan(
			&ex.ID,
			&ex.SheetID,
			&ex.Position,
			&ex.Name,
			&ex.Description,
			&ex.DurationSeconds,
			&ex.RestSeconds,
			&ex.CreatedAt,
		); err != nil {
			return err
		}
		sheet.Exercises = append(sheet.Exercises, ex)
	}
	return rows.Err()
}

func (r *trainingSheetRepository) List(ctx context.Context, scope tenancy.Scope, filter TrainingSheetFilter) ([]domain.TrainingSheet, error) {
	conds := []string{"TRUE"}
	args := []any{}
	conds, args = appendScope(conds, args, scope, "tenant_id", "student_id")

	if filter.TemplatesOnly {
		conds = append(conds, "student_id IS NULL")
	} else if filter.StudentID != nil {
		args = append(args, *filter.StudentID)
		conds = append(conds, fmt.Sprintf("student_id=$%d", len(args)))
	}
	if filter.Active != nil {
		args = append(args, *filter.Active)
		conds = append(conds, fmt.Sprintf("active=$%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)
	limitClause := fmt.Sprintf("LIMIT $%d", len(args))
	args = append(args, filter.Offset)
	offsetClause := fmt.Sprintf("OFFSET $%d", len(args))

	query := fmt.Sprintf(`SELECT %s FROM training_sheets WHERE %s ORDER BY created_at DESC %s %s`,
		sheetColumns, strings.Join(conds, " AND "), limitClause, offsetClause)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sheets []domain.TrainingSheet
	for rows.Next() {
		var sheet domain.TrainingSheet
		if err := rows.Scan(
			&sheet.ID,
			&sheet.TenantID,
			&sheet.StudentID,
			&sheet.Name,
			&sheet.Description,
			&sheet.Active,
			&sheet.CreatedAt,
			&sheet.UpdatedAt,
		); err != nil {
			return nil, err
		}
		sheets = append(sheets, sheet)
	}
	return sheets, rows.Err()
}
