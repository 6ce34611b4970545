package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/trainer-service/internal/domain"
	"github.com/spec-kit/trainer-service/internal/tenancy"
)

// PaymentFilter captures listing parameters for ledger entries.
type PaymentFilter struct {
	StudentID *string
	Kind      *domain.PaymentKind
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}

// PaymentRepository encapsulates payment persistence.
type PaymentRepository interface {
	Create(ctx context.Context, payment *domain.Payment) error
	List(ctx context.Context, scope tenancy.Scope, filter PaymentFilter) ([]domain.Payment, error)
}

type paymentRepository struct {
	pool *pgxpool.Pool
}

// NewPaymentRepository instantiates repository.
func NewPaymentRepository(pool *pgxpool.Pool) PaymentRepository {
	return &paymentRepository{pool: pool}
}

func (r *paymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	const query = `
        INSERT INTO payments (tenant_id, student_id, amount_cents, paid_on, kind, description)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`

	return r.pool.QueryRow(ctx, query,
		payment.TenantID,
		payment.StudentID,
		payment.AmountCents,
		payment.PaidOn,
		payment.Kind,
		payment.Description,
	).Scan(&payment.ID, &payment.CreatedAt)
}

func (r *paymentRepository) List(ctx context.Context, scope tenancy.Scope, filter PaymentFilter) ([]domain.Payment, error) {
	conds := []string{"TRUE"}
	args := []any{}
	conds, args = appendScope(conds, args, scope, "tenant_id", "student_id")

	if filter.StudentID != nil {
		args = append(args, *filter.StudentID)
		conds = append(conds, fmt.Sprintf("student_id=$%d", len(args)))
	}
	if filter.Kind != nil {
		args = append(args, *filter.Kind)
		conds = append(conds, fmt.Sprintf("kind=$%d", len(args)))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		conds = append(conds, fmt.Sprintf("paid_on >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		conds = append(conds, fmt.Sprintf("paid_on <= $%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)
	limitClause := fmt.Sprintf("LIMIT $%d", len(args))
	args = append(args, filter.Offset)
	offsetClause := fmt.Sprintf("OFFSET $%d", len(args))

	query := fmt.Sprintf(`
        SELECT id, tenant_id, student_id, amount_cents, paid_on, kind, description, created_at
        FROM payments WHERE %s ORDER BY paid_on DESC %s %s`,
		strings.Join(conds, " AND "), limitClause, offsetClause)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []domain.Payment
	for rows.Next() {
		var payment domain.Payment
		if err := rows.Scan(
			&payment.ID,
			&payment.TenantID,
			&payment.StudentID,
			&payment.AmountCents,
			&payment.PaidOn,
			&payment.Kind,
			&payment.Description,
			&payment.CreatedAt,
		); err != nil {
			return nil, err
		}
		payments = append(payments, payment)
	}
	return payments, rows.Err()
}
