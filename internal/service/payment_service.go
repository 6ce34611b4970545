package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/trainer-service/internal/domain"
	"github.com/spec-kit/trainer-service/internal/identity"
	"github.com/spec-kit/trainer-service/internal/repository"
	"github.com/spec-kit/trainer-service/internal/tenancy"
	apperrors "github.com/spec-kit/trainer-service/pkg/util/errorutil"
)

// PaymentService manages a trainer's ledger. Managed subjects never reach
// this surface.
type PaymentService struct {
	payments repository.PaymentRepository
	students repository.StudentRepository
	enforcer *tenancy.Enforcer
}

// PaymentDependencies bundles repo requirements.
type PaymentDependencies struct {
	PaymentRepo repository.PaymentRepository
	StudentRepo repository.StudentRepository
	Enforcer    *tenancy.Enforcer
}

// PaymentCreateInput carries ledger entry fields.
type PaymentCreateInput struct {
	StudentID   *string
	AmountCents int64
	PaidOn      time.Time
	Kind        domain.PaymentKind
	Description string
}

// NewPaymentService builds the service.
func NewPaymentService(deps PaymentDependencies) *PaymentService {
	return &PaymentService{
		payments: deps.PaymentRepo,
		students: deps.StudentRepo,
		enforcer: deps.Enforcer,
	}
}

// Create records a ledger entry.
func (s *PaymentService) Create(ctx context.Context, ac identity.AuthContext, input PaymentCreateInput) (*domain.Payment, error) {
	if ac.Role() == domain.RoleStudent {
		return nil, apperrors.NewForbidden("payments are a trainer surface")
	}
	if input.AmountCents <= 0 {
		return nil, apperrors.NewValidationError("amount_cents must be positive", nil)
	}
	if input.Kind != domain.PaymentKindReceived && input.Kind != domain.PaymentKindPending {
		return nil, apperrors.NewValidationError("unknown payment kind", nil)
	}
	if input.PaidOn.IsZero() {
		input.PaidOn = time.Now()
	}

	scope, err := s.enforcer.ScopeFor(ac)
	if err != nil {
		return nil, err
	}

	tenantID := ""
	if input.StudentID != nil {
		student, err := s.students.GetByID(ctx, scope, *input.StudentID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewNotFound("student", nil)
			}
			return nil, apperrors.MapError(err)
		}
		tenantID = student.TenantID
	} else {
		owner := ac.TenantID()
		if owner == nil {
			return nil, apperrors.NewForbidden("principal has no tenant assignment")
		}
		tenantID = *owner
	}

	payment := &domain.Payment{
		TenantID:    tenantID,
		StudentID:   input.StudentID,
		AmountCents: input.AmountCents,
		PaidOn:      input.PaidOn,
		Kind:        input.Kind,
		Description: input.Description,
	}
	if err := s.enforcer.AuthorizeWrite(ac, payment); err != nil {
		return nil, err
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		return nil, apperrors.MapError(err)
	}
	return payment, nil
}

// List returns ledger entries for the caller's tenant.
func (s *PaymentService) List(ctx context.Context, ac identity.AuthContext, filter repository.PaymentFilter) ([]domain.Payment, error) {
	if ac.Role() == domain.RoleStudent {
		return nil, apperrors.NewForbidden("payments are a trainer surface")
	}
	scope, err := s.enforcer.ScopeFor(ac)
	if err != nil {
		return nil, err
	}
	payments, err := s.payments.List(ctx, scope, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return payments, nil
}
