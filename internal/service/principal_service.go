package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/trainer-service/internal/domain"
	"github.com/spec-kit/trainer-service/internal/events"
	"github.com/spec-kit/trainer-service/internal/identity"
	"github.com/spec-kit/trainer-service/internal/repository"
	apperrors "github.com/spec-kit/trainer-service/pkg/util/errorutil"
)

// PrincipalService covers principal administration: explicit provisioning,
// deactivation, and trainer onboarding. All of it is an admin surface.
type PrincipalService struct {
	principals repository.PrincipalRepository
	trainers   repository.TrainerRepository
	dispatcher events.Dispatcher
}

// PrincipalDependencies bundles repo requirements.
type PrincipalDependencies struct {
	PrincipalRepo repository.PrincipalRepository
	TrainerRepo   repository.TrainerRepository
	Dispatcher    events.Dispatcher
}

// PrincipalProvisionInput describes an explicit provisioning request.
type PrincipalProvisionInput struct {
	ExternalSubjectID string
	Email             string
	Name              string
	Role              domain.Role
	TenantID          *string
}

// TrainerCreateInput describes trainer onboarding.
type TrainerCreateInput struct {
	PrincipalID string
	Phone       string
	Specialty   string
	Bio         string
}

// NewPrincipalService builds the service.
func NewPrincipalService(deps PrincipalDependencies) *PrincipalService {
	return &PrincipalService{
		principals: deps.PrincipalRepo,
		trainers:   deps.TrainerRepo,
		dispatcher: deps.Dispatcher,
	}
}

// Me returns the caller's own principal record.
func (s *PrincipalService) Me(ctx context.Context, ac identity.AuthContext) (*domain.Principal, error) {
	principal, err := s.principals.GetByID(ctx, ac.PrincipalID())
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("principal", nil)
		}
		return nil, apperrors.MapError(err)
	}
	return principal, nil
}

// Provision creates a principal with an explicit role and tenant.
func (s *PrincipalService) Provision(ctx context.Context, ac identity.AuthContext, input PrincipalProvisionInput) (*domain.Principal, error) {
	if ac.Role() != domain.RoleAdmin {
		return nil, apperrors.NewForbidden("administrator required")
	}
	if input.ExternalSubjectID == "" {
		return nil, apperrors.NewValidationError("external_subject_id required", nil)
	}
	if !input.Role.Valid() {
		return nil, apperrors.NewValidationError("unknown role", nil)
	}

	principal := &domain.Principal{
		ExternalSubjectID: input.ExternalSubjectID,
		Email:             input.Email,
		Name:              input.Name,
		Role:              input.Role,
		TenantID:          input.TenantID,
		Active:            true,
	}
	if err := s.principals.Create(ctx, principal); err != nil {
		if errors.Is(err, identity.ErrSubjectExists) {
			return nil, apperrors.NewConflict("external subject already registered", nil)
		}
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, events.Event{
		Type:        events.EventPrincipalProvisioned,
		PrincipalID: principal.ID,
		Payload:     events.PrincipalLifecyclePayload{Role: principal.Role, TenantID: principal.TenantID},
	})
	return principal, nil
}

// Deactivate flips a principal inactive. Records owned by the principal keep
// their referential history; nothing is deleted.
func (s *PrincipalService) Deactivate(ctx context.Context, ac identity.AuthContext, principalID string) error {
	if ac.Role() != domain.RoleAdmin {
		return apperrors.NewForbidden("administrator required")
	}
	if err := s.principals.Deactivate(ctx, principalID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("principal", nil)
		}
		return apperrors.MapError(err)
	}

	s.publish(ctx, events.Event{
		Type:        events.EventPrincipalDeactivated,
		PrincipalID: principalID,
	})
	return nil
}

// List returns principals, newest first.
func (s *PrincipalService) List(ctx context.Context, ac identity.AuthContext, limit, offset int) ([]domain.Principal, error) {
	if ac.Role() != domain.RoleAdmin {
		return nil, apperrors.NewForbidden("administrator required")
	}
	principals, err := s.principals.List(ctx, limit, offset)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return principals, nil
}

// CreateTrainer onboards a trainer: creates the tenant row and binds the
// principal to it. The principal's tenant affiliation is set exactly once.
func (s *PrincipalService) CreateTrainer(ctx context.Context, ac identity.AuthContext, input TrainerCreateInput) (*domain.Trainer, error) {
	if ac.Role() != domain.RoleAdmin {
		return nil, apperrors.NewForbidden("administrator required")
	}

	principal, err := s.principals.GetByID(ctx, input.PrincipalID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("principal", nil)
		}
		return nil, apperrors.MapError(err)
	}
	if principal.Role != domain.RoleTrainer {
		return nil, apperrors.NewValidationError("principal is not a trainer", nil)
	}
	if principal.TenantID != nil {
		return nil, apperrors.NewConflict("principal already owns a tenant", nil)
	}

	trainer := &domain.Trainer{
		PrincipalID: input.PrincipalID,
		Phone:       input.Phone,
		Specialty:   input.Specialty,
		Bio:         input.Bio,
	}
	// The repository binds the principal inside the insert transaction; a
	// concurrent onboarding of the same principal loses on the bind.
	if err := s.trainers.Create(ctx, trainer); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewConflict("principal already owns a tenant", nil)
		}
		return nil, apperrors.MapError(err)
	}
	return trainer, nil
}

func (s *PrincipalService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	event.Timestamp = time.Now()
	_ = s.dispatcher.Publish(ctx, event)
}
