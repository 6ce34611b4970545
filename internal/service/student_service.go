package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/trainer-service/internal/domain"
	"github.com/spec-kit/trainer-service/internal/identity"
	"github.com/spec-kit/trainer-service/internal/repository"
	"github.com/spec-kit/trainer-service/internal/tenancy"
	apperrors "github.com/spec-kit/trainer-service/pkg/util/errorutil"
)

// StudentService manages a trainer's roster. Every operation derives a scope
// from the caller's authorization context before touching storage.
type StudentService struct {
	students repository.StudentRepository
	enforcer *tenancy.Enforcer
}

// StudentDependencies bundles repo requirements.
type StudentDependencies struct {
	StudentRepo repository.StudentRepository
	Enforcer    *tenancy.Enforcer
}

// StudentCreateInput carries roster creation fields. TenantID is honored only
// for admin callers; everyone else writes into their own tenant.
type StudentCreateInput struct {
	TenantID        string
	Name            string
	Email           string
	Phone           string
	BirthDate       *time.Time
	Goal            string
	DefaultLocation string
}

// StudentUpdateInput carries mutable roster fields.
type StudentUpdateInput struct {
	Name            string
	Email           string
	Phone           string
	BirthDate       *time.Time
	Goal            string
	DefaultLocation string
}

// NewStudentService builds the service.
func NewStudentService(deps StudentDependencies) *StudentService {
	return &StudentService{students: deps.StudentRepo, enforcer: deps.Enforcer}
}

// Create adds a student to the roster.
func (s *StudentService) Create(ctx context.Context, ac identity.AuthContext, input StudentCreateInput) (*domain.Student, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, apperrors.NewValidationError("name required", nil)
	}

	tenantID, err := s.resolveTenant(ac, input.TenantID)
	if err != nil {
		return nil, err
	}
	student := &domain.Student{
		TenantID:        tenantID,
		Name:            input.Name,
		Email:           input.Email,
		Phone:           input.Phone,
		BirthDate:       input.BirthDate,
		Goal:            input.Goal,
		DefaultLocation: input.DefaultLocation,
		Active:          true,
	}
	if err := s.enforcer.AuthorizeWrite(ac, student); err != nil {
		return nil, err
	}
	if err := s.students.Create(ctx, student); err != nil {
		return nil, apperrors.MapError(err)
	}
	return student, nil
}

// Get fetches one student. Records outside the caller's tenant read as
// missing; a managed subject addressing a roster sibling is rejected.
func (s *StudentService) Get(ctx context.Context, ac identity.AuthContext, id string) (*domain.Student, error) {
	scope, err := s.enforcer.ScopeFor(ac)
	if err != nil {
		return nil, err
	}
	student, err := s.students.GetByID(ctx, scope, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("student", nil)
		}
		return nil, apperrors.MapError(err)
	}
	if err := s.enforcer.AuthorizeRead(ac, student); err != nil {
		return nil, err
	}
	return student, nil
}

// List returns the roster visible to the caller.
func (s *StudentService) List(ctx context.Context, ac identity.AuthContext, filter repository.StudentFilter) ([]domain.Student, error) {
	scope, err := s.enforcer.ScopeFor(ac)
	if err != nil {
		return nil, err
	}
	students, err := s.students.List(ctx, scope, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return students, nil
}

// Update rewrites a student's mutable fields.
func (s *StudentService) Update(ctx context.Context, ac identity.AuthContext, id string, input StudentUpdateInput) (*domain.Student, error) {
	student, err := s.Get(ctx, ac, id)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, apperrors.NewValidationError("name required", nil)
	}

	student.Name = input.Name
	student.Email = input.Email
	student.Phone = input.Phone
	student.BirthDate = input.BirthDate
	student.Goal = input.Goal
	student.DefaultLocation = input.DefaultLocation

	if err := s.enforcer.AuthorizeWrite(ac, student); err != nil {
		return nil, err
	}
	scope, err := s.enforcer.ScopeFor(ac)
	if err != nil {
		return nil, err
	}
	if err := s.students.Update(ctx, scope, student); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("student", nil)
		}
		return nil, apperrors.MapError(err)
	}
	return student, nil
}

// Deactivate marks a student inactive. History stays intact.
func (s *StudentService) Deactivate(ctx context.Context, ac identity.AuthContext, id string) error {
	student, err := s.Get(ctx, ac, id)
	if err != nil {
		return err
	}
	if err := s.enforcer.AuthorizeWrite(ac, student); err != nil {
		return err
	}
	scope, err := s.enforcer.ScopeFor(ac)
	if err != nil {
		return err
	}
	if err := s.students.Deactivate(ctx, scope, student.ID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("student", nil)
		}
		return apperrors.MapError(err)
	}
	return nil
}

// Stats aggregates roster numbers for the caller's tenant.
func (s *StudentService) Stats(ctx context.Context, ac identity.AuthContext) (*repository.StudentStats, error) {
	if ac.Role() == domain.RoleStudent {
		return nil, apperrors.NewForbidden("roster statistics are a trainer surface")
	}
	scope, err := s.enforcer.ScopeFor(ac)
	if err != nil {
		return nil, err
	}
	stats, err := s.students.Stats(ctx, scope)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return stats, nil
}

// resolveTenant picks the tenant a write lands in. Admins may address any
// tenant explicitly; trainers always write into their own.
func (s *StudentService) resolveTenant(ac identity.AuthContext, requested string) (string, error) {
	if ac.Role() == domain.RoleAdmin {
		if requested == "" {
			return "", apperrors.NewValidationError("tenant_id required", nil)
		}
		return requested, nil
	}
	tenantID := ac.TenantID()
	if tenantID == nil {
		return "", apperrors.NewForbidden("principal has no tenant assignment")
	}
	return *tenantID, nil
}
