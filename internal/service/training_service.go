package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/trainer-service/internal/domain"
	"github.com/spec-kit/trainer-service/internal/identity"
	"github.com/spec-kit/trainer-service/internal/repository"
	"github.com/spec-kit/trainer-service/internal/tenancy"
	apperrors "github.com/spec-kit/trainer-service/pkg/util/errorutil"
)

// TrainingService manages workout plans and their exercises.
type TrainingService struct {
	sheets   repository.TrainingSheetRepository
	students repository.StudentRepository
	enforcer *tenancy.Enforcer
}

// TrainingDependencies bundles repo requirements.
type TrainingDependencies struct {
	SheetRepo   repository.TrainingSheetRepository
	StudentRepo repository.StudentRepository
	Enforcer    *tenancy.Enforcer
}

// ExerciseInput is one ordered entry in a sheet payload.
type ExerciseInput struct {
	Name            string
	Description     string
	DurationSeconds int
	RestSeconds     int
}

// TrainingSheetInput carries sheet fields. A nil StudentID creates a
// template owned by the tenant.
type TrainingSheetInput struct {
	StudentID   *string
	Name        string
	Description string
	Active      bool
	Exercises   []ExerciseInput
}

// NewTrainingService builds the service.
func NewTrainingService(deps TrainingDependencies) *TrainingService {
	return &TrainingService{
		sheets:   deps.SheetRepo,
		students: deps.StudentRepo,
		enforcer: deps.Enforcer,
	}
}

// Create builds a workout plan. When a student is named, it must resolve
// inside the caller's scope.
func (s *TrainingService) Create(ctx context.Context, ac identity.AuthContext, input TrainingSheetInput) (*domain.TrainingSheet, error) {
	if ac.Role() == domain.RoleStudent {
		return nil, apperrors.NewForbidden("workout plans are a trainer surface")
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, apperrors.NewValidationError("name required", nil)
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

	sheet := &domain.TrainingSheet{
		TenantID:    tenantID,
		StudentID:   input.StudentID,
		Name:        input.Name,
		Description: input.Description,
		Active:      input.Active,
		Exercises:   buildExercises(input.Exercises),
	}
	if err := s.enforcer.AuthorizeWrite(ac, sheet); err != nil {
		return nil, err
	}
	if err := s.sheets.Create(ctx, sheet); err != nil {
		return nil, apperrors.MapError(err)
	}
	return sheet, nil
}

// Get fetches one sheet with its exercises.
func (s *TrainingService) Get(ctx context.Context, ac identity.AuthContext, id string) (*domain.TrainingSheet, error) {
	scope, err := s.enforcer.ScopeFor(ac)
	if err != nil {
		return nil, err
	}
	sheet, err := s.sheets.GetByID(ctx, scope, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("training sheet", nil)
		}
		return nil, apperrors.MapError(err)
	}
	if err := s.enforcer.AuthorizeRead(ac, sheet); err != nil {
		return nil, err
	}
	return sheet, nil
}

// List returns the sheets visible to the caller.
func (s *TrainingService) List(ctx context.Context, ac identity.AuthContext, filter repository.TrainingSheetFilter) ([]domain.TrainingSheet, error) {
	scope, err := s.enforcer.ScopeFor(ac)
	if err != nil {
		return nil, err
	}
	sheets, err := s.sheets.List(ctx, scope, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return sheets, nil
}

// Update rewrites a sheet and replaces its exercises wholesale.
func (s *TrainingService) Update(ctx context.Context, ac identity.AuthContext, id string, input TrainingSheetInput) (*domain.TrainingSheet, error) {
	if ac.Role() == domain.RoleStudent {
		return nil, apperrors.NewForbidden("workout plans are a trainer surface")
	}
	sheet, err := s.Get(ctx, ac, id)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, apperrors.NewValidationError("name required", nil)
	}

	scope, err := s.enforcer.ScopeFor(ac)
	if err != nil {
		return nil, err
	}
	// A reassigned student reference must resolve inside the caller's scope,
	// same as on create; a foreign or unknown id reads as missing.
	if input.StudentID != nil {
		if _, err := s.students.GetByID(ctx, scope, *input.StudentID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewNotFound("student", nil)
			}
			return nil, apperrors.MapError(err)
		}
	}

	sheet.StudentID = input.StudentID
	sheet.Name = input.Name
	sheet.Description = input.Description
	sheet.Active = input.Active
	sheet.Exercises = buildExercises(input.Exercises)

	if err := s.enforcer.AuthorizeWrite(ac, sheet); err != nil {
		return nil, err
	}
	if err := s.sheets.Update(ctx, scope, sheet); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("training sheet", nil)
		}
		return nil, apperrors.MapError(err)
	}
	return sheet, nil
}

func buildExercises(inputs []ExerciseInput) []domain.Exercise {
	exercises := make([]domain.Exercise, 0, len(inputs))
	for i, in := range inputs {
		exercises = append(exercises, domain.Exercise{
			Position:        i + 1,
			Name:            in.Name,
			Description:     in.Description,
			DurationSeconds: in.DurationSeconds,
			RestSeconds:     in.RestSeconds,
		})
	}
	return exercises
}
