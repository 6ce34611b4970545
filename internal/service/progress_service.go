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

// ProgressService records and lists body-measurement history. The student id
// in a request is always resolved through the caller's scope first, so a
// foreign or sibling id never reaches the log table.
type ProgressService struct {
	progress repository.ProgressRepository
	students repository.StudentRepository
	enforcer *tenancy.Enforcer
}

// ProgressDependencies bundles repo requirements.
type ProgressDependencies struct {
	ProgressRepo repository.ProgressRepository
	StudentRepo  repository.StudentRepository
	Enforcer     *tenancy.Enforcer
}

// ProgressCreateInput carries one measurement entry.
type ProgressCreateInput struct {
	StudentID    string
	RecordedOn   time.Time
	WeightKg     *float64
	Measurements map[string]float64
	Notes        string
}

// NewProgressService builds the service.
func NewProgressService(deps ProgressDependencies) *ProgressService {
	return &ProgressService{
		progress: deps.ProgressRepo,
		students: deps.StudentRepo,
		enforcer: deps.Enforcer,
	}
}

// Create appends a measurement entry for a student.
func (s *ProgressService) Create(ctx context.Context, ac identity.AuthContext, input ProgressCreateInput) (*domain.ProgressLog, error) {
	student, err := s.resolveStudent(ctx, ac, input.StudentID)
	if err != nil {
		return nil, err
	}
	if input.RecordedOn.IsZero() {
		input.RecordedOn = time.Now()
	}

	log := &domain.ProgressLog{
		TenantID:     student.TenantID,
		StudentID:    student.ID,
		RecordedOn:   input.RecordedOn,
		WeightKg:     input.WeightKg,
		Measurements: input.Measurements,
		Notes:        input.Notes,
	}
	if err := s.enforcer.AuthorizeWrite(ac, log); err != nil {
		return nil, err
	}
	if err := s.progress.Create(ctx, log); err != nil {
		return nil, apperrors.MapError(err)
	}
	return log, nil
}

// ListByStudent returns a student's measurement history, newest first.
func (s *ProgressService) ListByStudent(ctx context.Context, ac identity.AuthContext, studentID string, limit, offset int) ([]domain.ProgressLog, error) {
	student, err := s.resolveStudent(ctx, ac, studentID)
	if err != nil {
		return nil, err
	}
	scope, err := s.enforcer.ScopeFor(ac)
	if err != nil {
		return nil, err
	}
	logs, err := s.progress.ListByStudent(ctx, scope, student.ID, limit, offset)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return logs, nil
}

func (s *ProgressService) resolveStudent(ctx context.Context, ac identity.AuthContext, studentID string) (*domain.Student, error) {
	scope, err := s.enforcer.ScopeFor(ac)
	if err != nil {
		return nil, err
	}
	student, err := s.students.GetByID(ctx, scope, studentID)
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
