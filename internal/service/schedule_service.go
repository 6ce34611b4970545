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
	"github.com/spec-kit/trainer-service/internal/tenancy"
	apperrors "github.com/spec-kit/trainer-service/pkg/util/errorutil"
)

// ScheduleService books and manages training sessions.
type ScheduleService struct {
	schedules  repository.ScheduleRepository
	students   repository.StudentRepository
	enforcer   *tenancy.Enforcer
	dispatcher events.Dispatcher
}

// ScheduleDependencies bundles repo requirements.
type ScheduleDependencies struct {
	ScheduleRepo repository.ScheduleRepository
	StudentRepo  repository.StudentRepository
	Enforcer     *tenancy.Enforcer
	Dispatcher   events.Dispatcher
}

// ScheduleCreateInput carries booking fields.
type ScheduleCreateInput struct {
	StudentID       string
	StartsAt        time.Time
	DurationMinutes int
	Location        string
	Notes           string
}

// ScheduleUpdateInput carries mutable session fields.
type ScheduleUpdateInput struct {
	StartsAt        time.Time
	DurationMinutes int
	Location        string
	Notes           string
	Status          domain.ScheduleStatus
}

// NewScheduleService builds the service.
func NewScheduleService(deps ScheduleDependencies) *ScheduleService {
	return &ScheduleService{
		schedules:  deps.ScheduleRepo,
		students:   deps.StudentRepo,
		enforcer:   deps.Enforcer,
		dispatcher: deps.Dispatcher,
	}
}

// Create books a session. The referenced student must resolve inside the
// caller's scope; a foreign student id reads as missing.
func (s *ScheduleService) Create(ctx context.Context, ac identity.AuthContext, input ScheduleCreateInput) (*domain.Schedule, error) {
	if input.StartsAt.IsZero() {
		return nil, apperrors.NewValidationError("starts_at required", nil)
	}
	if input.DurationMinutes <= 0 {
		return nil, apperrors.NewValidationError("duration_minutes must be positive", nil)
	}

	scope, err := s.enforcer.ScopeFor(ac)
	if err != nil {
		return nil, err
	}
	student, err := s.students.GetByID(ctx, scope, input.StudentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("student", nil)
		}
		return nil, apperrors.MapError(err)
	}

	schedule := &domain.Schedule{
		TenantID:        student.TenantID,
		StudentID:       student.ID,
		StartsAt:        input.StartsAt,
		DurationMinutes: input.DurationMinutes,
		Location:        input.Location,
		Notes:           input.Notes,
		Status:          domain.ScheduleStatusScheduled,
	}
	if err := s.enforcer.AuthorizeWrite(ac, schedule); err != nil {
		return nil, err
	}
	if err := s.schedules.Create(ctx, schedule); err != nil {
		return nil, apperrors.MapError(err)
	}

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			Type:        events.EventScheduleCreated,
			PrincipalID: ac.PrincipalID(),
			Timestamp:   time.Now(),
			Payload: events.ScheduleCreatedPayload{
				ScheduleID: schedule.ID,
				TenantID:   schedule.TenantID,
				StudentID:  schedule.StudentID,
				StartsAt:   schedule.StartsAt,
			},
		})
	}
	return schedule, nil
}

// Get fetches one session.
func (s *ScheduleService) Get(ctx context.Context, ac identity.AuthContext, id string) (*domain.Schedule, error) {
	scope, err := s.enforcer.ScopeFor(ac)
	if err != nil {
		return nil, err
	}
	schedule, err := s.schedules.GetByID(ctx, scope, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("schedule", nil)
		}
		return nil, apperrors.MapError(err)
	}
	if err := s.enforcer.AuthorizeRead(ac, schedule); err != nil {
		return nil, err
	}
	return schedule, nil
}

// List returns the sessions visible to the caller.
func (s *ScheduleService) List(ctx context.Context, ac identity.AuthContext, filter repository.ScheduleFilter) ([]domain.Schedule, error) {
	scope, err := s.enforcer.ScopeFor(ac)
	if err != nil {
		return nil, err
	}
	schedules, err := s.schedules.List(ctx, scope, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return schedules, nil
}

// Update rewrites a session. Managed subjects may only confirm or cancel
// their own sessions; trainers have the full surface.
func (s *ScheduleService) Update(ctx context.Context, ac identity.AuthContext, id string, input ScheduleUpdateInput) (*domain.Schedule, error) {
	schedule, err := s.Get(ctx, ac, id)
	if err != nil {
		return nil, err
	}
	if !validScheduleStatus(input.Status) {
		return nil, apperrors.NewValidationError("unknown status", nil)
	}

	if ac.Role() == domain.RoleStudent {
		if input.Status != domain.ScheduleStatusConfirmed && input.Status != domain.ScheduleStatusCancelled {
			return nil, apperrors.NewForbidden("students may only confirm or cancel")
		}
		schedule.Status = input.Status
	} else {
		if input.StartsAt.IsZero() {
			return nil, apperrors.NewValidationError("starts_at required", nil)
		}
		if input.DurationMinutes <= 0 {
			return nil, apperrors.NewValidationError("duration_minutes must be positive", nil)
		}
		schedule.StartsAt = input.StartsAt
		schedule.DurationMinutes = input.DurationMinutes
		schedule.Location = input.Location
		schedule.Notes = input.Notes
		schedule.Status = input.Status
	}

	if err := s.enforcer.AuthorizeWrite(ac, schedule); err != nil {
		return nil, err
	}
	scope, err := s.enforcer.ScopeFor(ac)
	if err != nil {
		return nil, err
	}
	if err := s.schedules.Update(ctx, scope, schedule); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("schedule", nil)
		}
		return nil, apperrors.MapError(err)
	}
	return schedule, nil
}

// Cancel marks a session cancelled without touching its other fields.
func (s *ScheduleService) Cancel(ctx context.Context, ac identity.AuthContext, id string) (*domain.Schedule, error) {
	schedule, err := s.Get(ctx, ac, id)
	if err != nil {
		return nil, err
	}
	schedule.Status = domain.ScheduleStatusCancelled

	if err := s.enforcer.AuthorizeWrite(ac, schedule); err != nil {
		return nil, err
	}
	scope, err := s.enforcer.ScopeFor(ac)
	if err != nil {
		return nil, err
	}
	if err := s.schedules.Update(ctx, scope, schedule); err != nil {
		return nil, apperrors.MapError(err)
	}
	return schedule, nil
}

func validScheduleStatus(status domain.ScheduleStatus) bool {
	switch status {
	case domain.ScheduleStatusScheduled, domain.ScheduleStatusConfirmed,
		domain.ScheduleStatusCancelled, domain.ScheduleStatusCompleted:
		return true
	}
	return false
}
