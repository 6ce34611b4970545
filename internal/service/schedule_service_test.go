package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/trainer-service/internal/domain"
	"github.com/spec-kit/trainer-service/internal/events"
	"github.com/spec-kit/trainer-service/internal/repository"
	"github.com/spec-kit/trainer-service/internal/tenancy"
	apperrors "github.com/spec-kit/trainer-service/pkg/util/errorutil"
)

type fakeScheduleRepo struct {
	mu     sync.Mutex
	nextID int
	rows   map[string]*domain.Schedule
}

func newFakeScheduleRepo() *fakeScheduleRepo {
	return &fakeScheduleRepo{rows: make(map[string]*domain.Schedule)}
}

func (r *fakeScheduleRepo) inScope(scope tenancy.Scope, s *domain.Schedule) bool {
	if scope.All {
		return true
	}
	if s.TenantID != scope.TenantID {
		return false
	}
	if scope.StudentID != nil && s.StudentID != *scope.StudentID {
		return false
	}
	return true
}

func (r *fakeScheduleRepo) Create(_ context.Context, schedule *domain.Schedule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	schedule.ID = fmt.Sprintf("sch-%d", r.nextID)
	cp := *schedule
	r.rows[cp.ID] = &cp
	return nil
}

func (r *fakeScheduleRepo) Update(_ context.Context, scope tenancy.Scope, schedule *domain.Schedule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.rows[schedule.ID]
	if !ok || !r.inScope(scope, existing) {
		return pgx.ErrNoRows
	}
	cp := *schedule
	r.rows[cp.ID] = &cp
	return nil
}

func (r *fakeScheduleRepo) GetByID(_ context.Context, scope tenancy.Scope, id string) (*domain.Schedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.rows[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	if !scope.All && s.TenantID != scope.TenantID {
		return nil, pgx.ErrNoRows
	}
	cp := *s
	return &cp, nil
}

func (r *fakeScheduleRepo) List(_ context.Context, scope tenancy.Scope, _ repository.ScheduleFilter) ([]domain.Schedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Schedule
	for _, s := range r.rows {
		if r.inScope(scope, s) {
			out = append(out, *s)
		}
	}
	return out, nil
}

type capturingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *capturingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *capturingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func newScheduleFixture(t *testing.T) (*ScheduleService, *capturingDispatcher, *domain.Student, *domain.Student) {
	t.Helper()
	students := newFakeStudentRepo()
	studentSvc := NewStudentService(StudentDependencies{StudentRepo: students, Enforcer: tenancy.NewEnforcer()})

	a, err := studentSvc.Create(context.Background(), trainerCtx("tenant-a"), StudentCreateInput{Name: "Ana"})
	require.NoError(t, err)
	b, err := studentSvc.Create(context.Background(), trainerCtx("tenant-b"), StudentCreateInput{Name: "Bruno"})
	require.NoError(t, err)

	dispatcher := &capturingDispatcher{}
	svc := NewScheduleService(ScheduleDependencies{
		ScheduleRepo: newFakeScheduleRepo(),
		StudentRepo:  students,
		Enforcer:     tenancy.NewEnforcer(),
		Dispatcher:   dispatcher,
	})
	return svc, dispatcher, a, b
}

func scheduleInput(studentID string) ScheduleCreateInput {
	return ScheduleCreateInput{
		StudentID:       studentID,
		StartsAt:        time.Now().Add(24 * time.Hour),
		DurationMinutes: 60,
		Location:        "gym",
	}
}

func TestScheduleCreatePublishesEvent(t *testing.T) {
	svc, dispatcher, a, _ := newScheduleFixture(t)

	schedule, err := svc.Create(context.Background(), trainerCtx("tenant-a"), scheduleInput(a.ID))
	require.NoError(t, err)
	assert.Equal(t, domain.ScheduleStatusScheduled, schedule.Status)
	assert.Equal(t, "tenant-a", schedule.TenantID)

	require.Len(t, dispatcher.events, 1)
	assert.Equal(t, events.EventScheduleCreated, dispatcher.events[0].Type)
}

func TestScheduleCreateForeignStudentReadsAsMissing(t *testing.T) {
	svc, dispatcher, _, b := newScheduleFixture(t)

	_, err := svc.Create(context.Background(), trainerCtx("tenant-a"), scheduleInput(b.ID))
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, "NOT_FOUND"))
	assert.Empty(t, dispatcher.events)
}

func TestScheduleCreateValidation(t *testing.T) {
	svc, _, a, _ := newScheduleFixture(t)

	input := scheduleInput(a.ID)
	input.DurationMinutes = 0
	_, err := svc.Create(context.Background(), trainerCtx("tenant-a"), input)
	require.Error(t, err)

	input = scheduleInput(a.ID)
	input.StartsAt = time.Time{}
	_, err = svc.Create(context.Background(), trainerCtx("tenant-a"), input)
	require.Error(t, err)
}

func TestScheduleStudentCanConfirmOwnSession(t *testing.T) {
	svc, _, a, _ := newScheduleFixture(t)

	schedule, err := svc.Create(context.Background(), trainerCtx("tenant-a"), scheduleInput(a.ID))
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), studentCtx("tenant-a", a.ID), schedule.ID, ScheduleUpdateInput{
		Status: domain.ScheduleStatusConfirmed,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ScheduleStatusConfirmed, updated.Status)
}

func TestScheduleStudentCannotReschedule(t *testing.T) {
	svc, _, a, _ := newScheduleFixture(t)

	schedule, err := svc.Create(context.Background(), trainerCtx("tenant-a"), scheduleInput(a.ID))
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), studentCtx("tenant-a", a.ID), schedule.ID, ScheduleUpdateInput{
		StartsAt:        time.Now().Add(48 * time.Hour),
		DurationMinutes: 90,
		Status:          domain.ScheduleStatusScheduled,
	})
	require.Error(t, err)
}

func TestScheduleSiblingSessionRejected(t *testing.T) {
	svc, _, a, _ := newScheduleFixture(t)

	students := svc.students.(*fakeStudentRepo)
	sibling := &domain.Student{TenantID: "tenant-a", Name: "Caio", Active: true}
	require.NoError(t, students.Create(context.Background(), sibling))

	schedule, err := svc.Create(context.Background(), trainerCtx("tenant-a"), scheduleInput(sibling.ID))
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), studentCtx("tenant-a", a.ID), schedule.ID)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeCrossTenantWrite))
}

func TestScheduleCancel(t *testing.T) {
	svc, _, a, _ := newScheduleFixture(t)

	schedule, err := svc.Create(context.Background(), trainerCtx("tenant-a"), scheduleInput(a.ID))
	require.NoError(t, err)

	cancelled, err := svc.Cancel(context.Background(), trainerCtx("tenant-a"), schedule.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ScheduleStatusCancelled, cancelled.Status)
}

func TestScheduleListTenantConfined(t *testing.T) {
	svc, _, a, b := newScheduleFixture(t)

	_, err := svc.Create(context.Background(), trainerCtx("tenant-a"), scheduleInput(a.ID))
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), trainerCtx("tenant-b"), scheduleInput(b.ID))
	require.NoError(t, err)

	listA, err := svc.List(context.Background(), trainerCtx("tenant-a"), repository.ScheduleFilter{})
	require.NoError(t, err)
	assert.Len(t, listA, 1)

	all, err := svc.List(context.Background(), adminCtx(), repository.ScheduleFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
