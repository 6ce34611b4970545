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
	"github.com/spec-kit/trainer-service/internal/identity"
	"github.com/spec-kit/trainer-service/internal/repository"
	"github.com/spec-kit/trainer-service/internal/tenancy"
	apperrors "github.com/spec-kit/trainer-service/pkg/util/errorutil"
)

// fakeStudentRepo mirrors the Postgres repository contract: every read and
// write honors the scope predicate, missing and out-of-scope rows both read
// as pgx.ErrNoRows.
type fakeStudentRepo struct {
	mu     sync.Mutex
	nextID int
	rows   map[string]*domain.Student
}

func newFakeStudentRepo() *fakeStudentRepo {
	return &fakeStudentRepo{rows: make(map[string]*domain.Student)}
}

func (r *fakeStudentRepo) inScope(scope tenancy.Scope, s *domain.Student) bool {
	if scope.All {
		return true
	}
	if s.TenantID != scope.TenantID {
		return false
	}
	if scope.StudentID != nil && s.ID != *scope.StudentID {
		return false
	}
	return true
}

func (r *fakeStudentRepo) Create(_ context.Context, student *domain.Student) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	student.ID = fmt.Sprintf("stu-%d", r.nextID)
	student.CreatedAt = time.Now()
	student.UpdatedAt = student.CreatedAt
	cp := *student
	r.rows[cp.ID] = &cp
	return nil
}

func (r *fakeStudentRepo) Update(_ context.Context, scope tenancy.Scope, student *domain.Student) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.rows[student.ID]
	if !ok || !r.inScope(scope, existing) {
		return pgx.ErrNoRows
	}
	cp := *student
	r.rows[cp.ID] = &cp
	return nil
}

func (r *fakeStudentRepo) GetByID(_ context.Context, scope tenancy.Scope, id string) (*domain.Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.rows[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	// Tenant confinement only; owner checks belong to the enforcer.
	if !scope.All && s.TenantID != scope.TenantID {
		return nil, pgx.ErrNoRows
	}
	cp := *s
	return &cp, nil
}

func (r *fakeStudentRepo) GetByPrincipal(_ context.Context, principalID string) (*domain.Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.rows {
		if s.PrincipalID != nil && *s.PrincipalID == principalID {
			cp := *s
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeStudentRepo) List(_ context.Context, scope tenancy.Scope, _ repository.StudentFilter) ([]domain.Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Student
	for _, s := range r.rows {
		if r.inScope(scope, s) {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *fakeStudentRepo) Stats(_ context.Context, scope tenancy.Scope) (*repository.StudentStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := &repository.StudentStats{}
	for _, s := range r.rows {
		if !r.inScope(scope, s) {
			continue
		}
		stats.Total++
		if s.Active {
			stats.Active++
		} else {
			stats.Inactive++
		}
	}
	return stats, nil
}

func (r *fakeStudentRepo) Deactivate(_ context.Context, scope tenancy.Scope, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.rows[id]
	if !ok || !r.inScope(scope, s) {
		return pgx.ErrNoRows
	}
	s.Active = false
	return nil
}

func trainerCtx(tenant string) identity.AuthContext {
	return identity.NewAuthContext("p-"+tenant, domain.RoleTrainer, &tenant, nil)
}

func adminCtx() identity.AuthContext {
	return identity.NewAuthContext("p-admin", domain.RoleAdmin, nil, nil)
}

func studentCtx(tenant, studentID string) identity.AuthContext {
	return identity.NewAuthContext("p-stu", domain.RoleStudent, &tenant, &studentID)
}

func newStudentFixture(t *testing.T) (*StudentService, *fakeStudentRepo, *domain.Student, *domain.Student) {
	t.Helper()
	repo := newFakeStudentRepo()
	svc := NewStudentService(StudentDependencies{StudentRepo: repo, Enforcer: tenancy.NewEnforcer()})

	a, err := svc.Create(context.Background(), trainerCtx("tenant-a"), StudentCreateInput{Name: "Ana"})
	require.NoError(t, err)
	b, err := svc.Create(context.Background(), trainerCtx("tenant-b"), StudentCreateInput{Name: "Bruno"})
	require.NoError(t, err)
	return svc, repo, a, b
}

func TestStudentCreateLandsInCallerTenant(t *testing.T) {
	repo := newFakeStudentRepo()
	svc := NewStudentService(StudentDependencies{StudentRepo: repo, Enforcer: tenancy.NewEnforcer()})

	student, err := svc.Create(context.Background(), trainerCtx("tenant-a"), StudentCreateInput{
		Name: "Ana",
		// A forged tenant id in the payload must not take effect.
		TenantID: "tenant-b",
	})
	require.NoError(t, err)
	assert.Equal(t, "tenant-a", student.TenantID)
}

func TestStudentListIsTenantConfined(t *testing.T) {
	svc, _, a, b := newStudentFixture(t)

	listA, err := svc.List(context.Background(), trainerCtx("tenant-a"), repository.StudentFilter{})
	require.NoError(t, err)
	require.Len(t, listA, 1)
	assert.Equal(t, a.ID, listA[0].ID)

	listB, err := svc.List(context.Background(), trainerCtx("tenant-b"), repository.StudentFilter{})
	require.NoError(t, err)
	require.Len(t, listB, 1)
	assert.Equal(t, b.ID, listB[0].ID)
}

func TestStudentCrossTenantGetReadsAsMissing(t *testing.T) {
	svc, _, _, b := newStudentFixture(t)

	_, err := svc.Get(context.Background(), trainerCtx("tenant-a"), b.ID)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, "NOT_FOUND"))
}

func TestStudentSiblingAccessRejected(t *testing.T) {
	repo := newFakeStudentRepo()
	svc := NewStudentService(StudentDependencies{StudentRepo: repo, Enforcer: tenancy.NewEnforcer()})

	ana, err := svc.Create(context.Background(), trainerCtx("tenant-a"), StudentCreateInput{Name: "Ana"})
	require.NoError(t, err)
	caio, err := svc.Create(context.Background(), trainerCtx("tenant-a"), StudentCreateInput{Name: "Caio"})
	require.NoError(t, err)

	ctx := studentCtx("tenant-a", ana.ID)

	own, err := svc.Get(context.Background(), ctx, ana.ID)
	require.NoError(t, err)
	assert.Equal(t, ana.ID, own.ID)

	// A same-tenant sibling is a scope violation, not a missing record.
	_, err = svc.Get(context.Background(), ctx, caio.ID)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeCrossTenantWrite))
}

func TestStudentAdminSeesAllTenants(t *testing.T) {
	svc, _, _, _ := newStudentFixture(t)

	all, err := svc.List(context.Background(), adminCtx(), repository.StudentFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestStudentAdminCreateRequiresTenant(t *testing.T) {
	repo := newFakeStudentRepo()
	svc := NewStudentService(StudentDependencies{StudentRepo: repo, Enforcer: tenancy.NewEnforcer()})

	_, err := svc.Create(context.Background(), adminCtx(), StudentCreateInput{Name: "Ana"})
	require.Error(t, err)

	student, err := svc.Create(context.Background(), adminCtx(), StudentCreateInput{Name: "Ana", TenantID: "tenant-a"})
	require.NoError(t, err)
	assert.Equal(t, "tenant-a", student.TenantID)
}

func TestStudentUpdateCrossTenantReadsAsMissing(t *testing.T) {
	svc, _, _, b := newStudentFixture(t)

	_, err := svc.Update(context.Background(), trainerCtx("tenant-a"), b.ID, StudentUpdateInput{Name: "Hijacked"})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, "NOT_FOUND"))
}

func TestStudentDeactivate(t *testing.T) {
	svc, repo, a, _ := newStudentFixture(t)

	require.NoError(t, svc.Deactivate(context.Background(), trainerCtx("tenant-a"), a.ID))
	assert.False(t, repo.rows[a.ID].Active)
}

func TestStudentStatsForbiddenForStudents(t *testing.T) {
	svc, _, a, _ := newStudentFixture(t)

	_, err := svc.Stats(context.Background(), studentCtx("tenant-a", a.ID))
	require.Error(t, err)
}

func TestStudentStatsPerTenant(t *testing.T) {
	svc, _, _, _ := newStudentFixture(t)

	stats, err := svc.Stats(context.Background(), trainerCtx("tenant-a"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Total)
}
