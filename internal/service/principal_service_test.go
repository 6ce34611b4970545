package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/trainer-service/internal/domain"
	"github.com/spec-kit/trainer-service/internal/events"
	"github.com/spec-kit/trainer-service/internal/identity"
	apperrors "github.com/spec-kit/trainer-service/pkg/util/errorutil"
)

type fakePrincipalRepo struct {
	mu     sync.Mutex
	nextID int
	rows   map[string]*domain.Principal
}

func newFakePrincipalRepo() *fakePrincipalRepo {
	return &fakePrincipalRepo{rows: make(map[string]*domain.Principal)}
}

func (r *fakePrincipalRepo) Create(_ context.Context, principal *domain.Principal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.rows {
		if p.ExternalSubjectID == principal.ExternalSubjectID {
			return identity.ErrSubjectExists
		}
	}
	r.nextID++
	principal.ID = fmt.Sprintf("p-%d", r.nextID)
	cp := *principal
	r.rows[cp.ID] = &cp
	return nil
}

func (r *fakePrincipalRepo) GetByID(_ context.Context, id string) (*domain.Principal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.rows[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, pgx.ErrNoRows
}

func (r *fakePrincipalRepo) GetByExternalSubject(_ context.Context, subject string) (*domain.Principal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.rows {
		if p.ExternalSubjectID == subject {
			cp := *p
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakePrincipalRepo) List(_ context.Context, _, _ int) ([]domain.Principal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Principal
	for _, p := range r.rows {
		out = append(out, *p)
	}
	return out, nil
}

// bindTenant mirrors the write-once tenant binding the trainer insert
// performs; it is not part of the repository contract.
func (r *fakePrincipalRepo) bindTenant(id, tenantID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.rows[id]
	if !ok || p.TenantID != nil {
		return pgx.ErrNoRows
	}
	p.TenantID = &tenantID
	return nil
}

func (r *fakePrincipalRepo) Deactivate(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.rows[id]
	if !ok {
		return pgx.ErrNoRows
	}
	p.Active = false
	return nil
}

type fakeTrainerRepo struct {
	mu         sync.Mutex
	nextID     int
	principals *fakePrincipalRepo
	rows       map[string]*domain.Trainer
}

func newFakeTrainerRepo(principals *fakePrincipalRepo) *fakeTrainerRepo {
	return &fakeTrainerRepo{principals: principals, rows: make(map[string]*domain.Trainer)}
}

// Create binds the principal as part of the insert, like the transactional
// Postgres implementation: a failed bind persists nothing.
func (r *fakeTrainerRepo) Create(_ context.Context, trainer *domain.Trainer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := fmt.Sprintf("t-%d", r.nextID+1)
	if err := r.principals.bindTenant(trainer.PrincipalID, id); err != nil {
		return err
	}
	r.nextID++
	trainer.ID = id
	cp := *trainer
	r.rows[cp.ID] = &cp
	return nil
}

func (r *fakeTrainerRepo) GetByID(_ context.Context, id string) (*domain.Trainer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.rows[id]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeTrainerRepo) GetByPrincipal(_ context.Context, principalID string) (*domain.Trainer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.rows {
		if t.PrincipalID == principalID {
			cp := *t
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func newPrincipalFixture() (*PrincipalService, *fakePrincipalRepo, *fakeTrainerRepo, *capturingDispatcher) {
	principals := newFakePrincipalRepo()
	trainers := newFakeTrainerRepo(principals)
	dispatcher := &capturingDispatcher{}
	svc := NewPrincipalService(PrincipalDependencies{
		PrincipalRepo: principals,
		TrainerRepo:   trainers,
		Dispatcher:    dispatcher,
	})
	return svc, principals, trainers, dispatcher
}

func TestProvisionRequiresAdmin(t *testing.T) {
	svc, _, _, _ := newPrincipalFixture()

	_, err := svc.Provision(context.Background(), trainerCtx("tenant-a"), PrincipalProvisionInput{
		ExternalSubjectID: "sub-1",
		Role:              domain.RoleTrainer,
	})
	require.Error(t, err)
}

func TestProvisionCreatesPrincipalAndPublishes(t *testing.T) {
	svc, _, _, dispatcher := newPrincipalFixture()

	principal, err := svc.Provision(context.Background(), adminCtx(), PrincipalProvisionInput{
		ExternalSubjectID: "sub-1",
		Email:             "ana@example.com",
		Role:              domain.RoleTrainer,
	})
	require.NoError(t, err)
	assert.True(t, principal.Active)

	require.Len(t, dispatcher.events, 1)
	assert.Equal(t, events.EventPrincipalProvisioned, dispatcher.events[0].Type)
}

func TestProvisionDuplicateSubjectConflicts(t *testing.T) {
	svc, _, _, _ := newPrincipalFixture()

	_, err := svc.Provision(context.Background(), adminCtx(), PrincipalProvisionInput{
		ExternalSubjectID: "sub-1", Role: domain.RoleTrainer,
	})
	require.NoError(t, err)

	_, err = svc.Provision(context.Background(), adminCtx(), PrincipalProvisionInput{
		ExternalSubjectID: "sub-1", Role: domain.RoleStudent,
	})
	require.Error(t, err)
}

func TestProvisionRejectsUnknownRole(t *testing.T) {
	svc, _, _, _ := newPrincipalFixture()

	_, err := svc.Provision(context.Background(), adminCtx(), PrincipalProvisionInput{
		ExternalSubjectID: "sub-1", Role: domain.Role("SUPERUSER"),
	})
	require.Error(t, err)
}

func TestDeactivateIsOneWay(t *testing.T) {
	svc, principals, _, dispatcher := newPrincipalFixture()

	principal, err := svc.Provision(context.Background(), adminCtx(), PrincipalProvisionInput{
		ExternalSubjectID: "sub-1", Role: domain.RoleTrainer,
	})
	require.NoError(t, err)

	require.NoError(t, svc.Deactivate(context.Background(), adminCtx(), principal.ID))
	stored, err := principals.GetByID(context.Background(), principal.ID)
	require.NoError(t, err)
	assert.False(t, stored.Active)

	require.Len(t, dispatcher.events, 2)
	assert.Equal(t, events.EventPrincipalDeactivated, dispatcher.events[1].Type)
}

func TestCreateTrainerBindsTenantOnce(t *testing.T) {
	svc, principals, trainers, _ := newPrincipalFixture()

	principal, err := svc.Provision(context.Background(), adminCtx(), PrincipalProvisionInput{
		ExternalSubjectID: "sub-1", Role: domain.RoleTrainer,
	})
	require.NoError(t, err)

	trainer, err := svc.CreateTrainer(context.Background(), adminCtx(), TrainerCreateInput{
		PrincipalID: principal.ID, Specialty: "strength",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, trainer.ID)
	assert.Len(t, trainers.rows, 1)

	stored, err := principals.GetByID(context.Background(), principal.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.TenantID)
	assert.Equal(t, trainer.ID, *stored.TenantID)

	// Tenant affiliation is write-once.
	_, err = svc.CreateTrainer(context.Background(), adminCtx(), TrainerCreateInput{PrincipalID: principal.ID})
	require.Error(t, err)
}

// bindLosingTrainerRepo models losing the write-once principal bind to a
// concurrent onboarding: the transactional insert rolls back and reports
// pgx.ErrNoRows.
type bindLosingTrainerRepo struct{}

func (bindLosingTrainerRepo) Create(context.Context, *domain.Trainer) error { return pgx.ErrNoRows }
func (bindLosingTrainerRepo) GetByID(context.Context, string) (*domain.Trainer, error) {
	return nil, pgx.ErrNoRows
}
func (bindLosingTrainerRepo) GetByPrincipal(context.Context, string) (*domain.Trainer, error) {
	return nil, pgx.ErrNoRows
}

func TestCreateTrainerLostBindIsConflict(t *testing.T) {
	principals := newFakePrincipalRepo()
	svc := NewPrincipalService(PrincipalDependencies{
		PrincipalRepo: principals,
		TrainerRepo:   bindLosingTrainerRepo{},
		Dispatcher:    &capturingDispatcher{},
	})

	principal, err := svc.Provision(context.Background(), adminCtx(), PrincipalProvisionInput{
		ExternalSubjectID: "sub-1", Role: domain.RoleTrainer,
	})
	require.NoError(t, err)

	_, err = svc.CreateTrainer(context.Background(), adminCtx(), TrainerCreateInput{PrincipalID: principal.ID})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, "CONFLICT"))
}

func TestCreateTrainerRejectsNonTrainerPrincipal(t *testing.T) {
	svc, _, _, _ := newPrincipalFixture()

	principal, err := svc.Provision(context.Background(), adminCtx(), PrincipalProvisionInput{
		ExternalSubjectID: "sub-1", Role: domain.RoleStudent,
	})
	require.NoError(t, err)

	_, err = svc.CreateTrainer(context.Background(), adminCtx(), TrainerCreateInput{PrincipalID: principal.ID})
	require.Error(t, err)
}

func TestMeReturnsOwnRecord(t *testing.T) {
	svc, _, _, _ := newPrincipalFixture()

	principal, err := svc.Provision(context.Background(), adminCtx(), PrincipalProvisionInput{
		ExternalSubjectID: "sub-1", Role: domain.RoleTrainer,
	})
	require.NoError(t, err)

	ac := identity.NewAuthContext(principal.ID, domain.RoleTrainer, nil, nil)
	me, err := svc.Me(context.Background(), ac)
	require.NoError(t, err)
	assert.Equal(t, principal.ID, me.ID)
}
