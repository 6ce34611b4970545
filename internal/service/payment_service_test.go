package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/trainer-service/internal/domain"
	"github.com/spec-kit/trainer-service/internal/repository"
	"github.com/spec-kit/trainer-service/internal/tenancy"
	apperrors "github.com/spec-kit/trainer-service/pkg/util/errorutil"
)

type fakePaymentRepo struct {
	mu     sync.Mutex
	nextID int
	rows   map[string]*domain.Payment
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{rows: make(map[string]*domain.Payment)}
}

func (r *fakePaymentRepo) Create(_ context.Context, payment *domain.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	payment.ID = fmt.Sprintf("pay-%d", r.nextID)
	cp := *payment
	r.rows[cp.ID] = &cp
	return nil
}

func (r *fakePaymentRepo) List(_ context.Context, scope tenancy.Scope, _ repository.PaymentFilter) ([]domain.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Payment
	for _, p := range r.rows {
		if scope.All || p.TenantID == scope.TenantID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func newPaymentFixture(t *testing.T) (*PaymentService, *domain.Student, *domain.Student) {
	t.Helper()
	students := newFakeStudentRepo()
	studentSvc := NewStudentService(StudentDependencies{StudentRepo: students, Enforcer: tenancy.NewEnforcer()})

	a, err := studentSvc.Create(context.Background(), trainerCtx("tenant-a"), StudentCreateInput{Name: "Ana"})
	require.NoError(t, err)
	b, err := studentSvc.Create(context.Background(), trainerCtx("tenant-b"), StudentCreateInput{Name: "Bruno"})
	require.NoError(t, err)

	svc := NewPaymentService(PaymentDependencies{
		PaymentRepo: newFakePaymentRepo(),
		StudentRepo: students,
		Enforcer:    tenancy.NewEnforcer(),
	})
	return svc, a, b
}

func paymentInput(studentID *string) PaymentCreateInput {
	return PaymentCreateInput{
		StudentID:   studentID,
		AmountCents: 15000,
		PaidOn:      time.Now(),
		Kind:        domain.PaymentKindReceived,
	}
}

func TestPaymentCreateAndList(t *testing.T) {
	svc, a, _ := newPaymentFixture(t)

	payment, err := svc.Create(context.Background(), trainerCtx("tenant-a"), paymentInput(&a.ID))
	require.NoError(t, err)
	assert.Equal(t, "tenant-a", payment.TenantID)

	list, err := svc.List(context.Background(), trainerCtx("tenant-a"), repository.PaymentFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	other, err := svc.List(context.Background(), trainerCtx("tenant-b"), repository.PaymentFilter{})
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestPaymentForeignStudentReadsAsMissing(t *testing.T) {
	svc, _, b := newPaymentFixture(t)

	_, err := svc.Create(context.Background(), trainerCtx("tenant-a"), paymentInput(&b.ID))
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, "NOT_FOUND"))
}

func TestPaymentStudentForbidden(t *testing.T) {
	svc, a, _ := newPaymentFixture(t)

	ctx := studentCtx("tenant-a", a.ID)
	_, err := svc.Create(context.Background(), ctx, paymentInput(&a.ID))
	require.Error(t, err)

	_, err = svc.List(context.Background(), ctx, repository.PaymentFilter{})
	require.Error(t, err)
}

func TestPaymentValidation(t *testing.T) {
	svc, a, _ := newPaymentFixture(t)

	input := paymentInput(&a.ID)
	input.AmountCents = 0
	_, err := svc.Create(context.Background(), trainerCtx("tenant-a"), input)
	require.Error(t, err)

	input = paymentInput(&a.ID)
	input.Kind = domain.PaymentKind("REFUNDED")
	_, err = svc.Create(context.Background(), trainerCtx("tenant-a"), input)
	require.Error(t, err)
}

func TestPaymentWithoutStudentLandsInOwnTenant(t *testing.T) {
	svc, _, _ := newPaymentFixture(t)

	payment, err := svc.Create(context.Background(), trainerCtx("tenant-a"), paymentInput(nil))
	require.NoError(t, err)
	assert.Equal(t, "tenant-a", payment.TenantID)
	assert.Nil(t, payment.StudentID)
}
