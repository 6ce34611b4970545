package identity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/trainer-service/internal/config"
	"github.com/spec-kit/trainer-service/internal/domain"
	apperrors "github.com/spec-kit/trainer-service/pkg/util/errorutil"
)

type stubVerifier struct {
	claims *VerifiedClaims
	err    error
}

func (v *stubVerifier) Verify(context.Context, string) (*VerifiedClaims, error) {
	return v.claims, v.err
}

type fakeStudentDirectory struct {
	mu          sync.Mutex
	byPrincipal map[string]*domain.Student
}

func (d *fakeStudentDirectory) GetByPrincipal(_ context.Context, principalID string) (*domain.Student, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if s, ok := d.byPrincipal[principalID]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, pgx.ErrNoRows
}

type stubSessions struct {
	principalID string
	err         error
}

func (s *stubSessions) Authenticate(context.Context, string) (string, error) {
	return s.principalID, s.err
}

func newTestApp(m *AuthMiddleware) *fiber.App {
	app := fiber.New()
	app.Get("/protected", m.Handle, func(c *fiber.Ctx) error {
		ac, _ := ContextFromFiber(c)
		return c.JSON(fiber.Map{"principal_id": ac.PrincipalID(), "role": string(ac.Role())})
	})
	return app
}

func doRequest(t *testing.T, app *fiber.App, authorization string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestMiddlewareMissingHeader(t *testing.T) {
	store := newFakePrincipalStore()
	m := NewAuthMiddleware(&stubVerifier{}, NewResolver(store, true, zap.NewNop()), nil, nil, store, nil)

	resp := doRequest(t, newTestApp(m), "")
	assert.NotEqual(t, http.StatusOK, resp.StatusCode)
}

func TestMiddlewareBearerResolvesPrincipal(t *testing.T) {
	store := newFakePrincipalStore()
	store.put(&domain.Principal{ID: "p-1", ExternalSubjectID: "sub-1", Role: domain.RoleTrainer, Active: true})
	verifier := &stubVerifier{claims: testClaims("sub-1")}
	m := NewAuthMiddleware(verifier, NewResolver(store, true, zap.NewNop()), nil, nil, store, nil)

	resp := doRequest(t, newTestApp(m), "Bearer some-token")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMiddlewareBearerInvalidCredential(t *testing.T) {
	store := newFakePrincipalStore()
	verifier := &stubVerifier{err: apperrors.NewInvalidCredential("credential rejected")}
	m := NewAuthMiddleware(verifier, NewResolver(store, true, zap.NewNop()), nil, nil, store, nil)

	resp := doRequest(t, newTestApp(m), "Bearer bad-token")
	assert.NotEqual(t, http.StatusOK, resp.StatusCode)
}

func TestMiddlewareBypassRequiresGate(t *testing.T) {
	store := newFakePrincipalStore()
	// Without a gate the bypass token goes through the verifier like any
	// other credential and fails.
	verifier := &stubVerifier{err: apperrors.NewInvalidCredential("credential rejected")}
	m := NewAuthMiddleware(verifier, NewResolver(store, true, zap.NewNop()), nil, nil, store, nil)

	resp := doRequest(t, newTestApp(m), "Bearer dev-bypass-admin")
	assert.NotEqual(t, http.StatusOK, resp.StatusCode)
	assert.Zero(t, store.creates)
}

func TestMiddlewareBypassWithGate(t *testing.T) {
	store := newFakePrincipalStore()
	gate, err := NewBypassGate(config.AppConfig{Env: "development"}, store, zap.NewNop())
	require.NoError(t, err)
	verifier := &stubVerifier{err: apperrors.NewInvalidCredential("credential rejected")}
	m := NewAuthMiddleware(verifier, NewResolver(store, true, zap.NewNop()), gate, nil, store, nil)

	resp := doRequest(t, newTestApp(m), "Bearer dev-bypass-admin")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, store.creates)
}

func TestMiddlewareSessionResolvesPrincipal(t *testing.T) {
	store := newFakePrincipalStore()
	store.put(&domain.Principal{ID: "p-1", ExternalSubjectID: "sub-1", Role: domain.RoleTrainer, Active: true})
	sessions := &stubSessions{principalID: "p-1"}
	m := NewAuthMiddleware(&stubVerifier{}, NewResolver(store, true, zap.NewNop()), nil, sessions, store, nil)

	resp := doRequest(t, newTestApp(m), "Session sid.secret")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMiddlewareSessionDeactivatedPrincipalRejected(t *testing.T) {
	store := newFakePrincipalStore()
	store.put(&domain.Principal{ID: "p-1", ExternalSubjectID: "sub-1", Role: domain.RoleTrainer, Active: false})
	sessions := &stubSessions{principalID: "p-1"}
	m := NewAuthMiddleware(&stubVerifier{}, NewResolver(store, true, zap.NewNop()), nil, sessions, store, nil)

	resp := doRequest(t, newTestApp(m), "Session sid.secret")
	assert.NotEqual(t, http.StatusOK, resp.StatusCode)
}

func TestMiddlewareStudentContextCarriesLink(t *testing.T) {
	store := newFakePrincipalStore()
	store.put(&domain.Principal{ID: "p-1", ExternalSubjectID: "sub-1", Role: domain.RoleStudent, Active: true})
	students := &fakeStudentDirectory{byPrincipal: map[string]*domain.Student{
		"p-1": {ID: "stu-1", TenantID: "tenant-a"},
	}}
	verifier := &stubVerifier{claims: testClaims("sub-1")}
	m := NewAuthMiddleware(verifier, NewResolver(store, true, zap.NewNop()), nil, nil, store, students)

	app := fiber.New()
	var captured AuthContext
	app.Get("/protected", m.Handle, func(c *fiber.Ctx) error {
		captured, _ = ContextFromFiber(c)
		return c.SendStatus(http.StatusOK)
	})

	resp := doRequest(t, app, "Bearer some-token")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotNil(t, captured.StudentID())
	assert.Equal(t, "stu-1", *captured.StudentID())
	require.NotNil(t, captured.TenantID())
	assert.Equal(t, "tenant-a", *captured.TenantID())
}

func TestMiddlewareStudentWithoutLinkStillAuthenticates(t *testing.T) {
	store := newFakePrincipalStore()
	store.put(&domain.Principal{ID: "p-1", ExternalSubjectID: "sub-1", Role: domain.RoleStudent, Active: true})
	students := &fakeStudentDirectory{byPrincipal: map[string]*domain.Student{}}
	verifier := &stubVerifier{claims: testClaims("sub-1")}
	m := NewAuthMiddleware(verifier, NewResolver(store, true, zap.NewNop()), nil, nil, store, students)

	app := fiber.New()
	var captured AuthContext
	app.Get("/protected", m.Handle, func(c *fiber.Ctx) error {
		captured, _ = ContextFromFiber(c)
		return c.SendStatus(http.StatusOK)
	})

	resp := doRequest(t, app, "Bearer some-token")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Nil(t, captured.StudentID())
}
