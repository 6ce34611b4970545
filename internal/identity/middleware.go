package identity

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/trainer-service/internal/domain"
	apperrors "github.com/spec-kit/trainer-service/pkg/util/errorutil"
)

// AuthMiddleware turns the request's bearer credential into an authorization
// context. gate is nil in production posture, which removes the bypass path
// entirely.
type AuthMiddleware struct {
	verifier   Verifier
	resolver   *Resolver
	gate       *BypassGate
	sessions   SessionAuthenticator
	principals PrincipalStore
	students   StudentDirectory
}

// NewAuthMiddleware constructs middleware. sessions may be nil when the
// server-side session surface is disabled.
func NewAuthMiddleware(verifier Verifier, resolver *Resolver, gate *BypassGate, sessions SessionAuthenticator, principals PrincipalStore, students StudentDirectory) *AuthMiddleware {
	return &AuthMiddleware{
		verifier:   verifier,
		resolver:   resolver,
		gate:       gate,
		sessions:   sessions,
		principals: principals,
		students:   students,
	}
}

// Handle enforces authentication for protected routes and stores the
// per-request authorization context.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	var (
		principal *domain.Principal
		err       error
	)
	switch {
	case strings.EqualFold(parts[0], "Bearer"):
		principal, err = m.authenticateBearer(c, parts[1])
	case strings.EqualFold(parts[0], "Session"):
		principal, err = m.authenticateSession(c, parts[1])
	default:
		return apperrors.NewUnauthorized("unsupported authorization scheme")
	}
	if err != nil {
		return err
	}

	ac, err := m.buildContext(c, principal)
	if err != nil {
		return err
	}
	storeContext(c, ac)
	return c.Next()
}

func (m *AuthMiddleware) authenticateBearer(c *fiber.Ctx, token string) (*domain.Principal, error) {
	if m.gate != nil && strings.HasPrefix(token, BypassTokenPrefix) {
		role, ok := ParseBypassToken(token)
		if !ok {
			return nil, apperrors.NewUnauthorized("unknown bypass token")
		}
		return m.gate.Bypass(c.UserContext(), role)
	}

	claims, err := m.verifier.Verify(c.UserContext(), token)
	if err != nil {
		return nil, err
	}
	return m.resolver.Resolve(c.UserContext(), claims)
}

func (m *AuthMiddleware) authenticateSession(c *fiber.Ctx, token string) (*domain.Principal, error) {
	if m.sessions == nil {
		return nil, apperrors.NewUnauthorized("sessions not enabled")
	}
	principalID, err := m.sessions.Authenticate(c.UserContext(), token)
	if err != nil {
		return nil, err
	}
	principal, err := m.principals.GetByID(c.UserContext(), principalID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewUnauthorized("session principal not found")
		}
		return nil, apperrors.MapError(err)
	}
	// Re-checked every request: a deactivated principal must not ride an
	// existing session.
	if !principal.Active {
		return nil, apperrors.NewPrincipalInactive()
	}
	return principal, nil
}

func (m *AuthMiddleware) buildContext(c *fiber.Ctx, principal *domain.Principal) (AuthContext, error) {
	tenantID := principal.TenantID
	var studentID *string

	if principal.Role == domain.RoleStudent && m.students != nil {
		student, err := m.students.GetByPrincipal(c.UserContext(), principal.ID)
		switch {
		case err == nil:
			studentID = &student.ID
			if tenantID == nil {
				tenantID = &student.TenantID
			}
		case errors.Is(err, pgx.ErrNoRows):
			// No linked student record yet; the enforcer denies all scoped
			// operations for this context.
		default:
			return AuthContext{}, apperrors.MapError(err)
		}
	}

	return NewAuthContext(principal.ID, principal.Role, tenantID, studentID), nil
}
