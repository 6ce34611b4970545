package identity

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/trainer-service/internal/domain"
)

const contextKey = "auth_context"

// AuthContext is the request-scoped authorization value: the resolved
// principal, its role, and its tenant affiliation. It is constructed exactly
// once per request by the middleware and passed explicitly into every service
// call. Fields are unexported so the value cannot be mutated after
// construction; there is deliberately no process-wide slot holding a
// "current" context.
type AuthContext struct {
	principalID string
	role        domain.Role
	tenantID    *string
	studentID   *string
}

// NewAuthContext builds an immutable authorization context. tenantID is nil
// only for admins and principals pending tenant assignment; studentID is set
// for managed subjects linked to a student record.
func NewAuthContext(principalID string, role domain.Role, tenantID, studentID *string) AuthContext {
	ac := AuthContext{principalID: principalID, role: role}
	if tenantID != nil {
		v := *tenantID
		ac.tenantID = &v
	}
	if studentID != nil {
		v := *studentID
		ac.studentID = &v
	}
	return ac
}

// PrincipalID returns the resolved principal's internal id.
func (ac AuthContext) PrincipalID() string { return ac.principalID }

// Role returns the principal's role.
func (ac AuthContext) Role() domain.Role { return ac.role }

// TenantID returns the effective tenant id, or nil.
func (ac AuthContext) TenantID() *string {
	if ac.tenantID == nil {
		return nil
	}
	v := *ac.tenantID
	return &v
}

// StudentID returns the linked student record id for managed subjects, or nil.
func (ac AuthContext) StudentID() *string {
	if ac.studentID == nil {
		return nil
	}
	v := *ac.studentID
	return &v
}

// ContextFromFiber retrieves the authorization context stored by the
// middleware for the current request.
func ContextFromFiber(c *fiber.Ctx) (AuthContext, bool) {
	val := c.Locals(contextKey)
	if val == nil {
		return AuthContext{}, false
	}
	ac, ok := val.(AuthContext)
	return ac, ok
}

func storeContext(c *fiber.Ctx, ac AuthContext) {
	c.Locals(contextKey, ac)
}
