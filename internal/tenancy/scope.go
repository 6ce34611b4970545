package tenancy

import (
	"github.com/spec-kit/trainer-service/internal/domain"
	"github.com/spec-kit/trainer-service/internal/identity"
	apperrors "github.com/spec-kit/trainer-service/pkg/util/errorutil"
)

// Scope is the mandatory filter predicate for storage operations against
// tenant-owned entities. Every repository read and write takes one; there is
// no unscoped accessor.
type Scope struct {
	// All disables filtering. Only the enforcer sets it, and only for admins.
	All bool
	// TenantID confines the operation to one tenant.
	TenantID string
	// StudentID, when set, further confines the operation to records owned by
	// one managed subject inside the tenant.
	StudentID *string
}

// Enforcer computes scope predicates and validates record ownership against
// an authorization context. It performs no I/O and holds no state, so it is
// safe to share across requests.
type Enforcer struct{}

// NewEnforcer constructs the enforcer.
func NewEnforcer() *Enforcer {
	return &Enforcer{}
}

// ScopeFor derives the filter predicate for the caller. The posture on any
// ambiguous context (unknown role, missing tenant affiliation) is deny.
func (e *Enforcer) ScopeFor(ac identity.AuthContext) (Scope, error) {
	switch ac.Role() {
	case domain.RoleAdmin:
		return Scope{All: true}, nil
	case domain.RoleTrainer:
		tenantID := ac.TenantID()
		if tenantID == nil {
			return Scope{}, apperrors.NewForbidden("principal has no tenant assignment")
		}
		return Scope{TenantID: *tenantID}, nil
	case domain.RoleStudent:
		tenantID := ac.TenantID()
		studentID := ac.StudentID()
		if tenantID == nil || studentID == nil {
			return Scope{}, apperrors.NewForbidden("principal has no tenant assignment")
		}
		return Scope{TenantID: *tenantID, StudentID: studentID}, nil
	default:
		return Scope{}, apperrors.NewForbidden("unknown role")
	}
}

// AuthorizeRead validates that the caller may see the record. A managed
// subject addressing a sibling's record inside its own tenant is rejected
// with CROSS_TENANT_WRITE, the same kind as a tenant-boundary violation.
func (e *Enforcer) AuthorizeRead(ac identity.AuthContext, rec Owned) error {
	return e.authorize(ac, rec, "record belongs to another owner")
}

// AuthorizeWrite validates that a create or update stays inside the caller's
// tenant boundary.
func (e *Enforcer) AuthorizeWrite(ac identity.AuthContext, rec Owned) error {
	return e.authorize(ac, rec, "write crosses tenant boundary")
}

func (e *Enforcer) authorize(ac identity.AuthContext, rec Owned, message string) error {
	switch ac.Role() {
	case domain.RoleAdmin:
		return nil
	case domain.RoleTrainer:
		tenantID := ac.TenantID()
		if tenantID == nil || rec.OwningTenant() != *tenantID {
			return apperrors.NewCrossTenantWrite(message)
		}
		return nil
	case domain.RoleStudent:
		tenantID := ac.TenantID()
		studentID := ac.StudentID()
		if tenantID == nil || studentID == nil || rec.OwningTenant() != *tenantID {
			return apperrors.NewCrossTenantWrite(message)
		}
		owner := rec.OwnerStudentID()
		if owner == nil || *owner != *studentID {
			return apperrors.NewCrossTenantWrite(message)
		}
		return nil
	default:
		return apperrors.NewCrossTenantWrite(message)
	}
}
