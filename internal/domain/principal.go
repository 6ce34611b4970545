package domain

import "time"

// Role enumerates the closed set of principal roles. Authorization decisions
// are centralized in the tenancy enforcer; handlers never branch on role
// strings themselves.
type Role string

const (
	// RoleAdmin has no tenant affiliation and full access.
	RoleAdmin Role = "ADMIN"
	// RoleTrainer owns a tenant and every record inside it.
	RoleTrainer Role = "TRAINER"
	// RoleStudent is a managed subject restricted to its own records within
	// the owning tenant.
	RoleStudent Role = "STUDENT"
)

// Valid reports whether the role belongs to the closed set.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleTrainer, RoleStudent:
		return true
	}
	return false
}

// Principal is the internal identity record resolved from an external
// credential. Exactly one Principal exists per external subject id.
type Principal struct {
	ID                string
	ExternalSubjectID string
	Email             string
	Name              string
	Role              Role
	TenantID          *string
	Active            bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
