package domain

import "time"

// Student is a client managed by a trainer. PrincipalID links the record to
// an authenticated identity once the student gains their own access.
type Student struct {
	ID              string
	TenantID        string
	PrincipalID     *string
	Name            string
	Email           string
	Phone           string
	BirthDate       *time.Time
	Goal            string
	DefaultLocation string
	Active          bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// OwningTenant returns the tenant the record belongs to.
func (s *Student) OwningTenant() string { return s.TenantID }

// OwnerStudentID returns the managed subject a record belongs to. A student
// record is owned by itself.
func (s *Student) OwnerStudentID() *string { return &s.ID }
