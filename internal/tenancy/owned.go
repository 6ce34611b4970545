package tenancy

// Owned is implemented by every tenant-owned entity. The enforcer consults it
// when authorizing reads and writes; repositories never inspect tenant
// attributes themselves.
type Owned interface {
	// OwningTenant returns the tenant id stamped on the record at creation.
	OwningTenant() string
	// OwnerStudentID returns the managed subject the record belongs to, or
	// nil when the record is owned by the tenant as a whole.
	OwnerStudentID() *string
}
