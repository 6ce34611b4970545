package domain

import "time"

// PaymentKind distinguishes money received from money still due.
type PaymentKind string

const (
	PaymentKindReceived PaymentKind = "RECEIVED"
	PaymentKindPending  PaymentKind = "PENDING"
)

// Payment is a financial entry in a trainer's ledger. Amounts are stored in
// cents to avoid floating point drift.
type Payment struct {
	ID          string
	TenantID    string
	StudentID   *string
	AmountCents int64
	PaidOn      time.Time
	Kind        PaymentKind
	Description string
	CreatedAt   time.Time
}

// OwningTenant returns the tenant the record belongs to.
func (p *Payment) OwningTenant() string { return p.TenantID }

// OwnerStudentID returns the related student, if any. Payments are a trainer
// concern; managed subjects never reach them, so ownership stays with the
// tenant.
func (p *Payment) OwnerStudentID() *string { return p.StudentID }
