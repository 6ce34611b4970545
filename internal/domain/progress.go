package domain

import "time"

// ProgressLog records a student's measurements at a point in time.
// Measurements is a free-form name-to-value map (waist, right arm, ...)
// persisted as JSONB.
type ProgressLog struct {
	ID           string
	TenantID     string
	StudentID    string
	RecordedOn   time.Time
	WeightKg     *float64
	Measurements map[string]float64
	Notes        string
	CreatedAt    time.Time
}

// OwningTenant returns the tenant the record belongs to.
func (p *ProgressLog) OwningTenant() string { return p.TenantID }

// OwnerStudentID returns the managed subject the log belongs to.
func (p *ProgressLog) OwnerStudentID() *string { return &p.StudentID }
