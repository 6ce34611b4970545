package domain

import "time"

// TrainingSheet is a workout plan. A nil StudentID marks a reusable template
// owned by the tenant rather than assigned to a student.
type TrainingSheet struct {
	ID          string
	TenantID    string
	StudentID   *string
	Name        string
	Description string
	Active      bool
	Exercises   []Exercise
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Exercise is a single ordered entry in a training sheet. Duration and rest
// drive the workout timer on the client side.
type Exercise struct {
	ID              string
	SheetID         string
	Position        int
	Name            string
	Description     string
	DurationSeconds int
	RestSeconds     int
	CreatedAt       time.Time
}

// OwningTenant returns the tenant the record belongs to.
func (t *TrainingSheet) OwningTenant() string { return t.TenantID }

// OwnerStudentID returns the assigned student, or nil for templates.
func (t *TrainingSheet) OwnerStudentID() *string { return t.StudentID }
