package domain

import "time"

// ScheduleStatus enumerates lifecycle states for training sessions.
type ScheduleStatus string

const (
	ScheduleStatusScheduled ScheduleStatus = "SCHEDULED"
	ScheduleStatusConfirmed ScheduleStatus = "CONFIRMED"
	ScheduleStatusCancelled ScheduleStatus = "CANCELLED"
	ScheduleStatusCompleted ScheduleStatus = "COMPLETED"
)

// Schedule is a booked training session between a trainer and a student.
type Schedule struct {
	ID              string
	TenantID        string
	StudentID       string
	StartsAt        time.Time
	DurationMinutes int
	Location        string
	Notes           string
	Status          ScheduleStatus
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// OwningTenant returns the tenant the record belongs to.
func (s *Schedule) OwningTenant() string { return s.TenantID }

// OwnerStudentID returns the managed subject the session belongs to.
func (s *Schedule) OwnerStudentID() *string { return &s.StudentID }
