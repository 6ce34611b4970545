package dto

import (
	"time"

	"github.com/spec-kit/trainer-service/internal/domain"
)

// CreateScheduleRequest payload.
type CreateScheduleRequest struct {
	StudentID       string    `json:"student_id"`
	StartsAt        time.Time `json:"starts_at"`
	DurationMinutes int       `json:"duration_minutes"`
	Location        string    `json:"location"`
	Notes           string    `json:"notes"`
}

// UpdateScheduleRequest payload.
type UpdateScheduleRequest struct {
	StartsAt        time.Time             `json:"starts_at"`
	DurationMinutes int                   `json:"duration_minutes"`
	Location        string                `json:"location"`
	Notes           string                `json:"notes"`
	Status          domain.ScheduleStatus `json:"status"`
}

// ScheduleResponse response.
type ScheduleResponse struct {
	ID              string                `json:"id"`
	TenantID        string                `json:"tenant_id"`
	StudentID       string                `json:"student_id"`
	StartsAt        time.Time             `json:"starts_at"`
	DurationMinutes int                   `json:"duration_minutes"`
	Location        string                `json:"location"`
	Notes           string                `json:"notes"`
	Status          domain.ScheduleStatus `json:"status"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
}
