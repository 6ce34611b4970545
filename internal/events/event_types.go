package events

import (
	"time"

	"github.com/spec-kit/trainer-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventPrincipalProvisioned EventType = "principal_provisioned"
	EventPrincipalDeactivated EventType = "principal_deactivated"
	EventAccessDenied         EventType = "access_denied"
	EventScheduleCreated      EventType = "schedule_created"
)

// Event represents a domain event emitted by services and middleware.
type Event struct {
	ID          string      `json:"id"`
	Type        EventType   `json:"type"`
	PrincipalID string      `json:"principal_id,omitempty"`
	Timestamp   time.Time   `json:"timestamp"`
	Payload     interface{} `json:"payload"`
}

// PrincipalLifecyclePayload payload.
type PrincipalLifecyclePayload struct {
	Role     domain.Role `json:"role"`
	TenantID *string     `json:"tenant_id,omitempty"`
}

// AccessDeniedPayload payload. Code carries the denial taxonomy kind so the
// audit trail can distinguish a cross-tenant probe from an expired credential.
type AccessDeniedPayload struct {
	Code   string `json:"code"`
	Path   string `json:"path"`
	Method string `json:"method"`
}

// ScheduleCreatedPayload payload.
type ScheduleCreatedPayload struct {
	ScheduleID string    `json:"schedule_id"`
	TenantID   string    `json:"tenant_id"`
	StudentID  string    `json:"student_id"`
	StartsAt   time.Time `json:"starts_at"`
}
