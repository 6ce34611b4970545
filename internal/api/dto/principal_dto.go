package dto

import (
	"time"

	"github.com/spec-kit/trainer-service/internal/domain"
)

// ProvisionPrincipalRequest payload.
type ProvisionPrincipalRequest struct {
	ExternalSubjectID string      `json:"external_subject_id"`
	Email             string      `json:"email"`
	Name              string      `json:"name"`
	Role              domain.Role `json:"role"`
	TenantID          *string     `json:"tenant_id"`
}

// CreateTrainerRequest payload.
type CreateTrainerRequest struct {
	PrincipalID string `json:"principal_id"`
	Phone       string `json:"phone"`
	Specialty   string `json:"specialty"`
	Bio         string `json:"bio"`
}

// PrincipalResponse response.
type PrincipalResponse struct {
	ID                string      `json:"id"`
	ExternalSubjectID string      `json:"external_subject_id"`
	Email             string      `json:"email"`
	Name              string      `json:"name"`
	Role              domain.Role `json:"role"`
	TenantID          *string     `json:"tenant_id"`
	Active            bool        `json:"active"`
	CreatedAt         time.Time   `json:"created_at"`
}

// TrainerResponse response.
type TrainerResponse struct {
	ID          string    `json:"id"`
	PrincipalID string    `json:"principal_id"`
	Phone       string    `json:"phone"`
	Specialty   string    `json:"specialty"`
	Bio         string    `json:"bio"`
	CreatedAt   time.Time `json:"created_at"`
}

// SessionResponse response. The token is opaque; clients store it verbatim.
type SessionResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}
