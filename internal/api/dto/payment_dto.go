package dto

import (
	"time"

	"github.com/spec-kit/trainer-service/internal/domain"
)

// CreatePaymentRequest payload.
type CreatePaymentRequest struct {
	StudentID   *string            `json:"student_id"`
	AmountCents int64              `json:"amount_cents"`
	PaidOn      time.Time          `json:"paid_on"`
	Kind        domain.PaymentKind `json:"kind"`
	Description string             `json:"description"`
}

// PaymentResponse response.
type PaymentResponse struct {
	ID          string             `json:"id"`
	TenantID    string             `json:"tenant_id"`
	StudentID   *string            `json:"student_id"`
	AmountCents int64              `json:"amount_cents"`
	PaidOn      time.Time          `json:"paid_on"`
	Kind        domain.PaymentKind `json:"kind"`
	Description string             `json:"description"`
	CreatedAt   time.Time          `json:"created_at"`
}

// CreateProgressRequest payload.
type CreateProgressRequest struct {
	RecordedOn   time.Time          `json:"recorded_on"`
	WeightKg     *float64           `json:"weight_kg"`
	Measurements map[string]float64 `json:"measurements"`
	Notes        string             `json:"notes"`
}

// ProgressResponse response.
type ProgressResponse struct {
	ID           string             `json:"id"`
	StudentID    string             `json:"student_id"`
	RecordedOn   time.Time          `json:"recorded_on"`
	WeightKg     *float64           `json:"weight_kg"`
	Measurements map[string]float64 `json:"measurements"`
	Notes        string             `json:"notes"`
	CreatedAt    time.Time          `json:"created_at"`
}
