package dto

import "time"

// CreateStudentRequest payload. TenantID is honored for admins only.
type CreateStudentRequest struct {
	TenantID        string     `json:"tenant_id"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	Phone           string     `json:"phone"`
	BirthDate       *time.Time `json:"birth_date"`
	Goal            string     `json:"goal"`
	DefaultLocation string     `json:"default_location"`
}

// UpdateStudentRequest payload.
type UpdateStudentRequest struct {
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	Phone           string     `json:"phone"`
	BirthDate       *time.Time `json:"birth_date"`
	Goal            string     `json:"goal"`
	DefaultLocation string     `json:"default_location"`
}

// StudentResponse response.
type StudentResponse struct {
	ID              string     `json:"id"`
	TenantID        string     `json:"tenant_id"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	Phone           string     `json:"phone"`
	BirthDate       *time.Time `json:"birth_date"`
	Goal            string     `json:"goal"`
	DefaultLocation string     `json:"default_location"`
	Active          bool       `json:"active"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// StudentStatsResponse response.
type StudentStatsResponse struct {
	Total        int64 `json:"total"`
	Active       int64 `json:"active"`
	Inactive     int64 `json:"inactive"`
	NewThisMonth int64 `json:"new_this_month"`
}
