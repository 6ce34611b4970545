package dto

import "time"

// ExercisePayload is one ordered entry in a sheet request or response.
type ExercisePayload struct {
	Name            string `json:"name"`
	Description     string `json:"description"`
	DurationSeconds int    `json:"duration_seconds"`
	RestSeconds     int    `json:"rest_seconds"`
}

// TrainingSheetRequest payload. A null student_id creates a template.
type TrainingSheetRequest struct {
	StudentID   *string           `json:"student_id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Active      bool              `json:"active"`
	Exercises   []ExercisePayload `json:"exercises"`
}

// ExerciseResponse response.
type ExerciseResponse struct {
	ID              string `json:"id"`
	Position        int    `json:"position"`
	Name            string `json:"name"`
	Description     string `json:"description"`
	DurationSeconds int    `json:"duration_seconds"`
	RestSeconds     int    `json:"rest_seconds"`
}

// TrainingSheetResponse response.
type TrainingSheetResponse struct {
	ID          string             `json:"id"`
	TenantID    string             `json:"tenant_id"`
	StudentID   *string            `json:"student_id"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Active      bool               `json:"active"`
	Exercises   []ExerciseResponse `json:"exercises"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}
