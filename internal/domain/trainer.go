package domain

import "time"

// Trainer is a personal-trainer profile. Its id is the tenant id: every
// tenant-owned record carries it, set at creation and never mutated.
type Trainer struct {
	ID          string
	PrincipalID string
	Phone       string
	Specialty   string
	Bio         string
	CreatedAt   time.Time
}
