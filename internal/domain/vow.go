package domain

import "time"

// VowType classifies a vow by horizon.
type VowType string

const (
	VowTypeMajor VowType = "major"
	VowTypeMinor VowType = "minor"
)

// Vow is a long-horizon commitment with a target date. StartDate is set once
// at creation and never mutated.
type Vow struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Type        VowType   `json:"type"`
	Date        time.Time `json:"date"`
	StartDate   time.Time `json:"startDate"`
}

// Progression is an incremental step toward a vow. CompletedDate is nil while
// the step is pending and set when it is archived.
type Progression struct {
	ID            string     `json:"id"`
	Text          string     `json:"text"`
	CompletedDate *time.Time `json:"completedDate,omitempty"`
}
