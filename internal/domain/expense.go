package domain

import "time"

// Expense is a rated activity log entry. Workouts live under a separate
// keyspace on the backend and are loaded lazily, so they are never part of
// the expense wire payload.
type Expense struct {
	ID          string    `json:"id"`
	Rating      float64   `json:"rating"`
	Date        time.Time `json:"date"`
	Description string    `json:"description"`
	Workouts    []Workout `json:"workouts,omitempty"`
}

// ExpensePatch carries a partial expense update. Nil fields are left
// untouched by Apply.
type ExpensePatch struct {
	Rating      *float64
	Date        *time.Time
	Description *string
}

// Apply returns a copy of e with the non-nil patch fields merged in.
func (p ExpensePatch) Apply(e Expense) Expense {
	if p.Rating != nil {
		e.Rating = *p.Rating
	}
	if p.Date != nil {
		e.Date = *p.Date
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	return e
}

// Workout is a sub-record of an Expense. An empty ID marks a workout that
// has not been persisted yet.
type Workout struct {
	ID   string       `json:"id"`
	Name string       `json:"name"`
	Reps string       `json:"reps"`
	RPE  string       `json:"rpe"`
	Sets []WorkoutSet `json:"sets,omitempty"`
}

// WorkoutSet is wholly owned by its Workout and has no identity of its own.
type WorkoutSet struct {
	Reps string `json:"reps"`
	RPE  string `json:"rpe"`
}
