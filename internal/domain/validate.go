package domain

import (
	"fmt"
	"time"
)

// Rating bounds enforced by the entry form. The detail screen renders the
// value as "<rating>/10", which disagrees with this range; the form check is
// what actually gates writes, so it is the authoritative rule here.
const (
	MinRating = -1000
	MaxRating = 1000
)

// VowWindow is the threshold used for both the major-vow lower bound and the
// minor-vow upper bound. The two bounds being the same value is carried over
// from the entry form as-is.
const VowWindow = 2 // months

// ValidationError is raised before any remote call for malformed input. The
// message is meant for direct user display.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func newValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// ValidateExpense checks an expense before it is sent to the backend.
func ValidateExpense(e Expense) error {
	if e.Rating < MinRating || e.Rating > MaxRating {
		return newValidationError("rating", "Rating must be a number between %d and %d.", MinRating, MaxRating)
	}
	if e.Date.IsZero() {
		return newValidationError("date", "A date is required.")
	}
	return nil
}

// ValidateVow checks a vow before it is sent to the backend. now is the
// reference instant for the date-window rules.
func ValidateVow(v Vow, now time.Time) error {
	if v.Title == "" {
		return newValidationError("title", "A title is required.")
	}
	if v.Type != VowTypeMajor && v.Type != VowTypeMinor {
		return newValidationError("type", "Vow type must be major or minor.")
	}
	if v.Date.IsZero() {
		return newValidationError("date", "A target date is required.")
	}
	if v.Date.Before(now) {
		return newValidationError("date", "The target date cannot be in the past.")
	}
	window := now.AddDate(0, VowWindow, 0)
	if v.Type == VowTypeMajor && v.Date.Before(window) {
		return newValidationError("date", "Major vows must be set at least 2 months in the future.")
	}
	if v.Type == VowTypeMinor && v.Date.After(window) {
		return newValidationError("date", "Minor vows must be set no more than 2 months in the future.")
	}
	return nil
}
