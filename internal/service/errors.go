package service

import "fmt"

// NotFoundError is returned when a requested resource does not exist.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.ID)
}

// ValidationError is returned when request data fails validation.
type ValidationError struct {
	Field   string
	Message string
	// Fields holds per-field messages when more than one field failed.
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error for %q: %s", e.Field, e.Message)
	}
	return e.Message
}

// UnavailableError is returned when the service cannot accept work, for
// example while shutting down.
type UnavailableError struct {
	Reason string
}

func (e *UnavailableError) Error() string {
	return "service unavailable: " + e.Reason
}
