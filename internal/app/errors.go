package app

import (
	"fmt"
	"net/http"
)

// DomainError is a mutation outcome carried as data rather than a fault.
// Status is the HTTP status the edge will emit, Code discriminates the
// outcome for clients, and Message is shown to the author verbatim.
type DomainError struct {
	Status  int
	Code    string
	Message string
	Details any
}

func (e *DomainError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func domainError(status int, code, message string) *DomainError {
	return &DomainError{
		Status:  status,
		Code:    code,
		Message: message,
	}
}

// validationError reports a guard failure re-checked at the gateway; the
// composing client runs the same guards first, so hitting one here means a
// client bypassed them.
func validationError(message string) *DomainError {
	return domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", message)
}

// slugConflict reports a second entry submitted for an already-written day.
func slugConflict() *DomainError {
	return domainError(http.StatusConflict, "SLUG_EXISTS", "That slug already exists.")
}

// entryNotFound reports a read or mutation against a slug with no row.
func entryNotFound() *DomainError {
	return domainError(http.StatusNotFound, "NOT_FOUND", "Blog entry not found.")
}

// unavailable reports an optional subsystem that is not configured or not
// installed on this deployment.
func unavailable(code, message string) *DomainError {
	return domainError(http.StatusServiceUnavailable, code, message)
}
