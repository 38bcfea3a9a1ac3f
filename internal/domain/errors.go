package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors used across layers.
var (
	ErrNotFound      = errors.New("not found")
	ErrNoToken       = errors.New("no auth token stored")
	ErrUnauthorized  = errors.New("not logged in")
	ErrNotConfigured = errors.New("not configured")
)

// FieldError reports a failed local presence check.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}
