package booking

import "errors"

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("booking not found")
	ErrForbidden  = errors.New("not allowed to access this booking")
	ErrConflict   = errors.New("invalid status transition")

	ErrNotifyUnavailable = errors.New("notification queue unavailable")
)

// ValidationError carries per-field failures; it matches ErrValidation.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(message string, fields map[string]string) error {
	return &ValidationError{Message: message, Fields: fields}
}
