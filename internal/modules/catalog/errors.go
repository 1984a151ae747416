package catalog

import "errors"

var (
	ErrNotFound   = errors.New("catalog item not found")
	ErrValidation = errors.New("validation error")
	ErrConflict   = errors.New("catalog id already in use")
)

// ValidationError carries per-field failures; it matches ErrValidation.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string { return "invalid catalog item" }

func (e *ValidationError) Unwrap() error { return ErrValidation }
