package payment

import "errors"

var (
	ErrValidation      = errors.New("validation error")
	ErrBookingNotFound = errors.New("booking not found")
	ErrNotFound        = errors.New("not found")
)
