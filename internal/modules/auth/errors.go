package auth

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrAccountInactive    = errors.New("account inactive")
	ErrValidation         = errors.New("validation error")
	ErrNotFound           = errors.New("user not found")
)
