package pesapal

import (
	"errors"
	"fmt"
)

var (
	ErrAuth             = errors.New("pesapal: authentication failed")
	ErrGateway          = errors.New("pesapal: gateway error")
	ErrNoRedirectTarget = errors.New("pesapal: response has no redirect or embed url")
)

// AuthError is returned once every token endpoint candidate has failed.
// Status and Body describe the last response seen.
type AuthError struct {
	Status   int
	Body     string
	Attempts int
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("pesapal: no token after %d attempts (last status %d): %s", e.Attempts, e.Status, e.Body)
}

func (e *AuthError) Is(target error) bool { return target == ErrAuth }

// GatewayError describes a failed transaction call.
type GatewayError struct {
	Op     string
	Status int
	Body   string
	Err    error
}

func (e *GatewayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("pesapal %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("pesapal %s: status %d: %s", e.Op, e.Status, e.Body)
}

func (e *GatewayError) Unwrap() error { return e.Err }

func (e *GatewayError) Is(target error) bool { return target == ErrGateway }
