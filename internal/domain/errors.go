package domain

import "errors"

// Sentinel errors for the domain layer.
var (
	ErrNotFound     = errors.New("domain: not found")
	ErrConflict     = errors.New("domain: conflict")
	ErrUnauthorized = errors.New("domain: unauthorized")
	ErrForbidden    = errors.New("domain: forbidden")
	ErrValidation   = errors.New("domain: validation failed")
)

// AccessError is a visibility denial that presents as ErrNotFound to callers.
// An unauthorized caller must not be able to tell a project they cannot see
// apart from a project that does not exist, so the two are indistinguishable
// on the wire; the Reason field keeps the distinction for logs.
type AccessError struct {
	Reason string
}

func (e *AccessError) Error() string {
	return "domain: access denied: " + e.Reason
}

func (e *AccessError) Unwrap() error {
	return ErrNotFound
}

// AccessDenied builds an AccessError with the given internal reason.
func AccessDenied(reason string) error {
	return &AccessError{Reason: reason}
}
