package services

import "errors"

// Shared service-level errors. Handlers map these to HTTP status codes:
// ErrNotFound covers both missing rows and wrong-state preconditions
// (including a lost conditional-update race), ErrForbidden covers a valid
// caller attempting an action reserved for a different actor.
var (
	ErrNotFound      = errors.New("not found")
	ErrForbidden     = errors.New("forbidden")
	ErrAlreadyExists = errors.New("already exists")
)
