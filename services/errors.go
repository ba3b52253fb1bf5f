package services

import "errors"

// Error kinds returned by the matchmaking core. Callers match with errors.Is;
// every returned error wraps exactly one of these.
var (
	// ErrNotFound: unknown user, pairing or session id.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists: duplicate creation where the policy forbids it.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidPairing: self-pairing or double-booking a user.
	ErrInvalidPairing = errors.New("invalid pairing")

	// ErrInvalidState: transition not allowed from the current state,
	// e.g. completing a pairing that was already completed or cancelled.
	ErrInvalidState = errors.New("invalid state")

	// ErrInvalidInput: blank or malformed arguments.
	ErrInvalidInput = errors.New("invalid input")
)
