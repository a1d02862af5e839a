package domain

import "errors"

var (
	// ErrNotFound means the referenced session or user does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNotOwner means the operation targeted a session owned by another
	// user. Reported to the caller as a generic failure, logged as a
	// potential misuse signal.
	ErrNotOwner = errors.New("not owner")
)
