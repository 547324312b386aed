package postgres

import "github.com/pkg/errors"

// ErrNotFound is used when a specific row is requested but does not exist.
var ErrNotFound = errors.New("row not found")

// ErrInvalidTransition is used when an orchestration operation is requested
// from a state it cannot legally leave.
var ErrInvalidTransition = errors.New("invalid status transition")
