package domain

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidSchedule = errors.New("invalid booking schedule")
	ErrNoSession       = errors.New("no active session")
	ErrNotCancellable  = errors.New("booking cannot be cancelled")
	ErrUnknownVenue    = errors.New("unknown venue")
)
