package models

import "errors"

// Custom errors
var (
	ErrNotFound        = errors.New("record not found")
	ErrDuplicateKey    = errors.New("duplicate competitor key")
	ErrMissingKey      = errors.New("competitor key is required")
	ErrInvalidCost     = errors.New("competitor cost must be a positive integer")
	ErrUnknownCategory = errors.New("unknown competitor category")
	ErrInvalidSignal   = errors.New("invalid signal value")
	ErrInvalidOdds     = errors.New("invalid odds")
	ErrEmptyPool       = errors.New("competitor pool is empty")
)
