package models

import "errors"

// Model validation errors
var (
	ErrInvalidID      = errors.New("invalid ID")
	ErrInvalidOutcome = errors.New("invalid delivery outcome")
	ErrInvalidCount   = errors.New("counts must not be negative")
)
