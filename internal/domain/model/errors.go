package model

import "errors"

// Persistence errors shared by every store implementation.
var (
	ErrNotFound   = errors.New("record not found")
	ErrConflict   = errors.New("record conflicts with an existing one")
	ErrConstraint = errors.New("constraint violation")
)
