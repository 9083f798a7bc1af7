package domain

import "errors"

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidLine indicates a cart line that cannot be stored.
	ErrInvalidLine = errors.New("invalid cart line")
)
