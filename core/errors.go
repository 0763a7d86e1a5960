package core

import "errors"

var (
	ErrConflict     = errors.New("conflicting state")
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
)
