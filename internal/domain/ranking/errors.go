package ranking

import "errors"

var (
	ErrGroupNotFound = errors.New("group not found")
	ErrGroupExists   = errors.New("group name or rank already taken")
	ErrUnknownGroup  = errors.New("unknown group id")
	ErrInvalidGroup  = errors.New("group name must not be empty and rank must be positive")
)
