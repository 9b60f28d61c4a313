package profiles

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrTooManyRoles = errors.New("too many roles")
	ErrInvalidRole  = errors.New("invalid role")
	ErrInvalidKey   = errors.New("invalid api key")
)
