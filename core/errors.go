package core

import "errors"

// Sentinel errors for the command protocol. The HTTP layer maps these to
// status codes and error tags; everything else is treated as internal.
var (
	ErrUnauthorized      = errors.New("unauthorized")
	ErrCannotRemoveOwner = errors.New("cannot remove canvas owner")
	ErrNotFound          = errors.New("canvas not found")
	ErrOutOfBounds       = errors.New("point out of canvas bounds")
)
