package common

import "errors"

// Core error taxonomy. Handlers map these onto status codes; everything else
// is a server error.
var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
	ErrInvalid  = errors.New("invalid request")
)
