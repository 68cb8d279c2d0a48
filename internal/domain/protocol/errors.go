package protocol

import "errors"

var (
	ErrNotFound       = errors.New("protocol not found")
	ErrMissingName    = errors.New("protocol name is required")
	ErrEmptyStageName = errors.New("protocol stage name is required")
	ErrNegativeOffset = errors.New("due offset must not be negative")
)
