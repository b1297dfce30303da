package packing

import "errors"

var (
	// ErrInvalidDimension is returned when a carton or product dimension is not a positive
	// finite number, or the divider thickness is negative.
	ErrInvalidDimension = errors.New("invalid dimension")
	// ErrUnknownOrientation is returned when parsing an orientation label fails.
	ErrUnknownOrientation = errors.New("unknown orientation")
)
