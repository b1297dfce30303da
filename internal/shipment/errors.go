package shipment

import "errors"

var (
	// ErrInvalidOrder is returned when the order quantity is not positive or too large to plan.
	ErrInvalidOrder = errors.New("order quantity must be between 1 and 500000 units")
	// ErrNoCandidates is returned when no carton can hold the product.
	ErrNoCandidates = errors.New("no carton can hold the product")
	// ErrInvalidCandidate is returned when a candidate has no name, no capacity or a negative cost.
	ErrInvalidCandidate = errors.New("candidates need a unique name, positive capacity and non-negative cost")
)
