package availability

import "errors"

var (
	// ErrInvalidRange is returned when a query window is inverted or larger
	// than the configured maximum.
	ErrInvalidRange = errors.New("availability: invalid range")

	// ErrNotFound is returned for unknown services, locations or staff.
	ErrNotFound = errors.New("availability: not found")

	// ErrUpstreamUnavailable is returned when a collaborator store fails.
	ErrUpstreamUnavailable = errors.New("availability: upstream unavailable")
)
