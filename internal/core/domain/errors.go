package domain

import "errors"

// Decode errors returned by the coordinate codec.
var (
	// ErrUnrecognizedFormat means the raw value matched none of the three
	// encodings observed at the persistence boundary.
	ErrUnrecognizedFormat = errors.New("geography: unrecognized format")

	// ErrOutOfRange means a decoded coordinate violates the WGS 84 envelope.
	ErrOutOfRange = errors.New("geography: coordinates out of range")
)

// Device location provider errors. The acquisition controller maps these
// onto FailureReason values; anything else maps to ReasonUnavailable.
var (
	ErrPermissionDenied    = errors.New("geolocation: permission denied")
	ErrPositionUnavailable = errors.New("geolocation: position unavailable")
	ErrPositionTimeout     = errors.New("geolocation: request timed out")
)

// Save and lookup errors.
var (
	// ErrNotPersisted is returned when an update reports success but
	// affects zero rows. The backing store does this for writes that are
	// silently rejected, e.g. a permission-scoped update that matches no
	// rows, so it must never be treated as success.
	ErrNotPersisted = errors.New("listing update affected no rows")

	ErrNotFound = errors.New("not found")
)

// FailureFor maps a provider error onto an acquisition failure reason.
func FailureFor(err error) FailureReason {
	switch {
	case errors.Is(err, ErrPermissionDenied):
		return ReasonPermissionDenied
	case errors.Is(err, ErrPositionTimeout):
		return ReasonTimeout
	default:
		return ReasonUnavailable
	}
}
