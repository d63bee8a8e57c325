package compost

import "errors"

var (
	// ErrInvalidCapacity is returned when a unit is created with capacity <= 0.
	ErrInvalidCapacity = errors.New("capacity must be greater than zero")

	// ErrMissingMeasurement is returned when a computation needs a field that is null.
	ErrMissingMeasurement = errors.New("missing measurement")

	// ErrNotFound is returned when a lookup by id or owner fails.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateSkipped signals that a reading was not inserted because another reading
	// exists close to the same time. It is a no-op signal, not a failure.
	ErrDuplicateSkipped = errors.New("duplicate reading skipped")

	// ErrCapacityExceeded is returned when adding material would overflow a unit.
	ErrCapacityExceeded = errors.New("capacity exceeded")

	// ErrAlreadyExists is returned when a write collides with a unique key.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput is returned for malformed arguments to derived-state functions.
	ErrInvalidInput = errors.New("invalid input")
)
