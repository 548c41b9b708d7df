package availability

import "errors"

var (
	// ErrNotFound is returned when no availability exists for the given id
	// or (tour, date) pair.
	ErrNotFound = errors.New("availability not found")

	// ErrNotAvailable is returned when the record exists but cannot take
	// bookings: blocked/maintenance type or is_available unset.
	ErrNotAvailable = errors.New("availability is not open for booking")

	// ErrInsufficientCapacity is returned when the conditional reserve
	// found fewer spots than requested. The condition may persist, so
	// callers surface it instead of retrying.
	ErrInsufficientCapacity = errors.New("not enough available spots")

	// ErrSlotUnavailable is returned when a targeted time slot is full,
	// closed, or the slot index does not exist.
	ErrSlotUnavailable = errors.New("time slot is not available")

	// ErrDuplicateDate is returned when a provider publishes a second
	// availability for the same (tour, date) pair.
	ErrDuplicateDate = errors.New("availability already exists for this date")
)
