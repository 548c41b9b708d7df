package bookings

import "errors"

var (
	// ErrNotFound is returned when the booking does not exist.
	ErrNotFound = errors.New("booking not found")

	// ErrInvalidTransition is returned when a lifecycle operation is
	// requested from a state that does not allow it.
	ErrInvalidTransition = errors.New("invalid booking status transition")

	// ErrNotOwner is returned when a traveler acts on somebody else's
	// booking.
	ErrNotOwner = errors.New("booking does not belong to user")

	// ErrReferenceCollision is returned when every regeneration attempt
	// collided with an existing booking reference. Callers see it as a
	// server error; it is recovered internally by bounded retry first.
	ErrReferenceCollision = errors.New("could not generate unique booking reference")
)
