package registrations

import "errors"

var (
	// ErrTourNotFound is returned when the custom tour does not exist.
	ErrTourNotFound = errors.New("custom tour not found")

	// ErrRegistrationNotFound is returned when the registration does not
	// exist.
	ErrRegistrationNotFound = errors.New("registration not found")

	// ErrNoSpotsRemaining is returned when approval loses the race for the
	// tour's last remaining spot.
	ErrNoSpotsRemaining = errors.New("no spots remaining on tour")

	// ErrAlreadyRegistered is returned when the traveler already has a
	// registration for this tour.
	ErrAlreadyRegistered = errors.New("already registered for this tour")

	// ErrInvalidStatusChange is returned when the requested decision is not
	// legal from the registration's current status.
	ErrInvalidStatusChange = errors.New("invalid registration status change")

	// ErrNotTourOwner is returned when a provider tries to decide a
	// registration on another provider's tour.
	ErrNotTourOwner = errors.New("tour belongs to another provider")
)
