package domain

import "github.com/pkg/errors"

// Error kinds. Callers classify with errors.Is; wrapped messages add detail.
var (
	ErrValidation              = errors.New("validation failed")
	ErrDuplicateBooking        = errors.New("duplicate booking is not allowed")
	ErrAvailabilityCheckFailed = errors.New("seat availability check failed")
	ErrInsufficientSeats       = errors.New("not enough seats available")
	ErrPersistence             = errors.New("booking store unavailable")
	ErrReservationFailed       = errors.New("seat reservation failed")
	ErrNotificationFailed      = errors.New("notification enqueue failed")

	ErrFlightNotFound  = errors.New("flight not found")
	ErrBookingNotFound = errors.New("booking not found")
	ErrDuplicateFlight = errors.New("flight already exists")
)
