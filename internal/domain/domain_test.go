package domain

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestBooking_PassengerName(t *testing.T) {
	assert.Equal(t, "Ada Lovelace", (&Booking{PassengerFirstName: "Ada", PassengerLastName: "Lovelace"}).PassengerName())
	assert.Equal(t, "Ada", (&Booking{PassengerFirstName: "Ada"}).PassengerName())
	assert.Equal(t, "Lovelace", (&Booking{PassengerLastName: "Lovelace"}).PassengerName())
}

func TestNewNotificationMessage(t *testing.T) {
	msg := NewNotificationMessage(&Booking{ID: 7, FlightReference: "FL123", PassengerReference: "P001", PassengerFirstName: "Ada", PassengerLastName: "Lovelace", TicketCount: 2})

	assert.Equal(t, NotificationMessage{BookingID: 7, FlightReference: "FL123", PassengerReference: "P001", PassengerName: "Ada Lovelace", TicketCount: 2}, msg)
	assert.Equal(t, "Your booking for flight FL123 is confirmed. Booking ID: 7.", msg.Text())
}

func TestErrorKindsSurviveWrapping(t *testing.T) {
	err := errors.Wrap(errors.Wrap(ErrInsufficientSeats, "requested 99"), "decrement")

	assert.True(t, errors.Is(err, ErrInsufficientSeats))
	assert.False(t, errors.Is(err, ErrReservationFailed))
}
