package domain

import "fmt"

// NotificationMessage lives only on the queue between enqueue and hand-off
// to the delivery sender.
type NotificationMessage struct {
	BookingID          int64
	FlightReference    string
	PassengerReference string
	PassengerName      string
	TicketCount        int
}

func NewNotificationMessage(b *Booking) NotificationMessage {
	return NotificationMessage{
		BookingID:          b.ID,
		FlightReference:    b.FlightReference,
		PassengerReference: b.PassengerReference,
		PassengerName:      b.PassengerName(),
		TicketCount:        b.TicketCount,
	}
}

// Text is the free-text confirmation carried as the queue payload.
func (m NotificationMessage) Text() string {
	return fmt.Sprintf("Your booking for flight %s is confirmed. Booking ID: %d.", m.FlightReference, m.BookingID)
}

// Header keys carrying the structured fields next to the free-text body.
const (
	HeaderBookingID          = "booking_id"
	HeaderFlightReference    = "flight_reference"
	HeaderPassengerReference = "passenger_reference"
	HeaderPassengerName      = "passenger_name"
	HeaderTicketCount        = "ticket_count"
)
