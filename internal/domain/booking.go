package domain

import "time"

// Booking is a confirmed seat purchase for one passenger on one flight.
// FlightReference is the business flight id (e.g. "FL123"), never the
// inventory store's internal id.
type Booking struct {
	ID                 int64     `json:"id"`
	FlightReference    string    `json:"flight_id"`
	PassengerReference string    `json:"passenger_id"`
	PassengerFirstName string    `json:"passenger_firstname"`
	PassengerLastName  string    `json:"passenger_lastname"`
	TicketCount        int       `json:"ticket_count"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func (b *Booking) PassengerName() string {
	switch {
	case b.PassengerFirstName == "":
		return b.PassengerLastName
	case b.PassengerLastName == "":
		return b.PassengerFirstName
	default:
		return b.PassengerFirstName + " " + b.PassengerLastName
	}
}
