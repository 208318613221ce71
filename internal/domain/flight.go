package domain

import "time"

// Flight is an inventory record. The JSON names are the ledger's wire format.
type Flight struct {
	ID              string    `json:"Id"`
	FlightReference string    `json:"FlightId"`
	AirlineName     string    `json:"AirlineName"`
	Source          string    `json:"Source"`
	Destination     string    `json:"Destination"`
	DepartureTime   time.Time `json:"Departure_Time"`
	ArrivalTime     time.Time `json:"Arrival_Time"`
	AvailableSeats  int       `json:"Available_Seats"`
	CreatedAt       time.Time `json:"Created_At"`
	UpdatedAt       time.Time `json:"Updated_At"`
}
