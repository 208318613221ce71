package repository

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/nelonissle/kubernetes-bookingsystem/internal/domain"
)

// DemoFlights is the inventory written by SeedFlights. Departures are placed
// a month after now so the flights stay bookable.
func DemoFlights(now time.Time) []domain.Flight {
	day := now.UTC().Truncate(24*time.Hour).AddDate(0, 1, 0)
	return []domain.Flight{
		{
			FlightReference: "FL123",
			AirlineName:     "Sky Airlines",
			Source:          "New York",
			Destination:     "Los Angeles",
			DepartureTime:   day.Add(10 * time.Hour),
			ArrivalTime:     day.Add(14 * time.Hour),
			AvailableSeats:  150,
		},
		{
			FlightReference: "FL456",
			AirlineName:     "Oceanic Airlines",
			Source:          "San Francisco",
			Destination:     "Chicago",
			DepartureTime:   day.AddDate(0, 0, 10).Add(8 * time.Hour),
			ArrivalTime:     day.AddDate(0, 0, 10).Add(12 * time.Hour),
			AvailableSeats:  200,
		},
	}
}

func DemoBookings() []domain.Booking {
	return []domain.Booking{
		{FlightReference: "FL199", PassengerReference: "P001", PassengerFirstName: "John", PassengerLastName: "Doe", TicketCount: 2},
		{FlightReference: "FL199", PassengerReference: "P002", PassengerFirstName: "Jane", PassengerLastName: "Smith", TicketCount: 1},
	}
}

// SeedFlights writes DemoFlights into an empty ledger and returns how many
// flights it created. A ledger holding any flight is left alone.
func SeedFlights(ctx context.Context, repo FlightRepository, now time.Time) (int, error) {
	existing, err := repo.List(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "list flights before seeding")
	}
	if len(existing) > 0 {
		return 0, nil
	}

	created := 0
	for _, f := range DemoFlights(now) {
		f.CreatedAt, f.UpdatedAt = now.UTC(), now.UTC()
		if err := repo.Create(ctx, &f); err != nil {
			if errors.Is(err, domain.ErrDuplicateFlight) {
				continue
			}
			return created, errors.Wrapf(err, "seed flight %s", f.FlightReference)
		}
		created++
	}
	return created, nil
}

// SeedBookings writes DemoBookings into an empty booking store.
func SeedBookings(ctx context.Context, repo BookingRepository, now time.Time) (int, error) {
	existing, err := repo.List(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "list bookings before seeding")
	}
	if len(existing) > 0 {
		return 0, nil
	}

	created := 0
	for _, b := range DemoBookings() {
		b.CreatedAt, b.UpdatedAt = now.UTC(), now.UTC()
		if err := repo.Insert(ctx, &b); err != nil {
			if errors.Is(err, domain.ErrDuplicateBooking) {
				continue
			}
			return created, errors.Wrapf(err, "seed booking %s/%s", b.FlightReference, b.PassengerReference)
		}
		created++
	}
	return created, nil
}
