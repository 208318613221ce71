package repository

import (
	"context"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"github.com/nelonissle/kubernetes-bookingsystem/internal/domain"
)

// FlightRepository is the Inventory Ledger's backing store.
type FlightRepository interface {
	List(ctx context.Context) ([]domain.Flight, error)
	GetByFlightReference(ctx context.Context, flightRef string) (*domain.Flight, error)
	Create(ctx context.Context, flight *domain.Flight) error
	// DecrementSeats subtracts count in one conditional write. The row is left
	// untouched unless available_seats >= count at the moment of the write.
	DecrementSeats(ctx context.Context, flightRef string, count int, now time.Time) (*domain.Flight, error)
}

type PGFlightRepository struct {
	db DB
}

func NewFlightRepository(db DB) FlightRepository {
	return &PGFlightRepository{db: db}
}

const flightColumns = `id, flight_ref, airline_name, source, destination, departure_time, arrival_time, available_seats, created_at, updated_at`

func scanFlight(row pgx.Row) (*domain.Flight, error) {
	var (
		f  domain.Flight
		id int64
	)
	if err := row.Scan(&id, &f.FlightReference, &f.AirlineName, &f.Source, &f.Destination, &f.DepartureTime, &f.ArrivalTime, &f.AvailableSeats, &f.CreatedAt, &f.UpdatedAt); err != nil {
		return nil, err
	}
	f.ID = strconv.FormatInt(id, 10)
	return &f, nil
}

func (r *PGFlightRepository) List(ctx context.Context) ([]domain.Flight, error) {
	rows, err := r.db.Query(ctx, `SELECT `+flightColumns+` FROM flights ORDER BY departure_time`)
	if err != nil {
		return nil, errors.Wrap(err, "list flights")
	}
	defer rows.Close()

	flights := make([]domain.Flight, 0)
	for rows.Next() {
		f, err := scanFlight(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan flight")
		}
		flights = append(flights, *f)
	}
	return flights, rows.Err()
}

func (r *PGFlightRepository) GetByFlightReference(ctx context.Context, flightRef string) (*domain.Flight, error) {
	f, err := scanFlight(r.db.QueryRow(ctx, `SELECT `+flightColumns+` FROM flights WHERE flight_ref=$1`, flightRef))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrFlightNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "get flight")
	}
	return f, nil
}

func (r *PGFlightRepository) Create(ctx context.Context, flight *domain.Flight) error {
	var id int64
	err := r.db.QueryRow(ctx, `INSERT INTO flights (flight_ref, airline_name, source, destination, departure_time, arrival_time, available_seats, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`,
		flight.FlightReference, flight.AirlineName, flight.Source, flight.Destination,
		flight.DepartureTime, flight.ArrivalTime, flight.AvailableSeats, flight.CreatedAt, flight.UpdatedAt).
		Scan(&id)
	if isUniqueViolation(err) {
		return domain.ErrDuplicateFlight
	}
	if err != nil {
		return errors.Wrap(err, "insert flight")
	}
	flight.ID = strconv.FormatInt(id, 10)
	return nil
}

func (r *PGFlightRepository) DecrementSeats(ctx context.Context, flightRef string, count int, now time.Time) (*domain.Flight, error) {
	f, err := scanFlight(r.db.QueryRow(ctx, `UPDATE flights SET available_seats = available_seats - $2, updated_at = $3
		WHERE flight_ref=$1 AND available_seats >= $2
		RETURNING `+flightColumns, flightRef, count, now))
	if err == nil {
		return f, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, errors.Wrap(err, "decrement seats")
	}

	// Nothing matched: either the flight is unknown or it is short on seats.
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM flights WHERE flight_ref=$1)`, flightRef).Scan(&exists); err != nil {
		return nil, errors.Wrap(err, "check flight exists")
	}
	if !exists {
		return nil, domain.ErrFlightNotFound
	}
	return nil, domain.ErrInsufficientSeats
}

var _ FlightRepository = (*PGFlightRepository)(nil)
