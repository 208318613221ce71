package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"github.com/nelonissle/kubernetes-bookingsystem/internal/domain"
)

type BookingRepository interface {
	// FindByFlightAndPassenger returns nil, nil when no booking exists.
	FindByFlightAndPassenger(ctx context.Context, flightRef, passengerRef string) (*domain.Booking, error)
	Insert(ctx context.Context, booking *domain.Booking) error
	List(ctx context.Context) ([]domain.Booking, error)
	FindByID(ctx context.Context, id int64) (*domain.Booking, error)
}

type PGBookingRepository struct {
	db DB
}

func NewBookingRepository(db DB) BookingRepository {
	return &PGBookingRepository{db: db}
}

const bookingColumns = `id, flight_ref, passenger_ref, passenger_first_name, passenger_last_name, ticket_count, created_at, updated_at`

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	if err := row.Scan(&b.ID, &b.FlightReference, &b.PassengerReference, &b.PassengerFirstName, &b.PassengerLastName, &b.TicketCount, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *PGBookingRepository) FindByFlightAndPassenger(ctx context.Context, flightRef, passengerRef string) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE flight_ref=$1 AND passenger_ref=$2 LIMIT 1`, flightRef, passengerRef)
	b, err := scanBooking(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "find booking by flight and passenger")
	}
	return b, nil
}

// Insert stores the booking and sets its ID. A (flight, passenger) collision
// is reported as domain.ErrDuplicateBooking.
func (r *PGBookingRepository) Insert(ctx context.Context, booking *domain.Booking) error {
	err := r.db.QueryRow(ctx, `INSERT INTO bookings (flight_ref, passenger_ref, passenger_first_name, passenger_last_name, ticket_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		booking.FlightReference, booking.PassengerReference, booking.PassengerFirstName, booking.PassengerLastName,
		booking.TicketCount, booking.CreatedAt, booking.UpdatedAt).
		Scan(&booking.ID)
	if isUniqueViolation(err) {
		return domain.ErrDuplicateBooking
	}
	return errors.Wrap(err, "insert booking")
}

func (r *PGBookingRepository) List(ctx context.Context) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, `SELECT `+bookingColumns+` FROM bookings ORDER BY id`)
	if err != nil {
		return nil, errors.Wrap(err, "list bookings")
	}
	defer rows.Close()

	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan booking")
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

func (r *PGBookingRepository) FindByID(ctx context.Context, id int64) (*domain.Booking, error) {
	b, err := scanBooking(r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrBookingNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "find booking by id")
	}
	return b, nil
}

var _ BookingRepository = (*PGBookingRepository)(nil)
