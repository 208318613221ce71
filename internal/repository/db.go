package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
)

// DB is the subset of *pgxpool.Pool the repositories use.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

const bookingsSchema = `
CREATE TABLE IF NOT EXISTS bookings (
	id                   BIGSERIAL PRIMARY KEY,
	flight_ref           TEXT        NOT NULL,
	passenger_ref        TEXT        NOT NULL,
	passenger_first_name TEXT        NOT NULL DEFAULT '',
	passenger_last_name  TEXT        NOT NULL DEFAULT '',
	ticket_count         INTEGER     NOT NULL CHECK (ticket_count > 0),
	created_at           TIMESTAMPTZ NOT NULL,
	updated_at           TIMESTAMPTZ NOT NULL,
	CONSTRAINT bookings_flight_passenger_key UNIQUE (flight_ref, passenger_ref)
)`

const flightsSchema = `
CREATE TABLE IF NOT EXISTS flights (
	id              BIGSERIAL PRIMARY KEY,
	flight_ref      TEXT        NOT NULL UNIQUE,
	airline_name    TEXT        NOT NULL,
	source          TEXT        NOT NULL,
	destination     TEXT        NOT NULL,
	departure_time  TIMESTAMPTZ NOT NULL,
	arrival_time    TIMESTAMPTZ NOT NULL,
	available_seats INTEGER     NOT NULL CHECK (available_seats >= 0),
	created_at      TIMESTAMPTZ NOT NULL,
	updated_at      TIMESTAMPTZ NOT NULL
)`

func EnsureBookingSchema(ctx context.Context, db DB) error {
	_, err := db.Exec(ctx, bookingsSchema)
	return errors.Wrap(err, "create bookings table")
}

func EnsureFlightSchema(ctx context.Context, db DB) error {
	_, err := db.Exec(ctx, flightsSchema)
	return errors.Wrap(err, "create flights table")
}
