package flights

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/nelonissle/kubernetes-bookingsystem/internal/domain"
	"github.com/nelonissle/kubernetes-bookingsystem/internal/metrics"
	"github.com/nelonissle/kubernetes-bookingsystem/internal/repository"
)

// FlightUseCase is the Inventory Ledger.
type FlightUseCase interface {
	List(ctx context.Context) ([]domain.Flight, error)
	GetByFlightReference(ctx context.Context, flightRef string) (*domain.Flight, error)
	DecrementSeats(ctx context.Context, flightRef string, count int, idempotencyKey string) (*domain.Flight, error)
	CreateFlight(ctx context.Context, flight domain.Flight) (*domain.Flight, error)
}

type FlightCache interface {
	GetFlights(ctx context.Context) ([]domain.Flight, error)
	SetFlights(ctx context.Context, flights []domain.Flight) error
	InvalidateFlights(ctx context.Context) error
	ClaimIdempotencyKey(ctx context.Context, key string, ttl time.Duration) (bool, error)
	ReleaseIdempotencyKey(ctx context.Context, key string) error
}

type FlightService struct {
	repo           repository.FlightRepository
	cache          FlightCache
	idempotencyTTL time.Duration
	log            *zap.Logger
	metrics        *metrics.Metrics
	now            func() time.Time
}

type FlightServiceOption func(*FlightService)

func WithClock(now func() time.Time) FlightServiceOption {
	return func(s *FlightService) {
		s.now = now
	}
}

func WithMetrics(m *metrics.Metrics) FlightServiceOption {
	return func(s *FlightService) {
		s.metrics = m
	}
}

// NewFlightService accepts a nil cache; reads then go straight to the store
// and idempotency keys are ignored.
func NewFlightService(repo repository.FlightRepository, cache FlightCache, idempotencyTTL time.Duration, log *zap.Logger, opts ...FlightServiceOption) *FlightService {
	s := &FlightService{
		repo:           repo,
		cache:          cache,
		idempotencyTTL: idempotencyTTL,
		log:            log,
		metrics:        metrics.Nop(),
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *FlightService) List(ctx context.Context) ([]domain.Flight, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetFlights(ctx); err == nil && cached != nil {
			return cached, nil
		}
	}

	flights, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetFlights(ctx, flights); err != nil {
			s.log.Warn("cache flights", zap.Error(err))
		}
	}
	return flights, nil
}

func (s *FlightService) GetByFlightReference(ctx context.Context, flightRef string) (*domain.Flight, error) {
	return s.repo.GetByFlightReference(ctx, flightRef)
}

// DecrementSeats reduces the flight's available seats by count. With a
// non-empty idempotencyKey a repeated call returns the current record
// without decrementing again. When the key cannot be claimed because the
// cache is unavailable, the decrement still runs without replay protection.
func (s *FlightService) DecrementSeats(ctx context.Context, flightRef string, count int, idempotencyKey string) (*domain.Flight, error) {
	if count <= 0 {
		return nil, errors.Wrapf(domain.ErrValidation, "ticket count must be positive, got %d", count)
	}

	claimed := false
	if idempotencyKey != "" && s.cache != nil {
		ok, err := s.cache.ClaimIdempotencyKey(ctx, idempotencyKey, s.idempotencyTTL)
		switch {
		case err != nil:
			s.metrics.SeatDecrements.WithLabelValues("unclaimed").Inc()
			s.log.Warn("idempotency claim failed, decrementing without it",
				zap.String("flight_reference", flightRef),
				zap.String("idempotency_key", idempotencyKey),
				zap.Error(err))
		case !ok:
			s.log.Info("replayed seat decrement ignored",
				zap.String("flight_reference", flightRef),
				zap.String("idempotency_key", idempotencyKey))
			s.metrics.SeatDecrements.WithLabelValues("replayed").Inc()
			return s.repo.GetByFlightReference(ctx, flightRef)
		default:
			claimed = true
		}
	}

	flight, err := s.repo.DecrementSeats(ctx, flightRef, count, s.now().UTC())
	if err != nil {
		if claimed {
			if relErr := s.cache.ReleaseIdempotencyKey(ctx, idempotencyKey); relErr != nil {
				s.log.Warn("release idempotency key", zap.String("idempotency_key", idempotencyKey), zap.Error(relErr))
			}
		}
		s.metrics.SeatDecrements.WithLabelValues(decrementResult(err)).Inc()
		s.log.Warn("seat decrement rejected",
			zap.String("flight_reference", flightRef),
			zap.Int("ticket_count", count),
			zap.Error(err))
		return nil, err
	}

	s.metrics.SeatDecrements.WithLabelValues("ok").Inc()
	s.invalidate(ctx)
	s.log.Info("seats decremented",
		zap.String("flight_reference", flightRef),
		zap.Int("ticket_count", count),
		zap.Int("available_seats", flight.AvailableSeats))
	return flight, nil
}

func (s *FlightService) CreateFlight(ctx context.Context, flight domain.Flight) (*domain.Flight, error) {
	now := s.now().UTC()
	if err := ValidateNewFlight(flight, now); err != nil {
		return nil, err
	}

	flight.CreatedAt = now
	flight.UpdatedAt = now
	if err := s.repo.Create(ctx, &flight); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	s.log.Info("flight created", zap.String("flight_reference", flight.FlightReference), zap.String("id", flight.ID))
	return &flight, nil
}

func (s *FlightService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateFlights(ctx); err != nil {
		s.log.Warn("invalidate flights cache", zap.Error(err))
	}
}

func decrementResult(err error) string {
	switch {
	case errors.Is(err, domain.ErrInsufficientSeats):
		return "insufficient"
	case errors.Is(err, domain.ErrFlightNotFound):
		return "not_found"
	default:
		return "error"
	}
}

const maxAirlineNameLength = 100

// ValidateNewFlight checks an administratively created flight record.
func ValidateNewFlight(f domain.Flight, now time.Time) error {
	switch {
	case strings.TrimSpace(f.FlightReference) == "",
		strings.TrimSpace(f.AirlineName) == "",
		strings.TrimSpace(f.Source) == "",
		strings.TrimSpace(f.Destination) == "":
		return errors.Wrap(domain.ErrValidation, "flight id, airline name, source and destination are required")
	case len(f.AirlineName) > maxAirlineNameLength:
		return errors.Wrap(domain.ErrValidation, "airline name cannot exceed 100 characters")
	case strings.EqualFold(f.Source, f.Destination):
		return errors.Wrap(domain.ErrValidation, "source and destination cannot be the same")
	case !f.DepartureTime.Before(f.ArrivalTime):
		return errors.Wrap(domain.ErrValidation, "departure time must be earlier than the arrival time")
	case !f.DepartureTime.After(now) || !f.ArrivalTime.After(now):
		return errors.Wrap(domain.ErrValidation, "departure and arrival times must be in the future")
	case f.AvailableSeats < 0:
		return errors.Wrap(domain.ErrValidation, "available seats cannot be negative")
	}
	return nil
}

var _ FlightUseCase = (*FlightService)(nil)
