package booking

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/nelonissle/kubernetes-bookingsystem/internal/domain"
	"github.com/nelonissle/kubernetes-bookingsystem/internal/metrics"
	"github.com/nelonissle/kubernetes-bookingsystem/internal/repository"
)

type BookingUseCase interface {
	CreateBooking(ctx context.Context, input CreateBookingInput) (*Result, error)
	ListBookings(ctx context.Context) ([]domain.Booking, error)
	GetBooking(ctx context.Context, id int64) (*domain.Booking, error)
}

// SeatReservation is the remote Inventory Ledger as seen by the orchestrator.
type SeatReservation interface {
	GetFlight(ctx context.Context, flightRef string) (*domain.Flight, error)
	DecrementSeats(ctx context.Context, flightRef string, count int, idempotencyKey string) error
}

type NotificationProducer interface {
	Publish(ctx context.Context, msg domain.NotificationMessage) error
}

type CreateBookingInput struct {
	FlightReference    string `json:"flight_id"`
	PassengerReference string `json:"passenger_id"`
	PassengerFirstName string `json:"passenger_firstname"`
	PassengerLastName  string `json:"passenger_lastname"`
	TicketCount        int    `json:"ticket_count"`
}

// Result is returned whenever the booking was persisted. Warnings holds the
// ErrReservationFailed / ErrNotificationFailed signals of degraded steps.
type Result struct {
	Booking  *domain.Booking
	Warnings []error
	Steps    []StepRecord
}

func (r *Result) Degraded() bool {
	return len(r.Warnings) > 0
}

type BookingService struct {
	bookings        repository.BookingRepository
	seats           SeatReservation
	producer        NotificationProducer
	log             *zap.Logger
	metrics         *metrics.Metrics
	now             func() time.Time
	completionLimit time.Duration
}

// DefaultCompletionTimeout bounds each step that runs after the booking is
// stored.
const DefaultCompletionTimeout = 10 * time.Second

type BookingServiceOption func(*BookingService)

func WithClock(now func() time.Time) BookingServiceOption {
	return func(s *BookingService) {
		s.now = now
	}
}

func WithMetrics(m *metrics.Metrics) BookingServiceOption {
	return func(s *BookingService) {
		s.metrics = m
	}
}

// WithCompletionTimeout sets how long the seat decrement and the enqueue may
// take once the booking is stored.
func WithCompletionTimeout(d time.Duration) BookingServiceOption {
	return func(s *BookingService) {
		if d > 0 {
			s.completionLimit = d
		}
	}
}

func NewBookingService(
	bookings repository.BookingRepository,
	seats SeatReservation,
	producer NotificationProducer,
	log *zap.Logger,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		bookings:        bookings,
		seats:           seats,
		producer:        producer,
		log:             log,
		metrics:         metrics.Nop(),
		now:             time.Now,
		completionLimit: DefaultCompletionTimeout,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// CreateBooking runs the booking saga: validate, duplicate check,
// availability check, persist, seat decrement, notify. Failures up to and
// including persist are returned as errors with nothing left behind. Once the
// booking is stored it is always returned; later failures only add warnings.
func (s *BookingService) CreateBooking(ctx context.Context, input CreateBookingInput) (*Result, error) {
	log := s.log.With(
		zap.String("flight_reference", input.FlightReference),
		zap.String("passenger_reference", input.PassengerReference),
		zap.Int("ticket_count", input.TicketCount),
	)

	st := &sagaState{input: input}
	run, err := execute(ctx, s.steps(log), st, func(rec StepRecord) {
		fields := []zap.Field{zap.String("step", rec.Name), zap.String("status", string(rec.Status))}
		if st.booking != nil {
			fields = append(fields, zap.Int64("booking_id", st.booking.ID))
		}
		if rec.Error != "" {
			fields = append(fields, zap.String("error", rec.Error))
		}
		log.Debug("booking saga step", fields...)
	})
	if err != nil {
		outcome := metrics.OutcomeRejected
		if errors.Is(err, domain.ErrPersistence) {
			outcome = metrics.OutcomeFailed
		}
		s.metrics.SagaOutcomes.WithLabelValues(outcome).Inc()
		log.Info("booking rejected", zap.String("outcome", outcome), zap.Error(err))
		return nil, err
	}

	result := &Result{Booking: st.booking, Warnings: run.warnings, Steps: run.records}
	if result.Degraded() {
		s.metrics.SagaOutcomes.WithLabelValues(metrics.OutcomeDegraded).Inc()
	} else {
		s.metrics.SagaOutcomes.WithLabelValues(metrics.OutcomeCreated).Inc()
	}
	log.Info("booking created",
		zap.Int64("booking_id", st.booking.ID),
		zap.Int("warnings", len(run.warnings)))
	return result, nil
}

func (s *BookingService) steps(log *zap.Logger) []sagaStep {
	return []sagaStep{
		{name: StepValidate, run: s.validate},
		{name: StepDuplicateCheck, run: s.checkDuplicate},
		{name: StepAvailabilityCheck, run: s.checkAvailability},
		{name: StepPersist, run: s.persist},
		{name: StepReserveSeats, run: s.detached(func(ctx context.Context, st *sagaState) error {
			return s.reserveSeats(ctx, st, log)
		}), degradable: true},
		{name: StepNotify, run: s.detached(func(ctx context.Context, st *sagaState) error {
			return s.notify(ctx, st, log)
		}), degradable: true, onlyOnFullSuccess: true, disabled: s.producer == nil},
	}
}

// detached runs a post-persist step on a context that ignores caller
// cancellation but keeps its values, so the forwarded credential still
// reaches the ledger. A stored booking always gets its decrement attempted.
func (s *BookingService) detached(run func(context.Context, *sagaState) error) func(context.Context, *sagaState) error {
	return func(ctx context.Context, st *sagaState) error {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.completionLimit)
		defer cancel()
		return run(ctx, st)
	}
}

func (s *BookingService) validate(_ context.Context, st *sagaState) error {
	in := st.input
	switch {
	case strings.TrimSpace(in.FlightReference) == "":
		return errors.Wrap(domain.ErrValidation, "flight_id is required")
	case strings.TrimSpace(in.PassengerReference) == "":
		return errors.Wrap(domain.ErrValidation, "passenger_id is required")
	case in.TicketCount <= 0:
		return errors.Wrapf(domain.ErrValidation, "ticket_count must be positive, got %d", in.TicketCount)
	}
	return nil
}

func (s *BookingService) checkDuplicate(ctx context.Context, st *sagaState) error {
	existing, err := s.bookings.FindByFlightAndPassenger(ctx, st.input.FlightReference, st.input.PassengerReference)
	if err != nil {
		return errors.Wrap(domain.ErrPersistence, err.Error())
	}
	if existing != nil {
		return errors.Wrapf(domain.ErrDuplicateBooking, "booking %d already exists", existing.ID)
	}
	return nil
}

func (s *BookingService) checkAvailability(ctx context.Context, st *sagaState) error {
	flight, err := s.seats.GetFlight(ctx, st.input.FlightReference)
	if err != nil {
		if errors.Is(err, domain.ErrAvailabilityCheckFailed) {
			return err
		}
		return errors.Wrap(domain.ErrAvailabilityCheckFailed, err.Error())
	}
	if flight.AvailableSeats < st.input.TicketCount {
		return errors.Wrapf(domain.ErrInsufficientSeats, "requested %d, available %d", st.input.TicketCount, flight.AvailableSeats)
	}
	st.flight = flight
	return nil
}

func (s *BookingService) persist(ctx context.Context, st *sagaState) error {
	now := s.now().UTC()
	booking := &domain.Booking{
		FlightReference:    st.input.FlightReference,
		PassengerReference: st.input.PassengerReference,
		PassengerFirstName: st.input.PassengerFirstName,
		PassengerLastName:  st.input.PassengerLastName,
		TicketCount:        st.input.TicketCount,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.bookings.Insert(ctx, booking); err != nil {
		if errors.Is(err, domain.ErrDuplicateBooking) {
			return err
		}
		return errors.Wrap(domain.ErrPersistence, err.Error())
	}
	st.booking = booking
	return nil
}

// reserveSeats runs after the booking is stored. A failure leaves an orphan
// booking; no compensation is attempted.
func (s *BookingService) reserveSeats(ctx context.Context, st *sagaState, log *zap.Logger) error {
	err := s.seats.DecrementSeats(ctx, st.booking.FlightReference, st.booking.TicketCount, IdempotencyKey(st.booking.ID))
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrReservationFailed) {
		err = errors.Wrap(domain.ErrReservationFailed, err.Error())
	}
	s.metrics.OrphanBookings.Inc()
	log.Warn("orphan booking: seat decrement failed",
		zap.Int64("booking_id", st.booking.ID),
		zap.Error(err))
	return err
}

func (s *BookingService) notify(ctx context.Context, st *sagaState, log *zap.Logger) error {
	if err := s.producer.Publish(ctx, domain.NewNotificationMessage(st.booking)); err != nil {
		s.metrics.EnqueueFailures.Inc()
		log.Warn("confirmation not enqueued",
			zap.Int64("booking_id", st.booking.ID),
			zap.Error(err))
		return errors.Wrap(domain.ErrNotificationFailed, err.Error())
	}
	return nil
}

func (s *BookingService) ListBookings(ctx context.Context) ([]domain.Booking, error) {
	bookings, err := s.bookings.List(ctx)
	if err != nil {
		return nil, errors.Wrap(domain.ErrPersistence, err.Error())
	}
	return bookings, nil
}

func (s *BookingService) GetBooking(ctx context.Context, id int64) (*domain.Booking, error) {
	booking, err := s.bookings.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrBookingNotFound) {
			return nil, err
		}
		return nil, errors.Wrap(domain.ErrPersistence, err.Error())
	}
	return booking, nil
}

// IdempotencyKey identifies the seat decrement belonging to one booking.
func IdempotencyKey(bookingID int64) string {
	return "booking-" + strconv.FormatInt(bookingID, 10)
}

var _ BookingUseCase = (*BookingService)(nil)
