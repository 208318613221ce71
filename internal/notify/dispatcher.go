package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/nelonissle/kubernetes-bookingsystem/internal/domain"
	"github.com/nelonissle/kubernetes-bookingsystem/internal/metrics"
)

// Sender is the external delivery channel.
type Sender interface {
	Send(ctx context.Context, destination, passengerName, flightRef string, ticketCount int) error
}

// Dispatcher hands consumed notifications to the Sender. Delivery errors are
// logged and dropped; the message has already been acknowledged.
type Dispatcher struct {
	sender      Sender
	destination string
	log         *zap.Logger
	metrics     *metrics.Metrics
}

func NewDispatcher(sender Sender, destination string, log *zap.Logger, m *metrics.Metrics) *Dispatcher {
	if m == nil {
		m = metrics.Nop()
	}
	return &Dispatcher{sender: sender, destination: destination, log: log, metrics: m}
}

// Handle always returns nil.
func (d *Dispatcher) Handle(ctx context.Context, msg domain.NotificationMessage) error {
	log := d.log.With(
		zap.Int64("booking_id", msg.BookingID),
		zap.String("flight_reference", msg.FlightReference),
		zap.String("passenger_reference", msg.PassengerReference))

	if err := d.sender.Send(ctx, d.destination, msg.PassengerName, msg.FlightReference, msg.TicketCount); err != nil {
		d.metrics.NotificationsHandled.WithLabelValues("failed").Inc()
		log.Error("notification delivery failed", zap.Error(err))
		return nil
	}

	d.metrics.NotificationsHandled.WithLabelValues("delivered").Inc()
	log.Info("notification delivered")
	return nil
}
