package rabbitmq

import (
	"context"
	"strconv"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/nelonissle/kubernetes-bookingsystem/internal/domain"
)

// Channel is the subset of *amqp.Channel used here.
type Channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	Close() error
}

type Connection interface {
	Channel() (Channel, error)
	IsClosed() bool
	Close() error
}

type Dialer func(url string) (Connection, error)

type amqpConnection struct {
	*amqp.Connection
}

func (c amqpConnection) Channel() (Channel, error) {
	ch, err := c.Connection.Channel()
	if err != nil {
		return nil, err
	}
	return ch, nil
}

const DefaultDialTimeout = 5 * time.Second

// Dial connects to a real broker, giving up after DefaultDialTimeout.
func Dial(url string) (Connection, error) {
	return DialTimeout(DefaultDialTimeout)(url)
}

// DialTimeout returns a Dialer whose TCP connect and AMQP handshake must
// finish within timeout.
func DialTimeout(timeout time.Duration) Dialer {
	return func(url string) (Connection, error) {
		conn, err := amqp.DialConfig(url, amqp.Config{
			Heartbeat: 10 * time.Second,
			Locale:    "en_US",
			Dial:      amqp.DefaultDial(timeout),
		})
		if err != nil {
			return nil, err
		}
		return amqpConnection{conn}, nil
	}
}

// declareQueue declares the notification queue: not durable, not exclusive,
// not auto-deleted, no dead-lettering. Declaring an existing queue with the
// same arguments is a no-op on the broker.
func declareQueue(ch Channel, name string) error {
	_, err := ch.QueueDeclare(name, false, false, false, false, nil)
	return err
}

func headersFor(msg domain.NotificationMessage) amqp.Table {
	return amqp.Table{
		domain.HeaderBookingID:          msg.BookingID,
		domain.HeaderFlightReference:    msg.FlightReference,
		domain.HeaderPassengerReference: msg.PassengerReference,
		domain.HeaderPassengerName:      msg.PassengerName,
		domain.HeaderTicketCount:        int32(msg.TicketCount),
	}
}

// MessageFromDelivery rebuilds the notification from delivery headers.
// Missing headers leave the corresponding fields zero.
func MessageFromDelivery(d amqp.Delivery) domain.NotificationMessage {
	h := d.Headers
	return domain.NotificationMessage{
		BookingID:          int64Header(h, domain.HeaderBookingID),
		FlightReference:    stringHeader(h, domain.HeaderFlightReference),
		PassengerReference: stringHeader(h, domain.HeaderPassengerReference),
		PassengerName:      stringHeader(h, domain.HeaderPassengerName),
		TicketCount:        int(int64Header(h, domain.HeaderTicketCount)),
	}
}

func stringHeader(h amqp.Table, key string) string {
	switch v := h[key].(type) {
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return ""
	}
}

func int64Header(h amqp.Table, key string) int64 {
	switch v := h[key].(type) {
	case int64:
		return v
	case int32:
		return int64(v)
	case int16:
		return int64(v)
	case int:
		return int64(v)
	case string:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	default:
		return 0
	}
}
