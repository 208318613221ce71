package rabbitmq

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/nelonissle/kubernetes-bookingsystem/internal/domain"
)

type Handler func(ctx context.Context, msg domain.NotificationMessage) error

var ErrDeliveriesClosed = errors.New("rabbitmq: delivery channel closed")

// Consumer reads the notification queue with automatic acknowledgement: a
// message counts as delivered once it is handed to the handler, so handler
// failures lose the message.
type Consumer struct {
	url   string
	queue string
	dial  Dialer
	log   *zap.Logger
}

func NewConsumer(url, queue string, log *zap.Logger, opts ...Option) *Consumer {
	o := buildOptions(opts)
	return &Consumer{url: url, queue: queue, dial: o.dial, log: log}
}

// StartListening blocks until ctx is cancelled or the broker closes the
// delivery stream. The channel and then the connection are closed on return.
func (c *Consumer) StartListening(ctx context.Context, handler Handler) error {
	conn, err := c.dial(c.url)
	if err != nil {
		return errors.Wrap(err, "dial rabbitmq")
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return errors.Wrap(err, "open channel")
	}
	defer func() {
		if err := ch.Close(); err != nil {
			c.log.Warn("close channel", zap.Error(err))
		}
		if err := conn.Close(); err != nil {
			c.log.Warn("close connection", zap.Error(err))
		}
	}()

	if err := declareQueue(ch, c.queue); err != nil {
		return errors.Wrapf(err, "declare queue %s", c.queue)
	}

	deliveries, err := ch.Consume(c.queue, "", true, false, false, false, nil)
	if err != nil {
		return errors.Wrap(err, "consume")
	}

	c.log.Info("listening for notifications", zap.String("queue", c.queue))
	for {
		select {
		case <-ctx.Done():
			c.log.Info("notification consumer stopping")
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return ErrDeliveriesClosed
			}
			c.handle(ctx, d, handler)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, d amqp.Delivery, handler Handler) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("notification handler panicked",
				zap.String("message_id", d.MessageId),
				zap.String("panic", fmt.Sprint(r)))
		}
	}()

	msg := MessageFromDelivery(d)
	if err := handler(ctx, msg); err != nil {
		c.log.Error("notification handler failed",
			zap.String("message_id", d.MessageId),
			zap.Int64("booking_id", msg.BookingID),
			zap.Error(err))
	}
}
