package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/nelonissle/kubernetes-bookingsystem/internal/domain"
)

type Handler func(ctx context.Context, msg domain.NotificationMessage) error

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Consumer reads the notifications topic in a consumer group. ReadMessage
// commits the offset as soon as the record is returned, so a record whose
// handler fails is not redelivered.
type Consumer struct {
	reader messageReader
	log    *zap.Logger
}

func NewConsumer(brokers []string, groupID, topic string, log *zap.Logger) *Consumer {
	return newConsumer(kafka.NewReader(kafka.ReaderConfig{
		Brokers:           brokers,
		GroupID:           groupID,
		Topic:             topic,
		HeartbeatInterval: 3 * time.Second,
		SessionTimeout:    30 * time.Second,
	}), log)
}

func newConsumer(reader messageReader, log *zap.Logger) *Consumer {
	return &Consumer{reader: reader, log: log}
}

func (c *Consumer) Close() error {
	if c == nil || c.reader == nil {
		return nil
	}
	return c.reader.Close()
}

// StartListening blocks until ctx is cancelled or the reader fails. The
// reader is closed on return.
func (c *Consumer) StartListening(ctx context.Context, handler Handler) error {
	defer func() {
		if err := c.Close(); err != nil {
			c.log.Warn("close kafka reader", zap.Error(err))
		}
	}()

	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				c.log.Info("notification consumer stopping")
				return nil
			}
			return errors.Wrap(err, "read notification")
		}
		c.handle(ctx, msg, handler)
	}
}

func (c *Consumer) handle(ctx context.Context, m kafka.Message, handler Handler) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("notification handler panicked",
				zap.String("message_id", messageID(m)),
				zap.String("panic", fmt.Sprint(r)))
		}
	}()

	msg := MessageFromKafka(m)
	if err := handler(ctx, msg); err != nil {
		c.log.Error("notification handler failed",
			zap.String("message_id", messageID(m)),
			zap.Int64("booking_id", msg.BookingID),
			zap.Int64("offset", m.Offset),
			zap.Error(err))
	}
}
