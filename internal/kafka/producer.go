package kafka

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/nelonissle/kubernetes-bookingsystem/internal/domain"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes booking confirmations to a topic without waiting for
// broker acknowledgement.
type Producer struct {
	topic  string
	writer messageWriter
	log    *zap.Logger
}

func NewProducer(brokers []string, topic string, log *zap.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		BatchTimeout:           50 * time.Millisecond,
		RequiredAcks:           kafka.RequireNone,
		AllowAutoTopicCreation: true,
	}
	return newProducer(topic, writer, log)
}

func newProducer(topic string, writer messageWriter, log *zap.Logger) *Producer {
	return &Producer{topic: topic, writer: writer, log: log}
}

func (p *Producer) Publish(ctx context.Context, msg domain.NotificationMessage) error {
	message := kafka.Message{
		Key:     []byte(strconv.FormatInt(msg.BookingID, 10)),
		Value:   []byte(msg.Text()),
		Headers: headersFor(msg),
		Time:    time.Now(),
	}
	if err := p.writer.WriteMessages(ctx, message); err != nil {
		return errors.Wrap(err, "write notification to kafka")
	}

	p.log.Debug("notification published",
		zap.String("topic", p.topic),
		zap.Int64("booking_id", msg.BookingID))
	return nil
}

func (p *Producer) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}

const headerMessageID = "message_id"

func headersFor(msg domain.NotificationMessage) []kafka.Header {
	return []kafka.Header{
		{Key: headerMessageID, Value: []byte(uuid.NewString())},
		{Key: domain.HeaderBookingID, Value: []byte(strconv.FormatInt(msg.BookingID, 10))},
		{Key: domain.HeaderFlightReference, Value: []byte(msg.FlightReference)},
		{Key: domain.HeaderPassengerReference, Value: []byte(msg.PassengerReference)},
		{Key: domain.HeaderPassengerName, Value: []byte(msg.PassengerName)},
		{Key: domain.HeaderTicketCount, Value: []byte(strconv.Itoa(msg.TicketCount))},
	}
}

// MessageFromKafka rebuilds the notification from record headers.
func MessageFromKafka(m kafka.Message) domain.NotificationMessage {
	h := make(map[string]string, len(m.Headers))
	for _, header := range m.Headers {
		h[header.Key] = string(header.Value)
	}
	bookingID, _ := strconv.ParseInt(h[domain.HeaderBookingID], 10, 64)
	tickets, _ := strconv.Atoi(h[domain.HeaderTicketCount])
	return domain.NotificationMessage{
		BookingID:          bookingID,
		FlightReference:    h[domain.HeaderFlightReference],
		PassengerReference: h[domain.HeaderPassengerReference],
		PassengerName:      h[domain.HeaderPassengerName],
		TicketCount:        tickets,
	}
}

func messageID(m kafka.Message) string {
	for _, header := range m.Headers {
		if header.Key == headerMessageID {
			return string(header.Value)
		}
	}
	return ""
}
