package rabbitmq

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/nelonissle/kubernetes-bookingsystem/internal/domain"
)

// Producer enqueues booking confirmations. Publishing is fire-and-forget:
// messages are transient and no publisher confirms are requested, so a
// broker crash before persistence drops the message.
type Producer struct {
	url   string
	queue string
	dial  Dialer
	log   *zap.Logger

	mu   sync.Mutex
	conn Connection
	ch   Channel
}

type Option func(*options)

type options struct {
	dial Dialer
}

func WithDialer(d Dialer) Option {
	return func(o *options) {
		o.dial = d
	}
}

func buildOptions(opts []Option) options {
	o := options{dial: Dial}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewProducer does not connect; the first Publish dials the broker.
func NewProducer(url, queue string, log *zap.Logger, opts ...Option) *Producer {
	o := buildOptions(opts)
	return &Producer{url: url, queue: queue, dial: o.dial, log: log}
}

func (p *Producer) Publish(ctx context.Context, msg domain.NotificationMessage) error {
	ch, err := p.channel()
	if err != nil {
		return err
	}

	err = ch.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
		ContentType:  "text/plain",
		DeliveryMode: amqp.Transient,
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		Headers:      headersFor(msg),
		Body:         []byte(msg.Text()),
	})
	if err != nil {
		p.discard(ch)
		return errors.Wrap(err, "publish notification")
	}

	p.log.Debug("notification enqueued",
		zap.String("queue", p.queue),
		zap.Int64("booking_id", msg.BookingID))
	return nil
}

// channel returns the shared channel, connecting when there is none. The
// dial happens without holding mu so a slow broker does not queue every
// caller behind a single connection attempt.
func (p *Producer) channel() (Channel, error) {
	p.mu.Lock()
	if p.live() {
		ch := p.ch
		p.mu.Unlock()
		return ch, nil
	}
	p.mu.Unlock()

	conn, ch, err := p.connect()
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.live() {
		_ = ch.Close()
		_ = conn.Close()
		return p.ch, nil
	}
	p.reset()
	p.conn, p.ch = conn, ch
	return ch, nil
}

// connect dials, opens a channel and declares the queue.
func (p *Producer) connect() (Connection, Channel, error) {
	conn, err := p.dial(p.url)
	if err != nil {
		return nil, nil, errors.Wrap(err, "dial rabbitmq")
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, errors.Wrap(err, "open channel")
	}
	if err := declareQueue(ch, p.queue); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, errors.Wrapf(err, "declare queue %s", p.queue)
	}
	return conn, ch, nil
}

func (p *Producer) live() bool {
	return p.ch != nil && p.conn != nil && !p.conn.IsClosed()
}

// discard drops ch if it is still the shared channel, so the next Publish
// reconnects.
func (p *Producer) discard(ch Channel) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch == ch {
		p.reset()
	}
}

func (p *Producer) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.conn, p.ch = nil, nil
}

func (p *Producer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reset()
	return nil
}
