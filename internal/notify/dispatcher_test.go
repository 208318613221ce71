package notify

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/nelonissle/kubernetes-bookingsystem/internal/domain"
	"github.com/nelonissle/kubernetes-bookingsystem/internal/metrics"
)

type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(ctx context.Context, destination, passengerName, flightRef string, ticketCount int) error {
	args := m.Called(ctx, destination, passengerName, flightRef, ticketCount)
	return args.Error(0)
}

func message() domain.NotificationMessage {
	return domain.NotificationMessage{BookingID: 7, FlightReference: "FL123", PassengerReference: "P001", PassengerName: "Ada Lovelace", TicketCount: 2}
}

func TestDispatcher_Handle(t *testing.T) {
	sender := &MockSender{}
	m := metrics.New(prometheus.NewRegistry())
	sender.On("Send", mock.Anything, "+41790000000", "Ada Lovelace", "FL123", 2).Return(nil).Once()

	d := NewDispatcher(sender, "+41790000000", zap.NewNop(), m)

	assert.NoError(t, d.Handle(context.Background(), message()))
	sender.AssertExpectations(t)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NotificationsHandled.WithLabelValues("delivered")))
}

func TestDispatcher_SwallowsSenderErrors(t *testing.T) {
	sender := &MockSender{}
	m := metrics.New(prometheus.NewRegistry())
	core, logs := observer.New(zapcore.InfoLevel)
	sender.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("twilio 503"))

	d := NewDispatcher(sender, "+41790000000", zap.New(core), m)

	assert.NoError(t, d.Handle(context.Background(), message()))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NotificationsHandled.WithLabelValues("failed")))
	assert.Equal(t, 1, logs.FilterMessage("notification delivery failed").Len())
}
