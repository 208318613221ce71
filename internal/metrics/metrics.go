package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "skybooker"

// Saga outcomes reported by the booking orchestrator.
const (
	OutcomeCreated  = "created"
	OutcomeDegraded = "degraded"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

type Metrics struct {
	SagaOutcomes         *prometheus.CounterVec
	OrphanBookings       prometheus.Counter
	EnqueueFailures      prometheus.Counter
	SeatDecrements       *prometheus.CounterVec
	NotificationsHandled *prometheus.CounterVec
}

// New registers all collectors on reg. Tests pass a fresh prometheus.NewRegistry().
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SagaOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_saga_total",
			Help:      "Booking saga executions by outcome.",
		}, []string{"outcome"}),
		OrphanBookings: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orphan_bookings_total",
			Help:      "Bookings persisted without a matching seat decrement.",
		}),
		EnqueueFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notification_enqueue_failures_total",
			Help:      "Confirmation messages that could not be enqueued.",
		}),
		SeatDecrements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "seat_decrements_total",
			Help:      "Inventory ledger decrement attempts by result.",
		}, []string{"result"}),
		NotificationsHandled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_handled_total",
			Help:      "Consumed notification messages by delivery result.",
		}, []string{"result"}),
	}
	reg.MustRegister(m.SagaOutcomes, m.OrphanBookings, m.EnqueueFailures, m.SeatDecrements, m.NotificationsHandled)
	return m
}

// Nop returns metrics bound to a private registry.
func Nop() *Metrics {
	return New(prometheus.NewRegistry())
}
