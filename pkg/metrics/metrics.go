package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	bookingCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tablebook",
			Name:      "booking_created_total",
			Help:      "Count of bookings created by source.",
		},
		[]string{"source"},
	)

	bookingTransition = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tablebook",
			Name:      "booking_transition_total",
			Help:      "Count of booking status transitions.",
		},
		[]string{"status"},
	)

	availabilityCheck = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tablebook",
			Name:      "availability_check_total",
			Help:      "Count of time-slot availability checks by outcome.",
		},
		[]string{"outcome"},
	)

	tableStatusChange = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tablebook",
			Name:      "table_status_change_total",
			Help:      "Count of table status changes.",
		},
		[]string{"status"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(bookingCreated, bookingTransition, availabilityCheck, tableStatusChange)
	})
}

func IncBookingCreated(source string) {
	bookingCreated.WithLabelValues(source).Inc()
}

func IncBookingTransition(status string) {
	bookingTransition.WithLabelValues(status).Inc()
}

func IncAvailabilityCheck(available bool) {
	outcome := "unavailable"
	if available {
		outcome = "available"
	}
	availabilityCheck.WithLabelValues(outcome).Inc()
}

func IncTableStatusChange(status string) {
	tableStatusChange.WithLabelValues(status).Inc()
}
