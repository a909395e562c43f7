package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	slotListings = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "vetdesk",
			Name:      "slot_listing_total",
			Help:      "Count of availability listing requests served.",
		},
	)

	slotListingStaffErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "vetdesk",
			Name:      "slot_listing_staff_errors_total",
			Help:      "Count of per-staff failures reported inside listing responses.",
		},
	)

	bookingCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "vetdesk",
			Name:      "booking_created_total",
			Help:      "Count of bookings admitted.",
		},
	)

	bookingRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vetdesk",
			Name:      "booking_rejected_total",
			Help:      "Count of booking admissions rejected by kind.",
		},
		[]string{"kind"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(slotListings, slotListingStaffErrors, bookingCreated, bookingRejected)
	})
}

func IncSlotListing() {
	slotListings.Inc()
}

func AddSlotListingStaffErrors(n int) {
	slotListingStaffErrors.Add(float64(n))
}

func IncBookingCreated() {
	bookingCreated.Inc()
}

func IncBookingRejected(kind string) {
	bookingRejected.WithLabelValues(kind).Inc()
}
