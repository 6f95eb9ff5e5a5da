package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "HTTP requests by service, method, route and status.",
	}, []string{"service", "method", "route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"service", "method", "route"})

	BookingsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookings_created_total",
		Help: "Bookings persisted in pending state.",
	})

	BookingConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "booking_conflicts_total",
		Help: "Booking attempts rejected because a day was full or closed.",
	})

	NotificationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notification_failures_total",
		Help: "Best-effort notifications that could not be delivered.",
	}, []string{"kind"})

	OTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "otp_requests_total",
		Help: "OTP requests by purpose and outcome.",
	}, []string{"purpose", "outcome"})

	OTPVerifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "otp_verifications_total",
		Help: "OTP verify attempts by purpose and outcome.",
	}, []string{"purpose", "outcome"})
)
