package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "botrelay_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// Relay metrics
	DeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "botrelay_deliveries_total",
			Help: "Webhook delivery chains by final outcome",
		},
		[]string{"outcome"}, // text_reply, attachment_reply, no_reply, timeout, failed
	)

	DeliveryAttempts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "botrelay_delivery_attempts_total",
			Help: "Individual webhook HTTP attempts, retries included",
		},
	)

	DeliveryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "botrelay_delivery_duration_seconds",
			Help:    "Duration of a full delivery chain",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
	)

	SuppressedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "botrelay_suppressed_total",
			Help: "Messages whose notification was suppressed by the classifier",
		},
		[]string{"reason"},
	)

	TasksDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "botrelay_tasks_dropped_total",
			Help: "Delivery tasks dropped before execution",
		},
		[]string{"reason"}, // queue_full, shutdown, analysis_pending, duplicate
	)

	EventsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "botrelay_events_dropped_total",
			Help: "Message events dropped by the event bus",
		},
		[]string{"reason"}, // full, closed
	)

	RepliesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "botrelay_replies_total",
			Help: "Messages created from bot webhook responses",
		},
		[]string{"kind"}, // text, attachment, timeout
	)
)
