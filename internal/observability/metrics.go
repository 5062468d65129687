package observability

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tbourn/go-order-backend/internal/domain"
)

// Notification sources used as the "source" label.
const (
	SourceLifecycle = "lifecycle"
	SourceAPI       = "api"
)

var (
	// OrdersCreated counts successfully persisted orders.
	OrdersCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "orders_created_total",
			Help: "Total number of orders created.",
		},
	)

	// StatusTransitions counts status writes by target status. Free-form
	// statuses are folded into "OTHER" to keep cardinality bounded.
	StatusTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "order_status_transitions_total",
			Help: "Total number of order status transitions by target status.",
		},
		[]string{"status"},
	)

	// NotificationsCreated counts appended notifications by source.
	NotificationsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_created_total",
			Help: "Total number of notifications appended.",
		},
		[]string{"source"},
	)

	// RateLimited counts requests rejected by the rate limiter, by whether
	// the bucket was keyed on a session or on the client address.
	RateLimited = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_rate_limited_total",
			Help: "Total number of requests rejected with 429.",
		},
		[]string{"key"},
	)

	// SessionsDistinct gauges the number of distinct session identifiers
	// seen since process start.
	SessionsDistinct = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "order_sessions_distinct",
			Help: "Distinct authenticated session identifiers seen since start.",
		},
	)
)

func init() {
	prometheus.MustRegister(OrdersCreated, StatusTransitions, NotificationsCreated, RateLimited, SessionsDistinct)
}

// StatusLabel maps a status to its metric label value.
func StatusLabel(status string) string {
	switch status {
	case domain.StatusPending, domain.StatusAccepted, domain.StatusDeclined, domain.StatusCancelled:
		return status
	default:
		return "OTHER"
	}
}
