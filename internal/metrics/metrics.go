// Package metrics holds the prometheus collectors shared by the function
// host and the push client. They register with the default registry and are
// served by the app's /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Function catalog metrics
	FunctionCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leafkit_function_calls_total",
			Help: "The total number of scalar function invocations",
		},
		[]string{"function"},
	)

	RowsEvaluated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "leafkit_rows_evaluated_total",
			Help: "The total number of rows evaluated by the expression host",
		},
	)

	EvaluationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leafkit_evaluation_errors_total",
			Help: "The total number of expression evaluation errors",
		},
		[]string{"error_type"},
	)

	// Push client metrics
	MessagesReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leafkit_push_messages_received_total",
			Help: "The total number of push messages received",
		},
		[]string{"has_data"},
	)

	TokenRegistrations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leafkit_token_registrations_total",
			Help: "The total number of token registration attempts by outcome",
		},
		[]string{"outcome"},
	)

	TokenRegistrationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "leafkit_token_registration_duration_seconds",
			Help:    "Time spent fetching and forwarding a registration token",
			Buckets: prometheus.DefBuckets,
		},
	)
)
