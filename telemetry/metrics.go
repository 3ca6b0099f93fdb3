// Package telemetry holds logging setup and the Prometheus metrics exported on /metrics.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests processed, by method, route template, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request latencies, by method and route template.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	// CredentialsIssuedTotal counts new credential rows by reason (initial, rotate).
	CredentialsIssuedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkin_credentials_issued_total",
			Help: "Total number of check-in credentials issued, by reason.",
		},
		[]string{"reason"},
	)

	// RedemptionsTotal counts redemption attempts by logical result code.
	RedemptionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkin_redemptions_total",
			Help: "Total number of check-in redemption attempts, by result code.",
		},
		[]string{"result"},
	)

	CredentialRefreshErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "checkin_credential_refresh_errors_total",
			Help: "Total number of failed background credential refreshes.",
		},
	)
)
