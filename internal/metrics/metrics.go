// Package metrics registers AERO's Prometheus instruments on the default
// registry. Handlers and clients record through the package-level helpers so
// call sites stay free of prometheus plumbing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	apiRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "aero_api_requests_total",
		Help: "Requests issued to the sensors API, by operation and outcome.",
	}, []string{"op", "outcome"})

	apiDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "aero_api_request_duration_seconds",
		Help:    "Latency of sensors API calls.",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	}, []string{"op"})

	staleDiscards = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "aero_stale_responses_discarded_total",
		Help: "Completions dropped because a newer request superseded them.",
	}, []string{"loader"})

	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "aero_active_sessions",
		Help: "Dashboard sessions currently logged in.",
	})

	forcedLogouts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "aero_forced_logouts_total",
		Help: "Sessions terminated because the API reported an expired token.",
	})
)

// ObserveAPIRequest records one sensors-API call.
func ObserveAPIRequest(op string, err error, d time.Duration) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	apiRequests.WithLabelValues(op, outcome).Inc()
	apiDuration.WithLabelValues(op).Observe(d.Seconds())
}

// IncStaleDiscard counts a completion that lost the request-generation race.
func IncStaleDiscard(loader string) {
	staleDiscards.WithLabelValues(loader).Inc()
}

// SessionOpened / SessionClosed track the live session gauge.
func SessionOpened() { activeSessions.Inc() }
func SessionClosed() { activeSessions.Dec() }

// IncForcedLogout counts a scheduled logout that fired.
func IncForcedLogout() { forcedLogouts.Inc() }
