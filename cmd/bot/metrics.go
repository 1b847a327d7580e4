package main

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TotalInteractions is the total number of interactions handled, by verb.
	TotalInteractions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_total_interactions", AppName),
			Help: "Total number of interactions handled",
		},
		[]string{"verb"},
	)

	// InteractionDuration is the duration of interaction handling.
	InteractionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: fmt.Sprintf("%s_interaction_duration", AppName),
			Help: "Duration of interaction handling",
		},
		[]string{"verb"},
	)

	// TotalTenantSessions is the number of connected tenant sessions.
	TotalTenantSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: fmt.Sprintf("%s_total_tenant_sessions", AppName),
			Help: "Number of connected tenant sessions",
		},
	)

	// TotalProviderCalls is the total number of provider calls, by operation
	// and outcome.
	TotalProviderCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_total_provider_calls", AppName),
			Help: "Total number of ticket provider calls",
		},
		[]string{"op", "outcome"},
	)

	// TotalSyncRefreshes is the total number of sync-engine refreshes, by
	// surface and outcome.
	TotalSyncRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_total_sync_refreshes", AppName),
			Help: "Total number of message sync refreshes",
		},
		[]string{"surface", "outcome"},
	)

	// HttpTotalRequests is the total number of http requests.
	HttpTotalRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_http_total_requests", AppName),
			Help: "Total number of http requests",
		},
		[]string{"path", "method", "status_code"},
	)

	// HttpRequestDuration is the duration of the http request.
	HttpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: fmt.Sprintf("%s_http_request_duration", AppName),
			Help: "Duration of the http request",
		},
		[]string{"path", "method", "status_code"},
	)
)

// Outcome labels for TotalProviderCalls and TotalSyncRefreshes.
const (
	outcomeOK     = "ok"
	outcomeFailed = "failed"
	outcomeHealed = "healed"
	outcomeNoop   = "noop"
)
