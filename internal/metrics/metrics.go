// Nearline - Location-aware Dating & Social Backend
// Copyright 2026 Nearline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nearline-social/nearline

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// This package instruments the pieces of Nearline that run for the
// whole life of the process: the HTTP API, the write pipeline, the
// WebSocket gateway, the account cache, the event bus, and the
// moderation pipeline's circuit breakers.

var (
	// API Endpoint Metrics

	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Write Pipeline Metrics. Write is the single serialized lane every
	// mutating operation runs through, so its duration is the ceiling on
	// how many account writes the process can do per second.
	WritePipelineDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "write_pipeline_duration_seconds",
			Help:    "Duration of serialized write pipeline operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	WritePipelineErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "write_pipeline_errors_total",
			Help: "Total number of write pipeline operations that returned an error",
		},
	)

	// Location Index Metrics
	LocationIndexOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "location_index_operations_total",
			Help: "Total number of location index operations",
		},
		[]string{"operation"}, // "start_session", "page", "end_session"
	)

	LocationIndexActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "location_index_active_sessions",
			Help: "Current number of in-flight discovery iterator sessions",
		},
	)

	// Moderation Metrics
	ModerationDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moderation_decisions_total",
			Help: "Total number of automated moderation decisions",
		},
		[]string{"stage", "verdict"}, // stage: "content", "text"; verdict: "approved", "rejected", "move_to_human"
	)

	ModerationQueueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "moderation_queue_depth",
			Help: "Current number of items awaiting automated moderation",
		},
		[]string{"stage"},
	)

	// Cache Metrics (General)
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache_type"}, // "account"
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	CacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_evictions_total",
			Help: "Total number of cache evictions (TTL expiry or explicit invalidation)",
		},
		[]string{"cache_type"},
	)

	CacheSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cache_entries",
			Help: "Current number of cached entries",
		},
		[]string{"cache_type"},
	)

	// WebSocket Gateway Metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections",
			Help: "Current number of connected accounts",
		},
	)

	WSConnectsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_connects_total",
			Help: "Total number of WebSocket connections accepted",
		},
	)

	WSDisconnectsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_disconnects_total",
			Help: "Total number of WebSocket connections closed",
		},
	)

	WSMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Total number of WebSocket frames sent",
		},
	)

	WSMessagesReceived = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_received_total",
			Help: "Total number of WebSocket frames received",
		},
	)

	WSErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_errors_total",
			Help: "Total number of WebSocket errors",
		},
		[]string{"error_type"},
	)

	// Circuit Breaker Metrics. Both the event bus's NATS publisher and
	// the profile-text moderation LLM client run behind a
	// sony/gobreaker breaker; this tracks both by name.
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Event Bus Metrics
	EventBusPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventbus_messages_published_total",
			Help: "Total number of events published to the bus",
		},
		[]string{"kind"},
	)

	EventBusConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventbus_messages_consumed_total",
			Help: "Total number of events delivered to a subscriber",
		},
		[]string{"kind"},
	)

	EventBusParseFailed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "eventbus_messages_parse_failed_total",
			Help: "Total number of event bus messages that failed to decode",
		},
	)

	EventBusPublishErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "eventbus_publish_errors_total",
			Help: "Total number of event bus publish calls that returned an error",
		},
	)

	// Push Notification Metrics
	PushDeliveryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "push_delivery_attempts_total",
			Help: "Total number of push notification delivery attempts",
		},
		[]string{"result"}, // "sent", "token_invalid", "error"
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)

	AppUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "app_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)
)

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordRateLimitHit records a rejected request at endpoint.
func RecordRateLimitHit(endpoint string) {
	APIRateLimitHits.WithLabelValues(endpoint).Inc()
}

// RecordWritePipelineOperation records one pass through the pipeline's
// serialized write lane.
func RecordWritePipelineOperation(duration time.Duration, err error) {
	WritePipelineDuration.Observe(duration.Seconds())
	if err != nil {
		WritePipelineErrors.Inc()
	}
}

// RecordLocationIndexOperation records a discovery iterator operation.
func RecordLocationIndexOperation(operation string) {
	LocationIndexOperations.WithLabelValues(operation).Inc()
}

// SetLocationIndexActiveSessions sets the current in-flight session count.
func SetLocationIndexActiveSessions(count int) {
	LocationIndexActiveSessions.Set(float64(count))
}

// RecordModerationDecision records an automated moderation verdict for stage.
func RecordModerationDecision(stage, verdict string) {
	ModerationDecisionsTotal.WithLabelValues(stage, verdict).Inc()
}

// SetModerationQueueDepth sets the current backlog for stage.
func SetModerationQueueDepth(stage string, depth int64) {
	ModerationQueueDepth.WithLabelValues(stage).Set(float64(depth))
}

// RecordCacheHit, RecordCacheMiss and RecordCacheEviction record cache
// access outcomes for cacheType (e.g. "account").
func RecordCacheHit(cacheType string)      { CacheHits.WithLabelValues(cacheType).Inc() }
func RecordCacheMiss(cacheType string)     { CacheMisses.WithLabelValues(cacheType).Inc() }
func RecordCacheEviction(cacheType string) { CacheEvictions.WithLabelValues(cacheType).Inc() }

// SetCacheSize sets the current entry count for cacheType.
func SetCacheSize(cacheType string, size int64) {
	CacheSize.WithLabelValues(cacheType).Set(float64(size))
}

// RecordWSConnect and RecordWSDisconnect record a gateway connection
// lifecycle event and update the active-connections gauge.
func RecordWSConnect(activeCount int) {
	WSConnectsTotal.Inc()
	WSConnections.Set(float64(activeCount))
}

func RecordWSDisconnect(activeCount int) {
	WSDisconnectsTotal.Inc()
	WSConnections.Set(float64(activeCount))
}

// RecordWSMessageSent and RecordWSMessageReceived count frames moved
// across the gateway in each direction.
func RecordWSMessageSent()     { WSMessagesSent.Inc() }
func RecordWSMessageReceived() { WSMessagesReceived.Inc() }

// RecordWSError records a gateway error of errorType.
func RecordWSError(errorType string) {
	WSErrors.WithLabelValues(errorType).Inc()
}

// circuitBreakerStateValue maps gobreaker's State.String() to the
// closed/half-open/open scale the gauge uses.
func circuitBreakerStateValue(state string) float64 {
	switch state {
	case "half-open":
		return 1
	case "open":
		return 2
	default:
		return 0
	}
}

// RecordCircuitBreakerTransition records a gobreaker state change for a
// breaker named name, suitable for wiring directly into
// gobreaker.Settings.OnStateChange.
func RecordCircuitBreakerTransition(name, from, to string) {
	CircuitBreakerState.WithLabelValues(name).Set(circuitBreakerStateValue(to))
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
}

// RecordEventBusPublish records an event of kind published to the bus,
// and any error the transport returned.
func RecordEventBusPublish(kind string, err error) {
	if err != nil {
		EventBusPublishErrors.Inc()
		return
	}
	EventBusPublished.WithLabelValues(kind).Inc()
}

// RecordEventBusConsumed records an event of kind delivered to a
// subscriber.
func RecordEventBusConsumed(kind string) {
	EventBusConsumed.WithLabelValues(kind).Inc()
}

// RecordEventBusParseFailed records a message that could not be decoded
// back into an Event.
func RecordEventBusParseFailed() {
	EventBusParseFailed.Inc()
}

// RecordPushDelivery records the outcome of a single push notification
// delivery attempt.
func RecordPushDelivery(result string) {
	PushDeliveryAttempts.WithLabelValues(result).Inc()
}
