// Nearline - Location-aware Dating & Social Backend
// Copyright 2026 Nearline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nearline-social/nearline

/*
Package metrics provides Prometheus metrics collection and export for observability.

# Overview

The package provides metrics for:
  - HTTP request latency and throughput
  - Write pipeline throughput and error rate
  - Location index discovery session activity
  - Automated moderation decisions and backlog
  - Account cache hit/miss rates
  - WebSocket gateway connection counts
  - Circuit breaker state (event bus publisher, moderation LLM client)
  - Event bus publish/consume counts

# Metrics Endpoint

Metrics are exposed at the /metrics endpoint in Prometheus text format:

	curl http://localhost:8080/metrics

# Usage Example

Basic setup in main.go:

	import (
	    "net/http"

	    "github.com/prometheus/client_golang/prometheus/promhttp"
	)

	func main() {
	    http.Handle("/metrics", promhttp.Handler())
	}

Recording HTTP metrics with middleware:

	func PrometheusMetrics(next http.HandlerFunc) http.HandlerFunc {
	    return func(w http.ResponseWriter, r *http.Request) {
	        metrics.TrackActiveRequest(true)
	        defer metrics.TrackActiveRequest(false)
	        start := time.Now()
	        wrapper := &metricsResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
	        next(wrapper, r)
	        metrics.RecordAPIRequest(r.Method, r.URL.Path, strconv.Itoa(wrapper.statusCode), time.Since(start))
	    }
	}

Wiring a circuit breaker:

	breaker := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
	    Name: "profile-text-moderation-llm",
	    OnStateChange: func(name string, from, to gobreaker.State) {
	        metrics.RecordCircuitBreakerTransition(name, from.String(), to.String())
	    },
	})

# Prometheus Configuration

Example prometheus.yml configuration:

	scrape_configs:
	  - job_name: 'nearline'
	    static_configs:
	      - targets: ['localhost:8080']
	    metrics_path: '/metrics'
	    scrape_interval: 15s

Example PromQL queries:

	# API p95 latency
	histogram_quantile(0.95, rate(api_request_duration_seconds_bucket[5m]))

	# Write pipeline error rate
	rate(write_pipeline_errors_total[5m]) / rate(write_pipeline_duration_seconds_count[5m])

	# Account cache hit rate
	sum(rate(cache_hits_total{cache_type="account"}[5m])) /
	  (sum(rate(cache_hits_total{cache_type="account"}[5m])) + sum(rate(cache_misses_total{cache_type="account"}[5m])))

# Thread Safety

All metric recording functions are thread-safe; the Prometheus client
library handles synchronization internally.

# Cardinality Management

Labels are fixed, small enumerations (method, endpoint, stage, verdict,
cache type, error type, breaker name) — never account IDs or other
high-cardinality values.

# See Also

  - internal/middleware: HTTP middleware with metrics integration
  - internal/eventbus: event bus publish/consume/circuit-breaker metrics
  - internal/moderation: automated decision and circuit-breaker metrics
  - https://prometheus.io/docs/practices/naming/: Metric naming conventions
*/
package metrics
