// Copyright (C) 2025 NIA Insight Group (dev@niainsight.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package observability provides Prometheus metrics for the hub.
//
// Metrics are exposed via the /metrics endpoint and cover request
// outcomes, AI streaming, Asana sync runs, and rate limiting.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "niahub"

// HubMetrics holds all Prometheus metrics for the hub. Initialize once
// at startup via InitMetrics.
type HubMetrics struct {
	// RequestsTotal counts API requests by route group and status.
	// Labels: group (processes, surveys, tasks, ai, asana, admin), status (success, error)
	RequestsTotal *prometheus.CounterVec

	// AIStreamDurationSeconds measures AI relay duration.
	// Labels: endpoint (narrative, charter, improvement)
	AIStreamDurationSeconds *prometheus.HistogramVec

	// ActiveAIStreams tracks currently open AI relays.
	ActiveAIStreams prometheus.Gauge

	// SyncItemsTotal counts bulk-sync items by outcome.
	// Labels: outcome (ok, error)
	SyncItemsTotal *prometheus.CounterVec

	// RateLimitedTotal counts requests rejected by the rate limiter.
	RateLimitedTotal prometheus.Counter

	// HealthScoreComputedTotal counts process health evaluations.
	HealthScoreComputedTotal prometheus.Counter
}

// DefaultMetrics is the singleton instance, set by InitMetrics.
var DefaultMetrics *HubMetrics

// InitMetrics registers all hub metrics with the default registry.
// Panics if called twice.
func InitMetrics() *HubMetrics {
	DefaultMetrics = &HubMetrics{
		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "requests_total",
				Help:      "Total API requests by route group and status",
			},
			[]string{"group", "status"},
		),

		AIStreamDurationSeconds: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "ai_stream_duration_seconds",
				Help:      "AI relay duration in seconds",
				Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"endpoint"},
		),

		ActiveAIStreams: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Name:      "active_ai_streams",
				Help:      "Number of currently open AI relays",
			},
		),

		SyncItemsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "sync_items_total",
				Help:      "Bulk sync items by outcome",
			},
			[]string{"outcome"},
		),

		RateLimitedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "rate_limited_total",
				Help:      "Requests rejected by the per-user rate limiter",
			},
		),

		HealthScoreComputedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "health_scores_computed_total",
				Help:      "Process health score evaluations",
			},
		),
	}
	return DefaultMetrics
}

// RecordRequest records a completed API request.
func (m *HubMetrics) RecordRequest(group string, success bool) {
	if m == nil {
		return
	}
	status := "success"
	if !success {
		status = "error"
	}
	m.RequestsTotal.WithLabelValues(group, status).Inc()
}

// RecordSyncItem records one bulk-sync item outcome.
func (m *HubMetrics) RecordSyncItem(ok bool) {
	if m == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	m.SyncItemsTotal.WithLabelValues(outcome).Inc()
}

// RecordRateLimited records one rejected request.
func (m *HubMetrics) RecordRateLimited() {
	if m == nil {
		return
	}
	m.RateLimitedTotal.Inc()
}

// RecordHealthScore records one health score evaluation.
func (m *HubMetrics) RecordHealthScore() {
	if m == nil {
		return
	}
	m.HealthScoreComputedTotal.Inc()
}

// ObserveAIStream records the duration of one finished AI relay.
func (m *HubMetrics) ObserveAIStream(endpoint string, seconds float64) {
	if m == nil {
		return
	}
	m.AIStreamDurationSeconds.WithLabelValues(endpoint).Observe(seconds)
}

// StreamStarted marks one AI relay as open. The returned func marks it
// closed; call it exactly once.
func (m *HubMetrics) StreamStarted() func() {
	if m == nil {
		return func() {}
	}
	m.ActiveAIStreams.Inc()
	return func() { m.ActiveAIStreams.Dec() }
}
