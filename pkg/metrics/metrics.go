// Package metrics provides Prometheus metrics for the fern service.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AutoLinkRunsTotal tracks auto-link runs by outcome
	AutoLinkRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "autolink",
			Name:      "runs_total",
			Help:      "Total number of auto-link runs by outcome",
		},
		[]string{"dry_run", "status"},
	)

	// AutoLinkRunDuration tracks auto-link run duration in seconds
	AutoLinkRunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fern",
			Subsystem: "autolink",
			Name:      "run_duration_seconds",
			Help:      "Duration of auto-link runs in seconds",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"dry_run"},
	)

	// AutoLinkDecisionsTotal tracks per-record decisions
	AutoLinkDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "autolink",
			Name:      "decisions_total",
			Help:      "Total number of auto-link decisions by action and match type",
		},
		[]string{"action", "match_type"},
	)

	// AutoLinkCandidates tracks the size of the candidate index of the last run
	AutoLinkCandidates = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "fern",
			Subsystem: "autolink",
			Name:      "candidates",
			Help:      "Number of providers indexed by the most recent auto-link run",
		},
	)

	// AutoLinkDuplicateNames tracks providers shadowed by another provider with the same name
	AutoLinkDuplicateNames = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "fern",
			Subsystem: "autolink",
			Name:      "duplicate_names",
			Help:      "Number of providers whose folded name duplicates a lower id provider",
		},
	)

	// KafkaMessagesPublished tracks Kafka messages published
	KafkaMessagesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "kafka",
			Name:      "messages_published_total",
			Help:      "Total number of messages published to Kafka",
		},
		[]string{"topic", "status"},
	)

	// GraphWritesTotal tracks graph projection writes
	GraphWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "graph",
			Name:      "writes_total",
			Help:      "Total number of graph projection writes",
		},
		[]string{"kind", "status"},
	)

	// RedisOperationDuration tracks Redis operation duration
	RedisOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fern",
			Subsystem: "redis",
			Name:      "operation_duration_seconds",
			Help:      "Duration of Redis operations in seconds",
			Buckets:   []float64{0.0001, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1},
		},
		[]string{"operation"},
	)
)

// RecordRun records an auto-link run
func RecordRun(dryRun bool, status string, durationSeconds float64) {
	label := strconv.FormatBool(dryRun)
	AutoLinkRunsTotal.WithLabelValues(label, status).Inc()
	AutoLinkRunDuration.WithLabelValues(label).Observe(durationSeconds)
}

// RecordDecision records a single auto-link decision
func RecordDecision(action, matchType string) {
	AutoLinkDecisionsTotal.WithLabelValues(action, matchType).Inc()
}

// RecordIndex records the candidate index size of a run
func RecordIndex(candidates, duplicates int) {
	AutoLinkCandidates.Set(float64(candidates))
	AutoLinkDuplicateNames.Set(float64(duplicates))
}

// RecordKafkaPublish records a Kafka publish operation
func RecordKafkaPublish(topic, status string) {
	KafkaMessagesPublished.WithLabelValues(topic, status).Inc()
}

// RecordGraphWrite records a graph projection write
func RecordGraphWrite(kind, status string) {
	GraphWritesTotal.WithLabelValues(kind, status).Inc()
}
