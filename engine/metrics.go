package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var evalDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name: "sentinel_evaluation_duration_sec",
	Help: "Total duration of safety evaluation",
}, []string{"type"})

var evalCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "sentinel_evaluations_processed",
	Help: "Number of evaluations processed",
}, []string{"type"})

var evalErrorCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "sentinel_evaluation_errors",
	Help: "Number of evaluations which failed processing",
}, []string{"type"})

var detectionCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "sentinel_detections",
	Help: "Number of category detections persisted",
}, []string{"category"})

var escalationCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "sentinel_escalations",
	Help: "Number of escalation records created",
})

var storeErrorCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "sentinel_store_write_errors",
	Help: "Number of counter-store write failures, by operation",
}, []string{"op"})

var classifierErrorCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "sentinel_classifier_errors",
	Help: "Number of image classifier failures (treated as clean)",
})

var queueOverflowCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "sentinel_queue_overflow",
	Help: "Number of evaluations processed outside the worker pool because the queue was full",
})
