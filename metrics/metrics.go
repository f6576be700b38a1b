// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager owns the workflow collectors.
type Manager struct {
	namespace string
	subsystem string
	registry  prometheus.Registerer

	areaClosures        *prometheus.CounterVec
	competitionClosures *prometheus.CounterVec
	reversals           *prometheus.CounterVec
	assignmentsCreated  *prometheus.CounterVec
	scoreChanges        *prometheus.CounterVec
	medalsAwarded       *prometheus.CounterVec
	eventsDelivered     *prometheus.CounterVec
	eventsDropped       prometheus.Counter
	eventQueueSize      prometheus.Gauge
}

var customRegistry = prometheus.NewRegistry()

var globalManager *Manager

func init() {
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace: "olympiad",
		subsystem: "workflow",
		registry:  prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.areaClosures = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "area_closures_total",
		Help:      "Area phase closure attempts by phase and result",
	}, []string{"phase", "result"})

	m.competitionClosures = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "competition_closures_total",
		Help:      "Competition closures by trigger and result",
	}, []string{"trigger", "result"})

	m.reversals = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "competition_reversals_total",
		Help:      "Competition closure reversal attempts by result",
	}, []string{"result"})

	m.assignmentsCreated = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "assignments_created_total",
		Help:      "Assignments written by balancing runs and migrations",
	}, []string{"phase", "source"})

	m.scoreChanges = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "score_changes_total",
		Help:      "Score change requests by status transition",
	}, []string{"status"})

	m.medalsAwarded = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "medals_awarded_total",
		Help:      "Medals assigned by tier",
	}, []string{"tier"})

	m.eventsDelivered = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_delivered_total",
		Help:      "Workflow events handed to sinks by sink and result",
	}, []string{"sink", "result"})

	m.eventsDropped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_dropped_total",
		Help:      "Workflow events dropped because the queue was full or closed",
	})

	m.eventQueueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "event_queue_size",
		Help:      "Current number of queued workflow events",
	})
}

// RecordAreaClosure counts an area closure attempt.
func RecordAreaClosure(phase, result string) {
	globalManager.areaClosures.WithLabelValues(phase, result).Inc()
}

// RecordCompetitionClosure counts a competition closure attempt.
func RecordCompetitionClosure(trigger, result string) {
	globalManager.competitionClosures.WithLabelValues(trigger, result).Inc()
}

// RecordReversal counts a reversal attempt.
func RecordReversal(result string) {
	globalManager.reversals.WithLabelValues(result).Inc()
}

// AddAssignments adds n created assignments.
func AddAssignments(phase, source string, n int) {
	if n <= 0 {
		return
	}
	globalManager.assignmentsCreated.WithLabelValues(phase, source).Add(float64(n))
}

// RecordScoreChange counts a score change transition.
func RecordScoreChange(status string) {
	globalManager.scoreChanges.WithLabelValues(status).Inc()
}

// RecordMedal counts an awarded medal.
func RecordMedal(tier string) {
	globalManager.medalsAwarded.WithLabelValues(tier).Inc()
}

// RecordEventDelivery counts a sink delivery.
func RecordEventDelivery(sink, result string) {
	globalManager.eventsDelivered.WithLabelValues(sink, result).Inc()
}

// RecordEventDropped counts an event that never reached the queue.
func RecordEventDropped() {
	globalManager.eventsDropped.Inc()
}

// UpdateEventQueueSize sets the current queue length.
func UpdateEventQueueSize(size int) {
	globalManager.eventQueueSize.Set(float64(size))
}

// GetRegistry returns the registry the global collectors live on.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Handler serves the custom registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(customRegistry, promhttp.HandlerOpts{})
}
