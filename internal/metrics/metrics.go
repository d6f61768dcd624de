package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "graycontrols"

// Metrics holds every collector. Control ids are never used as labels;
// connection ids and action kinds are bounded by what is installed.
type Metrics struct {
	registry *prometheus.Registry

	presses    *prometheus.CounterVec
	actions    *prometheus.CounterVec
	triggers   *prometheus.CounterVec
	learns     *prometheus.HistogramVec
	dropped    *prometheus.CounterVec
	failed     *prometheus.CounterVec
	dispatched *prometheus.CounterVec
}

// New creates the collectors and registers them, with the Go runtime and
// process collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		presses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "control_presses_total",
			Help:      "Presses and releases of bank controls.",
		}, []string{"pressed"}),
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actions_executed_total",
			Help:      "External actions handed to the dispatcher.",
		}, []string{"connection_id", "action"}),
		triggers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "triggers_fired_total",
			Help:      "Trigger executions.",
		}, []string{"test"}),
		learns: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "learn_duration_seconds",
			Help:      "Duration of learn requests to connections.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"connection_id", "result"}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_dropped_total",
			Help:      "Notifications dropped because a connection queue was full.",
		}, []string{"connection_id"}),
		failed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_failed_total",
			Help:      "Notifications a connection rejected or did not answer.",
		}, []string{"connection_id", "op"}),
		dispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connection_executions_total",
			Help:      "Action executions delivered to a connection.",
		}, []string{"connection_id"}),
	}
	m.registry.MustRegister(
		m.presses, m.actions, m.triggers, m.learns,
		m.dropped, m.failed, m.dispatched,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry the collectors live in.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) RecordPress(_, _ string, pressed bool) {
	m.presses.WithLabelValues(strconv.FormatBool(pressed)).Inc()
}

func (m *Metrics) RecordActionExecution(_, connectionID, action string) {
	m.actions.WithLabelValues(connectionID, action).Inc()
}

func (m *Metrics) RecordTriggerFired(_ string, isTest bool) {
	m.triggers.WithLabelValues(strconv.FormatBool(isTest)).Inc()
}

func (m *Metrics) RecordLearn(connectionID string, ok bool, duration time.Duration) {
	result := "ok"
	if !ok {
		result = "error"
	}
	m.learns.WithLabelValues(connectionID, result).Observe(duration.Seconds())
}

func (m *Metrics) NotificationDropped(connectionID string) {
	m.dropped.WithLabelValues(connectionID).Inc()
}

func (m *Metrics) NotificationFailed(connectionID, op string) {
	m.failed.WithLabelValues(connectionID, op).Inc()
}

func (m *Metrics) ActionExecuted(connectionID string) {
	m.dispatched.WithLabelValues(connectionID).Inc()
}
