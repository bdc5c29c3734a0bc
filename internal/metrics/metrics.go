package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Change event outcomes recorded by RecordChange.
const (
	OutcomeSent         = "sent"
	OutcomeDropped      = "dropped"
	OutcomeFiltered     = "filtered"
	OutcomeEncodeError  = "encode_error"
	OutcomeDisconnected = "disconnected"
)

type Registry struct {
	registry      *prometheus.Registry
	changeEvents  *prometheus.CounterVec
	watcherErrors prometheus.Counter
	activeStreams prometheus.Gauge
	fileResponses *prometheus.CounterVec
}

func NewRegistry() *Registry {
	registry := prometheus.NewRegistry()
	r := &Registry{
		registry: registry,
		changeEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "servelive_change_events_total",
			Help: "Filesystem change notifications by outcome.",
		}, []string{"outcome"}),
		watcherErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "servelive_watcher_errors_total",
			Help: "Errors reported by the filesystem watcher.",
		}),
		activeStreams: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "servelive_event_streams_active",
			Help: "Open change event streams.",
		}),
		fileResponses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "servelive_file_responses_total",
			Help: "File server responses by status code.",
		}, []string{"code"}),
	}
	registry.MustRegister(r.changeEvents, r.watcherErrors, r.activeStreams, r.fileResponses)
	return r
}

func (r *Registry) RecordChange(outcome string) {
	if r == nil {
		return
	}
	r.changeEvents.WithLabelValues(outcome).Inc()
}

func (r *Registry) IncWatcherErrors() {
	if r == nil {
		return
	}
	r.watcherErrors.Inc()
}

func (r *Registry) StreamOpened() {
	if r == nil {
		return
	}
	r.activeStreams.Inc()
}

func (r *Registry) StreamClosed() {
	if r == nil {
		return
	}
	r.activeStreams.Dec()
}

func (r *Registry) RecordFileResponse(status int) {
	if r == nil {
		return
	}
	r.fileResponses.WithLabelValues(strconv.Itoa(status)).Inc()
}

// Gatherer exposes the underlying registry, mostly for tests.
func (r *Registry) Gatherer() prometheus.Gatherer {
	if r == nil {
		return prometheus.NewRegistry()
	}
	return r.registry
}

// Handler serves the registry in the Prometheus text format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.Gatherer(), promhttp.HandlerOpts{})
}
