// Package metrics collects and exposes Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector counts the domain events the platform cares about.
type Collector struct {
	applicationsSubmitted prometheus.Counter
	statusTransitions     *prometheus.CounterVec
	emails                *prometheus.CounterVec
	registry              *prometheus.Registry
}

// NewCollector creates a Collector backed by its own registry.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	c := &Collector{
		applicationsSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "jobboard_applications_submitted_total",
			Help: "Total applications accepted by Submit.",
		}),
		statusTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobboard_status_transitions_total",
			Help: "Total application status transitions, by target status.",
		}, []string{"status"}),
		emails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobboard_emails_total",
			Help: "Total email dispatch attempts, by kind and outcome.",
		}, []string{"kind", "outcome"}),
		registry: reg,
	}
	reg.MustRegister(c.applicationsSubmitted, c.statusTransitions, c.emails)
	return c
}

func (c *Collector) RecordApplicationSubmitted() {
	c.applicationsSubmitted.Inc()
}

func (c *Collector) RecordStatusTransition(status string) {
	c.statusTransitions.WithLabelValues(status).Inc()
}

func (c *Collector) RecordEmail(kind, outcome string) {
	c.emails.WithLabelValues(kind, outcome).Inc()
}

// Handler serves the /metrics endpoint.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
