// Package metrics defines the Prometheus instrumentation for the engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles the engine's counters. Construct once per process with New
// and share the instance.
type Metrics struct {
	WebhookDeliveries *prometheus.CounterVec
	Notifications     *prometheus.CounterVec
	DeliveryFailures  prometheus.Counter
	FetchErrors       prometheus.Counter
	LeaseRenewals     *prometheus.CounterVec
}

// New creates the metrics and registers them on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		WebhookDeliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dcyt_webhook_deliveries_total",
			Help: "WebSub content deliveries by outcome (accepted, bad_signature, bad_request, unknown_callback).",
		}, []string{"outcome"}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dcyt_notifications_total",
			Help: "Classified notifications by kind.",
		}, []string{"kind"}),
		DeliveryFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dcyt_delivery_failures_total",
			Help: "Per-subscription send failures.",
		}),
		FetchErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dcyt_fetch_errors_total",
			Help: "Upstream video data fetch failures.",
		}),
		LeaseRenewals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dcyt_lease_renewals_total",
			Help: "Hub lease renewal attempts by outcome (ok, error).",
		}, []string{"outcome"}),
	}

	reg.MustRegister(
		m.WebhookDeliveries,
		m.Notifications,
		m.DeliveryFailures,
		m.FetchErrors,
		m.LeaseRenewals,
	)

	return m
}

// NewUnregistered creates metrics bound to a private registry, for tests.
func NewUnregistered() *Metrics {
	return New(prometheus.NewRegistry())
}
