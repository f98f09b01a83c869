package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the prometheus collectors for the sync subsystem.
type Metrics struct {
	GatewayRequests  *prometheus.CounterVec
	GatewayThrottles prometheus.Counter
	GatewayRetries   prometheus.Counter
	SyncOutcomes     *prometheus.CounterVec
	WebhooksReceived *prometheus.CounterVec
}

// New creates the collectors and registers them with the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		GatewayRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shopify_gateway_requests_total",
			Help: "Outbound Admin GraphQL requests by outcome.",
		}, []string{"outcome"}),
		GatewayThrottles: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shopify_gateway_throttles_total",
			Help: "Requests rejected upstream with a throttling signal.",
		}),
		GatewayRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shopify_gateway_retries_total",
			Help: "Retry attempts issued by the gateway.",
		}),
		SyncOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "content_sync_resources_total",
			Help: "Resource sync outcomes by family.",
		}, []string{"family", "outcome"}),
		WebhooksReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "webhooks_received_total",
			Help: "Inbound webhook deliveries by topic and outcome.",
		}, []string{"topic", "outcome"}),
	}

	reg.MustRegister(
		m.GatewayRequests,
		m.GatewayThrottles,
		m.GatewayRetries,
		m.SyncOutcomes,
		m.WebhooksReceived,
	)
	return m
}
