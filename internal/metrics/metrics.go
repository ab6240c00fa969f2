// Package metrics provides Prometheus instrumentation for the chat gateway.
// It exposes gauges for connection and room occupancy, counters for message
// throughput and enforcement actions, and a histogram for handler latency.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ConnectionsTotal tracks the current number of active WebSocket connections.
	ConnectionsTotal = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "gateway_connections_total",
		Help: "Current number of active WebSocket connections",
	})

	// MessagesTotal counts processed chat messages, labeled by outcome:
	// "delivered", "rejected", or "blocked".
	MessagesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_messages_total",
		Help: "Total number of chat messages processed",
	}, []string{"outcome"})

	// HandlerLatency records per-operation handler latency in seconds.
	HandlerLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gateway_handler_latency_seconds",
		Help:    "Handler processing latency in seconds",
		Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
	}, []string{"op"})

	// RateLimitDenials counts requests denied by the rate limiter, per operation.
	RateLimitDenials = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_rate_limit_denials_total",
		Help: "Total number of requests denied by the rate limiter",
	}, []string{"op"})

	// BansTotal counts ban records written, labeled by trigger:
	// "abuse_signature" or "banned_retry".
	BansTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_bans_total",
		Help: "Total number of ban records written",
	}, []string{"trigger"})

	// RoomMembers tracks the current member count per room.
	RoomMembers = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "gateway_room_members",
		Help: "Current number of members per room",
	}, []string{"room"})

	// OracleChecks counts background oracle classifications by result:
	// "clean", "flagged", or "error".
	OracleChecks = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_oracle_checks_total",
		Help: "Total number of background oracle classifications",
	}, []string{"result"})
)

func init() {
	prometheus.MustRegister(
		ConnectionsTotal,
		MessagesTotal,
		HandlerLatency,
		RateLimitDenials,
		BansTotal,
		RoomMembers,
		OracleChecks,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
