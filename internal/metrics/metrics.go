package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Connections = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ws_active_connections",
		Help: "Active websocket connections",
	})
	MessagesSent = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "messages_sent_total",
		Help: "Canonical messages persisted and fanned out",
	})
	PersistFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "message_persist_failures_total",
		Help: "Send requests aborted because persistence failed",
	})
	EventsDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ws_events_dropped_total",
		Help: "Outbound events dropped on a slow client channel",
	})
)

func Init() {
	prometheus.MustRegister(Connections, MessagesSent, PersistFailures, EventsDropped)
}

// Handler returns an http.Handler for Prometheus scraping.
func Handler() http.Handler {
	return promhttp.Handler()
}
