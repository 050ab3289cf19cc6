package middleware

import (
	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RedisErrors counts Redis command failures, labelled by command name.
// The cache package's client hook increments it.
var RedisErrors = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "quill_redis_errors_total",
		Help: "Total number of Redis command errors.",
	},
	[]string{"command"},
)

// NotificationsDispatched counts toast notifications dispatched on the bus.
var NotificationsDispatched = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "quill_notifications_dispatched_total",
		Help: "Total number of notifications dispatched, by kind.",
	},
	[]string{"kind"},
)

// ActiveWebSockets tracks currently open notification stream connections.
var ActiveWebSockets = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name: "quill_active_websockets",
		Help: "Number of currently open WebSocket connections.",
	},
)

// InitMetrics creates the Prometheus HTTP middleware for the given service name.
func InitMetrics(service string) *fiberprometheus.FiberPrometheus {
	return fiberprometheus.New(service)
}
