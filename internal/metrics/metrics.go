package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bezero",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		},
		[]string{"route", "status"},
	)

	wsConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "bezero",
			Name:      "ws_connections",
			Help:      "Currently open WebSocket connections.",
		},
	)

	wsMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bezero",
			Name:      "ws_messages_total",
			Help:      "WebSocket frames by direction.",
		},
		[]string{"direction"},
	)

	syncTasks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bezero",
			Name:      "sync_tasks_total",
			Help:      "Google Sheets sync tasks by outcome.",
		},
		[]string{"status"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, wsConnections, wsMessages, syncTasks)
	})
}

// IncHTTP increments the request counter for a route template and status.
func IncHTTP(route, status string) {
	httpRequests.WithLabelValues(route, status).Inc()
}

func WSConnect()    { wsConnections.Inc() }
func WSDisconnect() { wsConnections.Dec() }

// IncWSMessage counts a frame: direction is "in" or "out".
func IncWSMessage(direction string) {
	wsMessages.WithLabelValues(direction).Inc()
}

// IncSyncTask counts a sync task outcome: ok, retry or deadletter.
func IncSyncTask(status string) {
	syncTasks.WithLabelValues(status).Inc()
}
