package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service.
type Metrics struct {
	ActiveSessions    prometheus.Gauge
	Handshakes        *prometheus.CounterVec
	Tickets           *prometheus.CounterVec
	WSFrames          *prometheus.CounterVec
	MessagesPersisted prometheus.Counter
	BroadcastDrops    prometheus.Counter
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		ActiveSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_chat_sessions",
			Help:      "Number of live websocket chat sessions.",
		}),
		Handshakes: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handshakes_total",
			Help:      "Websocket handshake attempts by outcome.",
		}, []string{"outcome"}),
		Tickets: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tickets_total",
			Help:      "Connection ticket events by type.",
		}, []string{"event"}),
		WSFrames: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ws_frames_total",
			Help:      "WebSocket frames by direction and disposition.",
		}, []string{"direction", "disposition"}),
		MessagesPersisted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_persisted_total",
			Help:      "Chat messages appended to the message log.",
		}),
		BroadcastDrops: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "broadcast_drops_total",
			Help:      "Sessions pruned because their outbound queue saturated.",
		}),
	}
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
