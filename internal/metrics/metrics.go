package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exposes the relay server's operational gauges and counters.
type Metrics struct {
	ConnectedPlayers prometheus.Gauge
	LiveRooms        prometheus.Gauge
	RelayedMessages  *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ConnectedPlayers: factory.NewGauge(prometheus.GaugeOpts{
			Name: "reflexduel_connected_players",
			Help: "Number of currently connected websocket clients.",
		}),
		LiveRooms: factory.NewGauge(prometheus.GaugeOpts{
			Name: "reflexduel_live_rooms",
			Help: "Number of live rooms.",
		}),
		RelayedMessages: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "reflexduel_relayed_messages_total",
			Help: "In-match messages forwarded between peers, by type.",
		}, []string{"type"}),
	}
}
