// Package metrics defines the Prometheus collectors for the relay server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Resolution reasons for the matches_resolved counter.
const (
	ReasonEnded     = "ended"
	ReasonForfeit   = "forfeit"
	ReasonAbandoned = "abandoned"
)

// Metrics holds the server's Prometheus collectors.
type Metrics struct {
	SessionsOnline  prometheus.Gauge
	LobbySize       prometheus.Gauge
	MatchesActive   prometheus.Gauge
	MatchesStarted  prometheus.Counter
	MatchesResolved *prometheus.CounterVec
	MessagesDropped prometheus.Counter
}

// New registers and returns the server collectors on the given registerer.
// Tests pass a fresh prometheus.NewRegistry to avoid duplicate registration.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		SessionsOnline: factory.NewGauge(prometheus.GaugeOpts{
			Name: "laserchess_sessions_online",
			Help: "Number of currently connected sessions.",
		}),
		LobbySize: factory.NewGauge(prometheus.GaugeOpts{
			Name: "laserchess_lobby_size",
			Help: "Number of sessions currently resident in the lobby.",
		}),
		MatchesActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "laserchess_matches_active",
			Help: "Number of matches currently in progress.",
		}),
		MatchesStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "laserchess_matches_started_total",
			Help: "Total number of matches created.",
		}),
		MatchesResolved: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "laserchess_matches_resolved_total",
			Help: "Total number of matches resolved, by reason.",
		}, []string{"reason"}),
		MessagesDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "laserchess_messages_dropped_total",
			Help: "Total outbound messages dropped due to full or closed client buffers.",
		}),
	}
}
