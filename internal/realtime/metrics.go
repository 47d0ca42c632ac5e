package realtime

import "github.com/prometheus/client_golang/prometheus"

// Frame outcomes.
const (
	outcomeRelayed   = "relayed"
	outcomeEmpty     = "empty"
	outcomeMalformed = "malformed"
	outcomeRejected  = "rejected"
	outcomeEvicted   = "evicted"
)

var (
	sessionsActive = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "realtime_sessions_active",
			Help: "Current number of joined websocket sessions.",
		},
		[]string{"kind"},
	)

	framesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "realtime_frames_total",
			Help: "Inbound realtime frames by room kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)
)

func init() {
	prometheus.MustRegister(sessionsActive, framesTotal)
}
