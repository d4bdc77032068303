package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

//nolint:gochecknoglobals // Prometheus collectors are process-wide by design
var (
	// SessionsLive tracks devices with a live transport right now.
	SessionsLive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "gateway_sessions_live",
		Help: "Number of devices with a live transport connection.",
	})

	// CommandsTotal counts dispatched commands by terminal result.
	CommandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_commands_total",
		Help: "Commands dispatched to devices, by result (ok, unreachable, send_failed, timeout, device_error, canceled).",
	}, []string{"result"})

	// FramesTotal counts inbound device frames by classified kind.
	FramesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_frames_total",
		Help: "Inbound device frames, by classified kind.",
	}, []string{"kind"})

	// CollectorForwardsTotal counts telemetry forwards to the collector.
	CollectorForwardsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_collector_forwards_total",
		Help: "Telemetry batches forwarded to the collector, by kind and result.",
	}, []string{"kind", "result"})
)

// Handler exposes the default prometheus registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
