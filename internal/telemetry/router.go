package telemetry

import (
	"context"
	"encoding/json"
	"log/slog"

	"led-fleet-gateway/internal/collector"
	"led-fleet-gateway/internal/gateway"
	"led-fleet-gateway/internal/observability/metrics"
	"led-fleet-gateway/pkg/utils"
)

// Forwarder is the downstream side of the router, normally the collector
// HTTP client.
type Forwarder interface {
	PostPlayLogs(ctx context.Context, deviceID string, logs []json.RawMessage) collector.Delivery
	PostGPS(ctx context.Context, deviceID string, fix json.RawMessage) collector.Delivery
}

// Router relays unsolicited device telemetry to the external collector.
// Relative to the device everything here is fire-and-forget: the session
// manager already acked the batch, so forward failures are logged and
// counted but never surfaced upstream.
type Router struct {
	l  *slog.Logger
	fw Forwarder
}

// NewRouter creates a Router over a forwarder.
func NewRouter(l *slog.Logger, fw Forwarder) *Router {
	return &Router{
		l:  l.With(slog.String("component", "telemetry")),
		fw: fw,
	}
}

var _ gateway.TelemetrySink = (*Router)(nil)

// PlayLogs forwards a play-log batch. An empty batch triggers no collector
// call at all.
func (r *Router) PlayLogs(ctx context.Context, deviceID string, logs []gateway.RawLog) {
	r.RoutePlayLogs(ctx, deviceID, logs)
}

// GPS forwards one GPS fix.
func (r *Router) GPS(ctx context.Context, deviceID string, fix gateway.RawFix) {
	r.RouteGps(ctx, deviceID, fix)
}

// RoutePlayLogs forwards a batch and returns the explicit delivery outcome
// so that it stays assertable even though callers discard it.
func (r *Router) RoutePlayLogs(ctx context.Context, deviceID string, logs []gateway.RawLog) collector.Delivery {
	if len(logs) == 0 {
		return collector.Delivery{}
	}

	raw := make([]json.RawMessage, 0, len(logs))
	for _, entry := range logs {
		raw = append(raw, json.RawMessage(entry))
	}

	d := r.fw.PostPlayLogs(ctx, deviceID, raw)
	r.record("playlogs", deviceID, d)

	return d
}

// RouteGps forwards one GPS fix and returns the delivery outcome.
func (r *Router) RouteGps(ctx context.Context, deviceID string, fix gateway.RawFix) collector.Delivery {
	d := r.fw.PostGPS(ctx, deviceID, json.RawMessage(fix))
	r.record("gps", deviceID, d)

	return d
}

func (r *Router) record(kind, deviceID string, d collector.Delivery) {
	switch {
	case !d.Sent:
		// Collector disabled or nothing to send
	case d.Failed():
		metrics.CollectorForwardsTotal.WithLabelValues(kind, "error").Inc()
		r.l.Warn("collector forward failed",
			slog.String("kind", kind),
			slog.String("device_id", deviceID),
			utils.ErrAttr(d.Err),
		)
	default:
		metrics.CollectorForwardsTotal.WithLabelValues(kind, "ok").Inc()
	}
}
