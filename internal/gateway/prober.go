package gateway

import (
	"context"
	"log/slog"
	"time"

	"led-fleet-gateway/pkg/utils"
)

// Prober periodically pings every live connection. It never declares a
// device dead itself; a failed ping just hastens the transport's own close
// event, which the session manager observes through the normal path.
type Prober struct {
	l        *slog.Logger
	registry *Registry
	interval time.Duration
}

// NewProber creates a prober over the registry.
func NewProber(l *slog.Logger, registry *Registry, interval time.Duration) *Prober {
	return &Prober{
		l:        l.With(slog.String("component", "prober")),
		registry: registry,
		interval: interval,
	}
}

// Run pings all live sessions on every tick until ctx is done.
func (p *Prober) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Sweep()
		}
	}
}

// Sweep pings every live connection once. Failures are swallowed.
func (p *Prober) Sweep() {
	for _, lc := range p.registry.Live() {
		if err := lc.Transport.Ping(); err != nil {
			p.l.Debug("ping failed",
				slog.String("device_id", lc.DeviceID),
				utils.ErrAttr(err),
			)
		}
	}
}
