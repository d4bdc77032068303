package api

import (
	"log/slog"
	"time"

	"led-fleet-gateway/internal/gateway"
)

const (
	CoreGroup    = "Core"
	DeviceGroup  = "Devices"
	CommandGroup = "Commands"
)

// Handler represents the gateway API handler.
type Handler struct {
	l          *slog.Logger
	registry   *gateway.Registry
	dispatcher *gateway.Dispatcher
	sessions   *gateway.SessionManager

	commandTimeout time.Duration
	startedAt      time.Time
}

// NewHandler creates a new gateway API handler.
func NewHandler(
	l *slog.Logger,
	registry *gateway.Registry,
	dispatcher *gateway.Dispatcher,
	sessions *gateway.SessionManager,
	commandTimeout time.Duration,
) *Handler {
	return &Handler{
		l:              l.With(slog.String("component", "api")),
		registry:       registry,
		dispatcher:     dispatcher,
		sessions:       sessions,
		commandTimeout: commandTimeout,
		startedAt:      time.Now(),
	}
}
