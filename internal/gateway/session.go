package gateway

import (
	"context"
	"log/slog"

	"led-fleet-gateway/internal/observability/metrics"
	"led-fleet-gateway/pkg/utils"
)

// TelemetrySink receives unsolicited device telemetry. Implementations are
// best-effort: they never block the session read loop on delivery outcome.
type TelemetrySink interface {
	PlayLogs(ctx context.Context, deviceID string, logs []RawLog)
	GPS(ctx context.Context, deviceID string, fix RawFix)
}

// RawLog is one opaque play-log entry as sent by the device.
type RawLog = []byte

// RawFix is one opaque GPS fix frame as sent by the device.
type RawFix = []byte

// ackFrame is the synchronous acknowledgment devices require for play-log
// batches; without it they buffer and retransmit.
type ackFrame struct {
	Type          string `json:"type"`
	Success       bool   `json:"success"`
	CorrelationID string `json:"correlationId,omitempty"`
}

// SessionManager owns the lifecycle of device connections: registration,
// inbound message dispatch, disconnect cleanup and deferred eviction.
type SessionManager struct {
	l         *slog.Logger
	registry  *Registry
	pending   *PendingTable
	telemetry TelemetrySink
}

// NewSessionManager wires the manager over its collaborators.
func NewSessionManager(l *slog.Logger, registry *Registry, pending *PendingTable, telemetry TelemetrySink) *SessionManager {
	return &SessionManager{
		l:         l.With(slog.String("component", "sessions")),
		registry:  registry,
		pending:   pending,
		telemetry: telemetry,
	}
}

// Run drives one device connection until its transport dies. It blocks; the
// accept path starts it on its own goroutine. The connection is anonymous
// until its first registration frame.
func (m *SessionManager) Run(ctx context.Context, t Transport) {
	l := m.l.With(slog.String("remote_addr", t.RemoteAddr()))
	l.Debug("connection opened")

	deviceID := ""

	defer func() {
		_ = t.Close("connection closed")
		m.disconnect(l, deviceID, t)
	}()

	for {
		data, err := t.Receive()
		if err != nil {
			l.Debug("transport closed", utils.ErrAttr(err))

			return
		}

		frame := Classify(data)
		metrics.FramesTotal.WithLabelValues(frame.Kind.String()).Inc()

		if deviceID != "" {
			m.registry.MarkSeen(deviceID)
		}

		switch frame.Kind {
		case FrameInvalid:
			// Non-JSON noise (stray bytes, TLS probes on the plaintext
			// port). Kept quiet to avoid log storms.
			l.Debug("dropping malformed frame")

		case FrameRegistration:
			deviceID = frame.DeviceID
			l = m.l.With(
				slog.String("remote_addr", t.RemoteAddr()),
				slog.String("device_id", deviceID),
			)
			m.registry.Register(deviceID, t)
			m.registry.SetMetadata(deviceID, frame.Metadata)
			l.Info("device registered")

		case FrameRestart:
			l.Info("device restart notice")

		case FramePlayLogs:
			m.handlePlayLogs(ctx, l, deviceID, t, frame)

		case FrameGPS:
			if deviceID == "" {
				l.Warn("gps fix from unregistered connection")

				continue
			}

			go m.telemetry.GPS(ctx, deviceID, RawFix(frame.Raw))

		case FrameReply:
			res := Result{Reply: frame.Raw}
			if frame.IsError {
				res = Result{Err: &DeviceError{Message: frame.ErrMessage}}
			}

			if !m.pending.Resolve(frame.CorrelationID, res) {
				l.Debug("reply without pending command",
					slog.String("correlation_id", frame.CorrelationID))
			}

		case FrameUnknown:
			l.Info("unclassified frame", slog.String("payload", string(frame.Raw)))
		}
	}
}

// handlePlayLogs acks the batch synchronously, then forwards it. The ack
// must not depend on collector availability.
func (m *SessionManager) handlePlayLogs(ctx context.Context, l *slog.Logger, deviceID string, t Transport, frame Frame) {
	ack := ackFrame{Type: "ack", Success: true, CorrelationID: frame.CorrelationID}
	if err := t.Send(ack); err != nil {
		l.Warn("failed to ack play logs", utils.ErrAttr(err))
	}

	if deviceID == "" {
		l.Warn("play logs from unregistered connection")

		return
	}

	logs := make([]RawLog, 0, len(frame.Logs))
	for _, entry := range frame.Logs {
		logs = append(logs, RawLog(entry))
	}

	go m.telemetry.PlayLogs(ctx, deviceID, logs)
}

// disconnect moves the session out of the live state. Outstanding commands
// for the device fail immediately instead of waiting out their deadlines.
// A connection superseded by a newer one skips cleanup entirely: the session
// now belongs to the replacement.
func (m *SessionManager) disconnect(l *slog.Logger, deviceID string, t Transport) {
	if deviceID == "" {
		l.Debug("anonymous connection closed")

		return
	}

	if !m.registry.Disconnect(deviceID, t) {
		return
	}

	if n := m.pending.FailDevice(deviceID, ErrDeviceUnreachable); n > 0 {
		l.Info("failed outstanding commands on disconnect", slog.Int("count", n))
	}

	l.Info("device disconnected")
}
