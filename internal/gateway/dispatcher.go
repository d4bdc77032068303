package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"led-fleet-gateway/internal/observability/metrics"
	"led-fleet-gateway/pkg/utils"
)

// correlationField is injected into every outbound command payload when the
// caller did not supply one; replies echo it back.
const correlationField = "correlationId"

// Dispatcher sends commands to devices and awaits their correlated replies.
// A command either resolves with the device's reply frame or fails with one
// of the terminal dispatch errors; nothing is retried.
type Dispatcher struct {
	l        *slog.Logger
	registry *Registry
	pending  *PendingTable
}

// NewDispatcher creates a Dispatcher over the given registry and table.
func NewDispatcher(l *slog.Logger, registry *Registry, pending *PendingTable) *Dispatcher {
	return &Dispatcher{
		l:        l.With(slog.String("component", "dispatcher")),
		registry: registry,
		pending:  pending,
	}
}

// Send delivers payload to deviceID and blocks until the correlated reply,
// the timeout, or a terminal failure. The payload map is mutated to carry a
// correlation id when the caller did not set one.
//
// No pending entry is created when the device is unreachable, and a failed
// or timed-out command always fully removes its entry.
func (d *Dispatcher) Send(ctx context.Context, deviceID string, payload map[string]any, timeout time.Duration) (json.RawMessage, error) {
	t, ok := d.registry.Lookup(deviceID)
	if !ok {
		metrics.CommandsTotal.WithLabelValues("unreachable").Inc()

		return nil, fmt.Errorf("%w: %s", ErrDeviceUnreachable, deviceID)
	}

	correlationID, _ := payload[correlationField].(string)
	if correlationID == "" {
		correlationID = utils.NewUUID()
		payload[correlationField] = correlationID
	}

	ch, err := d.pending.Add(correlationID, deviceID, timeout)
	if err != nil {
		return nil, err
	}

	if err := t.Send(payload); err != nil {
		// Cancels the deadline and removes the entry in one step
		d.pending.Resolve(correlationID, Result{Err: fmt.Errorf("%w: %v", ErrSendFailed, err)})
	} else {
		d.l.Debug("command sent",
			slog.String("device_id", deviceID),
			slog.String("correlation_id", correlationID),
		)
	}

	var res Result

	select {
	case res = <-ch:
	case <-ctx.Done():
		// The entry resolves exactly once: either this wins and the
		// context error lands in the channel, or the real resolution
		// got there first and is waiting for us.
		d.pending.Resolve(correlationID, Result{Err: ctx.Err()})
		res = <-ch
	}

	metrics.CommandsTotal.WithLabelValues(resultLabel(res.Err)).Inc()

	if res.Err != nil {
		return nil, res.Err
	}

	return res.Reply, nil
}

func resultLabel(err error) string {
	var devErr *DeviceError

	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrDeviceUnreachable):
		return "unreachable"
	case errors.Is(err, ErrSendFailed):
		return "send_failed"
	case errors.As(err, &devErr):
		return "device_error"
	default:
		return "canceled"
	}
}
