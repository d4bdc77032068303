package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"led-fleet-gateway/internal/collector"
	"led-fleet-gateway/internal/gateway"
)

type fakeForwarder struct {
	mu       sync.Mutex
	playLogs []string
	fixes    []string
	delivery collector.Delivery
}

func (f *fakeForwarder) PostPlayLogs(_ context.Context, deviceID string, _ []json.RawMessage) collector.Delivery {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.playLogs = append(f.playLogs, deviceID)

	return f.delivery
}

func (f *fakeForwarder) PostGPS(_ context.Context, deviceID string, _ json.RawMessage) collector.Delivery {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fixes = append(f.fixes, deviceID)

	return f.delivery
}

func TestRoutePlayLogs(t *testing.T) {
	t.Parallel()

	fw := &fakeForwarder{delivery: collector.Delivery{Sent: true}}
	r := NewRouter(slog.New(slog.NewTextHandler(io.Discard, nil)), fw)

	logs := []gateway.RawLog{gateway.RawLog(`{"ad":"a1"}`)}
	d := r.RoutePlayLogs(context.Background(), "taxi-1", logs)

	require.True(t, d.Sent)
	require.NoError(t, d.Err)
	assert.Equal(t, []string{"taxi-1"}, fw.playLogs)
}

func TestRoutePlayLogsEmptyBatchSkipsCollector(t *testing.T) {
	t.Parallel()

	fw := &fakeForwarder{delivery: collector.Delivery{Sent: true}}
	r := NewRouter(slog.New(slog.NewTextHandler(io.Discard, nil)), fw)

	d := r.RoutePlayLogs(context.Background(), "taxi-1", nil)

	assert.False(t, d.Sent)
	assert.Empty(t, fw.playLogs)
}

func TestRouteGps(t *testing.T) {
	t.Parallel()

	fw := &fakeForwarder{delivery: collector.Delivery{Sent: true}}
	r := NewRouter(slog.New(slog.NewTextHandler(io.Discard, nil)), fw)

	d := r.RouteGps(context.Background(), "taxi-1", gateway.RawFix(`{"lat":1,"lng":2}`))

	require.True(t, d.Sent)
	assert.Equal(t, []string{"taxi-1"}, fw.fixes)
}

func TestRouteFailureIsNotPropagated(t *testing.T) {
	t.Parallel()

	fw := &fakeForwarder{delivery: collector.Delivery{Sent: true, Err: errors.New("collector down")}}
	r := NewRouter(slog.New(slog.NewTextHandler(io.Discard, nil)), fw)

	// The sink interface swallows the outcome entirely
	r.PlayLogs(context.Background(), "taxi-1", []gateway.RawLog{gateway.RawLog(`{}`)})
	r.GPS(context.Background(), "taxi-1", gateway.RawFix(`{}`))

	assert.Equal(t, []string{"taxi-1"}, fw.playLogs)
	assert.Equal(t, []string{"taxi-1"}, fw.fixes)
}
