package collector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"led-fleet-gateway/pkg/utils"
)

const requestTimeout = 10 * time.Second

// Delivery is the explicit outcome of one best-effort forward. Failures are
// recorded here instead of being swallowed, but they are never propagated to
// the device or retried: telemetry loss is tolerated.
type Delivery struct {
	// Sent reports whether a forward was attempted at all (false when the
	// collector is not configured or the batch was empty).
	Sent bool
	Err  error
}

// Failed reports an attempted forward that did not land.
func (d Delivery) Failed() bool {
	return d.Sent && d.Err != nil
}

// Client posts telemetry to the downstream collector over HTTP with bearer
// auth. A zero base URL disables forwarding.
type Client struct {
	l       *slog.Logger
	baseURL string
	token   string
	http    *http.Client
}

// NewClient creates a collector client. baseURL may be empty to disable
// forwarding entirely.
func NewClient(l *slog.Logger, baseURL, token string) *Client {
	return &Client{
		l:       l.With(slog.String("component", "collector")),
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: requestTimeout},
	}
}

// Enabled reports whether a collector URL is configured.
func (c *Client) Enabled() bool {
	return c.baseURL != ""
}

type playLogsBody struct {
	DeviceID string            `json:"deviceId"`
	Logs     []json.RawMessage `json:"logs"`
}

// PostPlayLogs forwards a play-log batch.
func (c *Client) PostPlayLogs(ctx context.Context, deviceID string, logs []json.RawMessage) Delivery {
	return c.post(ctx, "/playlogs", playLogsBody{DeviceID: deviceID, Logs: logs})
}

type gpsBody struct {
	DeviceID string          `json:"deviceId"`
	Fix      json.RawMessage `json:"fix"`
}

// PostGPS forwards a single GPS fix.
func (c *Client) PostGPS(ctx context.Context, deviceID string, fix json.RawMessage) Delivery {
	return c.post(ctx, "/gps", gpsBody{DeviceID: deviceID, Fix: fix})
}

func (c *Client) post(ctx context.Context, path string, body any) Delivery {
	if !c.Enabled() {
		return Delivery{}
	}

	data, err := utils.ToJSON(body)
	if err != nil {
		return Delivery{Sent: true, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return Delivery{Sent: true, Err: err}
	}

	req.Header.Set("Content-Type", "application/json")

	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Delivery{Sent: true, Err: err}
	}

	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Delivery{Sent: true, Err: fmt.Errorf("collector returned status %d", resp.StatusCode)}
	}

	return Delivery{Sent: true}
}
