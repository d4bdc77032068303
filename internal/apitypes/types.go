package apitypes

import (
	"encoding/json"
	"time"
)

// ErrorResponse is the unified error response type.
//
//nolint:errname // ErrorResponse is an API response type, not a traditional error
type ErrorResponse struct {
	// HTTP status code (internal only, not sent to client)
	StatusCode int `json:"-"`
	// Request ID for tracking
	RequestID string `json:"requestID"`
	// High-level error message
	Message string `json:"message"`
	// Field-level validation errors
	Errors map[string]string `json:"errors,omitempty"`
}

func (e *ErrorResponse) Error() string {
	return e.Message
}

// AddError adds a field-level error (builder pattern).
func (e *ErrorResponse) AddError(field, message string) *ErrorResponse {
	if e.Errors == nil {
		e.Errors = make(map[string]string)
	}

	e.Errors[field] = message

	return e
}

// HealthResponse reports process liveness and the live session count.
type HealthResponse struct {
	Status   string `json:"status"`
	Sessions int    `json:"sessions"`
	Uptime   string `json:"uptime"`
	Version  string `json:"version"`
}

// Device is one registry entry as exposed over the API.
type Device struct {
	ID          string         `json:"id"`
	Online      bool           `json:"online"`
	ConnectedAt *time.Time     `json:"connectedAt,omitempty"`
	LastSeen    *time.Time     `json:"lastSeen,omitempty"`
	Metadata    map[string]any `json:"metadata"`
}

// DeviceListResponse is the registry snapshot.
type DeviceListResponse struct {
	Devices []Device `json:"devices"`
	Count   int      `json:"count"`
}

// BrightnessRequest sets panel brightness.
type BrightnessRequest struct {
	Level *int `json:"level"`
}

// ScreenRequest switches the panel on or off.
type ScreenRequest struct {
	On *bool `json:"on"`
}

// CommandResponse carries the device's reply to a dispatched command.
type CommandResponse struct {
	DeviceID string          `json:"deviceId"`
	Reply    json.RawMessage `json:"reply"`
}
