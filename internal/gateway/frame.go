package gateway

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"
)

// FrameKind is the closed set of inbound frame classifications.
type FrameKind int

const (
	// FrameInvalid is non-JSON noise (stray bytes, TLS probes). Dropped.
	FrameInvalid FrameKind = iota
	// FrameRegistration announces a device identifier, structured or as a
	// legacy bare token.
	FrameRegistration
	// FrameRestart is a device restart notice. Logged only.
	FrameRestart
	// FramePlayLogs is a play-log batch. Acked and forwarded.
	FramePlayLogs
	// FrameGPS is a single GPS fix. Forwarded.
	FrameGPS
	// FrameReply answers an outstanding command by correlation id.
	FrameReply
	// FrameUnknown is valid JSON that matched no rule. Logged, dropped.
	FrameUnknown
)

func (k FrameKind) String() string {
	switch k {
	case FrameInvalid:
		return "invalid"
	case FrameRegistration:
		return "registration"
	case FrameRestart:
		return "restart"
	case FramePlayLogs:
		return "playlogs"
	case FrameGPS:
		return "gps"
	case FrameReply:
		return "reply"
	case FrameUnknown:
		return "unknown"
	}

	return "invalid"
}

// Frame is a classified inbound device frame. Only the fields relevant to
// the Kind are populated; Raw always holds the original frame for kinds that
// pass payloads through (reply, gps).
type Frame struct {
	Kind FrameKind

	// Registration
	DeviceID string
	Metadata map[string]any

	// Reply / play-log ack echo
	CorrelationID string
	IsError       bool
	ErrMessage    string

	// Play logs
	Logs []json.RawMessage

	Raw json.RawMessage
}

// Legacy controllers self-identify with a single short token line before any
// JSON framing existed.
var legacyTokenRe = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// wireFrame covers every field the classifier keys on. Pointers distinguish
// "absent" from "empty" where it matters.
type wireFrame struct {
	ID            string             `json:"id"`
	Type          string             `json:"type"`
	Message       string             `json:"message"`
	CorrelationID string             `json:"correlationId"`
	Logs          *[]json.RawMessage `json:"logs"`
	Lat           *float64           `json:"lat"`
	Lng           *float64           `json:"lng"`
}

// Classify decodes a raw frame into exactly one FrameKind. Rules apply in
// priority order; the first match wins:
//
//  1. not a JSON object: bare token means legacy registration, anything
//     else is invalid
//  2. "id" present: registration (remaining fields become metadata)
//  3. type "restart": restart notice
//  4. "logs" present: play-log batch
//  5. "lat" and "lng" present: GPS fix
//  6. "correlationId" present: command reply (type "error" marks failure)
//  7. otherwise: unknown
func Classify(data []byte) Frame {
	trimmed := bytes.TrimSpace(data)

	if len(trimmed) == 0 || trimmed[0] != '{' {
		return classifyPlainText(trimmed)
	}

	var wf wireFrame
	if err := json.Unmarshal(trimmed, &wf); err != nil {
		return classifyPlainText(trimmed)
	}

	switch {
	case wf.ID != "":
		return Frame{
			Kind:     FrameRegistration,
			DeviceID: wf.ID,
			Metadata: registrationMetadata(trimmed),
			Raw:      trimmed,
		}

	case wf.Type == "restart":
		return Frame{Kind: FrameRestart, Raw: trimmed}

	case wf.Logs != nil:
		return Frame{
			Kind:          FramePlayLogs,
			Logs:          *wf.Logs,
			CorrelationID: wf.CorrelationID,
			Raw:           trimmed,
		}

	case wf.Lat != nil && wf.Lng != nil:
		return Frame{Kind: FrameGPS, Raw: trimmed}

	case wf.CorrelationID != "":
		return Frame{
			Kind:          FrameReply,
			CorrelationID: wf.CorrelationID,
			IsError:       wf.Type == "error",
			ErrMessage:    wf.Message,
			Raw:           trimmed,
		}
	}

	return Frame{Kind: FrameUnknown, Raw: trimmed}
}

func classifyPlainText(trimmed []byte) Frame {
	token := strings.TrimSpace(string(trimmed))

	if legacyTokenRe.MatchString(token) {
		return Frame{Kind: FrameRegistration, DeviceID: token}
	}

	return Frame{Kind: FrameInvalid}
}

// registrationMetadata returns every registration field except the
// identifier itself. An empty frame yields an empty (not nil) map so that
// session metadata always replaces wholesale.
func registrationMetadata(data []byte) map[string]any {
	meta := map[string]any{}
	if err := json.Unmarshal(data, &meta); err != nil {
		return map[string]any{}
	}

	delete(meta, "id")

	return meta
}
