package gateway

import "errors"

// Terminal dispatch errors. None of them is retried by the gateway; retry
// policy belongs to the caller.
var (
	// ErrDeviceUnreachable means no live transport existed for the target
	// device at send time, or it went away before the reply arrived.
	ErrDeviceUnreachable = errors.New("device unreachable")

	// ErrSendFailed means the transport rejected the outbound write.
	ErrSendFailed = errors.New("send to device failed")

	// ErrTimeout means no correlated reply arrived within the deadline.
	ErrTimeout = errors.New("command timed out")

	// ErrCorrelationInUse means a caller-supplied correlation id collided
	// with an outstanding command.
	ErrCorrelationInUse = errors.New("correlation id already in use")
)

// DeviceError is a reply the device explicitly tagged as an error.
type DeviceError struct {
	Message string
}

func (e *DeviceError) Error() string {
	if e.Message == "" {
		return "device reported an error"
	}

	return "device reported an error: " + e.Message
}
