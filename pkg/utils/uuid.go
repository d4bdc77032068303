package utils

import "github.com/google/uuid"

// NewUUID returns a time-ordered UUIDv7 string.
func NewUUID() string {
	if uuid, err := uuid.NewV7(); err == nil {
		return uuid.String()
	}
	panic("failed to generate UUID")
}
