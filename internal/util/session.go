package util

import "github.com/google/uuid"

// NewSessionID returns a random identifier used to correlate log lines of one connection.
func NewSessionID() string {
	return uuid.NewString()
}
