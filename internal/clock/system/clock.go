// Package system provides a real clock implementation.
package system

import "time"

// Clock implements ingest.Clock using time.Now. Timestamps are UTC and
// truncated to microseconds so an in-memory parsed_at round-trips through a
// timestamptz column unchanged.
type Clock struct{}

// New creates a new Clock.
func New() *Clock {
	return &Clock{}
}

// Now returns the current time.
func (Clock) Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
