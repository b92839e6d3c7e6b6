package app

import (
	"time"

	"buylog/internal/feed"
)

// Session identifies one CLI invocation in the log.
type Session struct {
	ID      string
	Command string
	Started time.Time
}

// NewSession starts a session for the named command (e.g. "feed", "watch").
func NewSession(command string, ids feed.IDGenerator, clock feed.Clock) *Session {
	return &Session{
		ID:      ids.New(),
		Command: command,
		Started: clock.Now(),
	}
}

// Elapsed returns how long the session has been running.
func (s *Session) Elapsed(clock feed.Clock) time.Duration {
	return clock.Now().Sub(s.Started)
}
