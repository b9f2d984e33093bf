package ta

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.uber.org/atomic"
)

func newSession(base *slog.Logger) *Session {
	id := uuid.New().String()
	return &Session{
		id:       id,
		openedAt: time.Now(),
		log:      base.With(slog.String("session", id)),
	}
}

// Session is one open client session. Sessions carry no command state; they
// exist for traceability, so every invocation in the logs and the audit
// trail can be tied back to the client that issued it.
type Session struct {
	id       string
	openedAt time.Time
	log      *slog.Logger

	invocations atomic.Uint64
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Invocations returns how many commands this session has issued.
func (s *Session) Invocations() uint64 {
	return s.invocations.Load()
}

// Age returns how long the session has been open.
func (s *Session) Age() time.Duration {
	return time.Since(s.openedAt)
}
