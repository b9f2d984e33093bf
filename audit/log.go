package audit

import (
	"io"
	"log/slog"
	"sync"
	"time"

	"go.uber.org/atomic"
)

// DefaultCapacity is the default bounded size of the in-memory event buffer.
const DefaultCapacity = 4096

// Log is the append-only audit sink. Record never returns an error and
// never blocks the recording operation; overflow is absorbed by dropping
// the new event while still consuming its sequence number, which leaves a
// detectable gap. The first drop also records an in-buffer SecurityViolation
// marker so the overflow is visible from the events themselves.
type Log struct {
	mu             sync.Mutex
	events         []Event
	capacity       int
	overflowMarked bool
	log            *slog.Logger

	seq     atomic.Uint64
	dropped atomic.Uint64

	now func() int64
}

// NewLog creates an audit log with the given buffer capacity. A zero or
// negative capacity selects DefaultCapacity. The slog mirror may be nil for
// tests.
func NewLog(capacity int, logger *slog.Logger) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Log{
		events:   make([]Event, 0, capacity),
		capacity: capacity,
		log:      logger,
		now:      func() int64 { return time.Now().Unix() },
	}
}

// Record appends an event. The sequence number and timestamp are assigned
// here; the caller's copies of those fields are ignored. Record is safe for
// concurrent use and never fails.
func (l *Log) Record(ev Event) {
	l.mu.Lock()
	// Assigning the sequence number under the mutex keeps retained events in
	// sequence order even with concurrent recorders.
	ev.Seq = l.seq.Inc()
	ev.Timestamp = l.now()
	stored := len(l.events) < l.capacity
	if stored {
		l.events = append(l.events, ev)
	} else {
		l.dropped.Inc()
		l.markOverflowLocked()
	}
	l.mu.Unlock()

	l.mirror(ev, stored)
}

// markOverflowLocked records a single SecurityViolation the first time an
// event is dropped. The marker sits one past the normal capacity so it cannot
// itself be dropped.
func (l *Log) markOverflowLocked() {
	if l.overflowMarked {
		return
	}
	l.overflowMarked = true
	l.events = append(l.events, Event{
		Seq:       l.seq.Inc(),
		Timestamp: l.now(),
		Kind:      SecurityViolation,
		Component: "audit",
		Detail:    "event buffer full, subsequent events dropped",
	})
}

// mirror writes the event to structured logging on a best-effort basis.
func (l *Log) mirror(ev Event, stored bool) {
	level := slog.LevelInfo
	if ev.Kind == SecurityViolation {
		level = slog.LevelWarn
	}
	l.log.Log(nil, level, "audit event",
		slog.Uint64("seq", ev.Seq),
		slog.String("kind", ev.Kind.String()),
		slog.String("component", ev.Component),
		slog.String("detail", ev.Detail),
		slog.Bool("stored", stored),
	)
}

// Events returns a snapshot of the retained events in record order.
func (l *Log) Events() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Event, len(l.events))
	copy(out, l.events)
	return out
}

// Seq returns the last assigned sequence number.
func (l *Log) Seq() uint64 {
	return l.seq.Load()
}

// Dropped returns the number of events lost to buffer overflow. A nonzero
// value means the retained sequence numbers have gaps.
func (l *Log) Dropped() uint64 {
	return l.dropped.Load()
}

// Len returns the number of retained events.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.events)
}
