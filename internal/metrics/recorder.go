package metrics

import (
	"context"
	"time"
)

// EventKind identifies what happened to a connection.
type EventKind int

const (
	EventAccepted EventKind = iota
	EventClosed
	EventConnectFailed
)

// Event is a single connection event. Bytes is set on EventClosed.
type Event struct {
	Kind  EventKind
	Bytes int64
}

// Recorder buffers connection events and folds them into the counters on a
// fixed interval, keeping the hot path free of metric updates.
type Recorder struct {
	events   chan Event
	interval time.Duration
}

// NewRecorder returns a Recorder holding at most capacity unflushed events.
func NewRecorder(capacity int, interval time.Duration) *Recorder {
	if capacity < 1 {
		capacity = 1
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &Recorder{
		events:   make(chan Event, capacity),
		interval: interval,
	}
}

// Record queues ev without blocking. It returns false, and counts the drop,
// when the buffer is full.
func (r *Recorder) Record(ev Event) bool {
	select {
	case r.events <- ev:
		return true
	default:
		EventsDroppedTotal.Inc()
		return false
	}
}

// Buffered returns the number of events waiting to be flushed.
func (r *Recorder) Buffered() int {
	return len(r.events)
}

// Run flushes every interval until ctx is done, then flushes once more.
func (r *Recorder) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			r.Flush()
			return
		case <-ticker.C:
			r.Flush()
		}
	}
}

// Flush drains buffered events into the counters and returns how many it applied.
func (r *Recorder) Flush() int {
	n := 0
	for {
		select {
		case ev := <-r.events:
			apply(ev)
			n++
		default:
			FlushesTotal.Inc()
			EventBufferUsed.Set(float64(len(r.events)))
			return n
		}
	}
}

func apply(ev Event) {
	switch ev.Kind {
	case EventAccepted:
		ConnectionsAcceptedTotal.Inc()
	case EventClosed:
		ConnectionsClosedTotal.Inc()
		if ev.Bytes > 0 {
			BytesForwardedTotal.Add(float64(ev.Bytes))
		}
	case EventConnectFailed:
		ConnectFailuresTotal.Inc()
	}
}
