package core

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event is a diagnostic record emitted by an agent. Events are appended to the
// agent's log and never removed. Details may be nil.
type Event struct {
	ID        string         `json:"id"`
	Name      string         `json:"event"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// NewEvent creates an event with a fresh ID and a UTC timestamp.
func NewEvent(name string, details map[string]any) Event {
	return Event{
		ID:        NewID(),
		Name:      name,
		Details:   details,
		Timestamp: time.Now().UTC(),
	}
}

// NewID generates a new unique identifier for messages, events and runs.
func NewID() string { return uuid.NewString() }

// EventLog is an append-only, concurrency safe list of events.
type EventLog struct {
	mu     sync.RWMutex
	events []Event
}

// NewEventLog returns an empty log.
func NewEventLog() *EventLog { return &EventLog{} }

// Append adds an event to the end of the log.
func (l *EventLog) Append(e Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

// All returns a copy of every event in append order.
func (l *EventLog) All() []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Event, len(l.events))
	copy(out, l.events)
	return out
}

// Tail returns a copy of the last n events (fewer if the log is shorter).
func (l *EventLog) Tail(n int) []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if n <= 0 {
		return []Event{}
	}
	start := len(l.events) - n
	if start < 0 {
		start = 0
	}
	out := make([]Event, len(l.events)-start)
	copy(out, l.events[start:])
	return out
}

// Len returns the number of events recorded so far.
func (l *EventLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.events)
}

// Last returns the most recent event and true, or a zero Event and false.
func (l *EventLog) Last() (Event, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.events) == 0 {
		return Event{}, false
	}
	return l.events[len(l.events)-1], true
}
