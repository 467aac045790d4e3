package testutil

import (
	"context"
	"sync"

	"github.com/hupe1980/campaignmesh/core"
)

// Received is a message observed by a RecordingAgent.
type Received struct {
	Sender  string
	Message core.Message
}

// RecordingAgent is a core.Agent that records every message it receives and
// optionally reacts through OnReceive.
//
//	a := testutil.NewRecordingAgent("writer")
//	a.OnReceive = func(ctx context.Context, sender string, msg core.Message) error { return nil }
type RecordingAgent struct {
	mu         sync.Mutex
	name       string
	dispatcher core.Dispatcher
	state      core.State
	events     *core.EventLog
	received   []Received

	// OnReceive runs after the message was recorded. Its error is returned to the router.
	OnReceive func(ctx context.Context, sender string, msg core.Message) error
}

// NewRecordingAgent creates a recording agent without a dispatcher.
func NewRecordingAgent(name string) *RecordingAgent {
	return &RecordingAgent{name: name, state: core.State{}, events: core.NewEventLog()}
}

// WithDispatcher attaches a dispatcher used by SendMessage (chainable).
func (a *RecordingAgent) WithDispatcher(d core.Dispatcher) *RecordingAgent {
	a.dispatcher = d
	return a
}

// Name implements core.Agent.
func (a *RecordingAgent) Name() string { return a.name }

// ReceiveMessage implements core.Agent.
func (a *RecordingAgent) ReceiveMessage(ctx context.Context, sender string, msg core.Message) error {
	a.mu.Lock()
	a.received = append(a.received, Received{Sender: sender, Message: msg})
	a.mu.Unlock()
	a.LogEvent("message_received", map[string]any{"sender": sender, "type": string(msg.Kind())})
	if a.OnReceive != nil {
		return a.OnReceive(ctx, sender, msg)
	}
	return nil
}

// SendMessage implements core.Agent.
func (a *RecordingAgent) SendMessage(ctx context.Context, recipient string, msg core.Message) error {
	if a.dispatcher == nil {
		a.LogEvent("no_router", map[string]any{"recipient": recipient})
		return nil
	}
	return a.dispatcher.Route(ctx, a.name, recipient, msg)
}

// LogEvent implements core.Agent.
func (a *RecordingAgent) LogEvent(name string, details map[string]any) {
	a.events.Append(core.NewEvent(name, details))
}

// State implements core.Agent.
func (a *RecordingAgent) State() core.State { return a.state }

// Events implements core.Agent.
func (a *RecordingAgent) Events() *core.EventLog { return a.events }

// Received returns a copy of all recorded messages.
func (a *RecordingAgent) Received() []Received {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Received, len(a.received))
	copy(out, a.received)
	return out
}

// Count returns the number of recorded messages.
func (a *RecordingAgent) Count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.received)
}
