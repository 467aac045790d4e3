package core

import "context"

// Agent defines the contract every node of the workflow graph implements.
//
// ReceiveMessage is called synchronously by a Dispatcher. Any sends performed
// while reacting happen on the same call stack, so a reaction returns only
// after every downstream reaction it triggered has returned. The returned
// error signals a contract violation (e.g. ErrMalformedPayload); expected
// failures such as an unreachable external service are converted to events
// and sentinel results instead.
type Agent interface {
	Name() string
	ReceiveMessage(ctx context.Context, sender string, msg Message) error
	SendMessage(ctx context.Context, recipient string, msg Message) error
	LogEvent(name string, details map[string]any)
	State() State
	Events() *EventLog
}

// Dispatcher routes a message from sender to recipient. Implementations drop
// messages for unknown recipients without returning an error.
type Dispatcher interface {
	Route(ctx context.Context, sender, recipient string, msg Message) error
}

// DispatcherFunc adapts a function to the Dispatcher interface.
type DispatcherFunc func(ctx context.Context, sender, recipient string, msg Message) error

// Route implements Dispatcher.
func (f DispatcherFunc) Route(ctx context.Context, sender, recipient string, msg Message) error {
	return f(ctx, sender, recipient, msg)
}

// State is an agent's mutable key/value state. It is returned by reference.
type State map[string]any

// Clone returns a shallow copy of s.
func (s State) Clone() State {
	out := make(State, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// String returns the string value stored under key, or "".
func (s State) String(key string) string {
	v, _ := s[key].(string)
	return v
}

// Act result statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// ActResult is the synchronous outcome of an agent's Act step.
type ActResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// OK reports whether the act step succeeded.
func (r ActResult) OK() bool { return r.Status == StatusSuccess }

// WorkflowResult is the aggregated outcome of a workflow run.
type WorkflowResult struct {
	Status   string         `json:"status"`
	RunID    string         `json:"run_id,omitempty"`
	Strategy *Strategy      `json:"strategy"`
	Tweets   []ContentDraft `json:"tweets"`
}

// ResultContributor is implemented by agents that publish part of the
// workflow result. Contribute is called once the reaction chain settled.
type ResultContributor interface {
	Contribute(r *WorkflowResult)
}
