package core

import (
	"encoding/json"
	"time"
)

// Kind is the wire tag carried by every message payload.
type Kind string

const (
	// KindTask marks a unit of work for the recipient.
	KindTask Kind = "task"
	// KindTaskResult reports a completed unit of work.
	KindTaskResult Kind = "task_result"
	// KindFeedback carries a user feedback signal.
	KindFeedback Kind = "feedback"
	// KindConfigUpdate carries feedback tuning parameters.
	KindConfigUpdate Kind = "config_update"
)

const (
	// Broadcast is the recipient wildcard addressing every graph node except the sender.
	Broadcast = "all_agents"
	// UserSender is the sender name used for messages entering from outside the graph.
	UserSender = "user"
)

// Payload is the sealed union of message bodies. Only the types declared in
// this package implement it; switch on the concrete type to react.
type Payload interface {
	Kind() Kind
	isPayload()
}

// Task asks the recipient to perform the work described by Body.
type Task struct {
	Body TaskBody `json:"body"`
}

// Kind implements Payload.
func (Task) Kind() Kind { return KindTask }
func (Task) isPayload() {}

// TaskResult reports the outcome of a task back to the planner.
type TaskResult struct {
	TaskType string        `json:"task_type"`
	Status   string        `json:"status"`
	Strategy *Strategy     `json:"strategy,omitempty"`
	Content  *ContentDraft `json:"content,omitempty"`
}

// Kind implements Payload.
func (TaskResult) Kind() Kind { return KindTaskResult }
func (TaskResult) isPayload() {}

// Feedback carries a user feedback signal to the feedback agent.
type Feedback struct {
	Signal FeedbackSignal `json:"signal"`
}

// Kind implements Payload.
func (Feedback) Kind() Kind { return KindFeedback }
func (Feedback) isPayload() {}

// ConfigUpdate distributes feedback tuning parameters. Nil patch fields are left untouched.
type ConfigUpdate struct {
	Patch ConfigPatch `json:"patch"`
}

// Kind implements Payload.
func (ConfigUpdate) Kind() Kind { return KindConfigUpdate }
func (ConfigUpdate) isPayload() {}

// Message is the envelope exchanged between agents. Messages are values and
// must not be mutated after they are sent.
type Message struct {
	ID        string
	Sender    string
	Payload   Payload
	Timestamp time.Time
}

// NewMessage wraps payload in an envelope authored by sender.
func NewMessage(sender string, payload Payload) Message {
	return Message{
		ID:        NewID(),
		Sender:    sender,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// NewTask is shorthand for NewMessage(sender, Task{Body: body}).
func NewTask(sender string, body TaskBody) Message {
	return NewMessage(sender, Task{Body: body})
}

// Kind reports the wire tag of the payload, or "" when the payload is missing.
func (m Message) Kind() Kind {
	if m.Payload == nil {
		return ""
	}
	return m.Payload.Kind()
}

// MarshalJSON renders the message with an explicit type tag.
func (m Message) MarshalJSON() ([]byte, error) {
	type wire struct {
		ID        string    `json:"id"`
		Type      Kind      `json:"type"`
		Sender    string    `json:"sender"`
		Content   any       `json:"content"`
		TaskType  string    `json:"task_type,omitempty"`
		Timestamp time.Time `json:"timestamp"`
	}
	w := wire{ID: m.ID, Type: m.Kind(), Sender: m.Sender, Content: m.Payload, Timestamp: m.Timestamp}
	if t, ok := m.Payload.(Task); ok && t.Body != nil {
		w.TaskType = t.Body.TaskType()
		w.Content = t.Body
	}
	return json.Marshal(w)
}
