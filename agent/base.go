package agent

import (
	"context"

	"github.com/hupe1980/campaignmesh/core"
	"github.com/hupe1980/campaignmesh/logging"
)

// State keys shared by all agents.
const (
	StateStatus         = "status"
	StateFeedbackConfig = "feedback_config"
)

// Event names shared by all agents.
const (
	EventNoRouter        = "no_router"
	EventConfigUpdated   = "config_updated"
	EventInvalidTaskType = "invalid_task_type"
)

// Options configures the BaseAgent part of every agent.
type Options struct {
	// Logger receives diagnostics. Defaults to NoOp.
	Logger logging.Logger

	// InitialState seeds the agent state. It is copied.
	InitialState core.State
}

func defaultOptions() Options {
	return Options{Logger: logging.NoOpLogger{}}
}

// BaseAgent bundles identity, state, the event log and the injected
// dispatcher. Embed it in concrete agents and implement ReceiveMessage.
type BaseAgent struct {
	name       string
	state      core.State
	events     *core.EventLog
	dispatcher core.Dispatcher
	logger     logging.Logger
}

// NewBaseAgent constructs a BaseAgent sending through d, which may be nil.
func NewBaseAgent(name string, d core.Dispatcher, opts Options) BaseAgent {
	state := core.State{}
	if opts.InitialState != nil {
		state = opts.InitialState.Clone()
	}
	return BaseAgent{
		name:       name,
		state:      state,
		events:     core.NewEventLog(),
		dispatcher: d,
		logger:     logging.OrNoOp(opts.Logger),
	}
}

// Name returns the agent's graph key.
func (b *BaseAgent) Name() string { return b.name }

// State returns the live state map. Callers wanting a snapshot must Clone it.
func (b *BaseAgent) State() core.State { return b.state }

// Events returns the agent's append-only event log.
func (b *BaseAgent) Events() *core.EventLog { return b.events }

// Logger returns the agent's logger.
func (b *BaseAgent) Logger() logging.Logger { return b.logger }

// LogEvent appends an event to the log. It never fails.
func (b *BaseAgent) LogEvent(name string, details map[string]any) {
	b.events.Append(core.NewEvent(name, details))
}

// SendMessage routes msg to recipient through the injected dispatcher. With
// no dispatcher the call records a no_router event and returns nil.
func (b *BaseAgent) SendMessage(ctx context.Context, recipient string, msg core.Message) error {
	if b.dispatcher == nil {
		b.LogEvent(EventNoRouter, map[string]any{"recipient": recipient, "type": string(msg.Kind())})
		b.logger.Warn("No router defined, message not sent", "agent", b.name, "recipient", recipient, "kind", msg.Kind())
		return nil
	}
	return b.dispatcher.Route(ctx, b.name, recipient, msg)
}

// FeedbackConfig returns the feedback parameters last applied to this agent.
func (b *BaseAgent) FeedbackConfig() core.FeedbackConfig {
	if cfg, ok := b.state[StateFeedbackConfig].(core.FeedbackConfig); ok {
		return cfg
	}
	return core.DefaultFeedbackConfig()
}

// applyConfigUpdate merges a broadcast config patch into the agent state.
func (b *BaseAgent) applyConfigUpdate(sender string, u core.ConfigUpdate) {
	cfg := b.FeedbackConfig().Apply(u.Patch)
	b.state[StateFeedbackConfig] = cfg
	b.LogEvent(EventConfigUpdated, map[string]any{"new_config": cfg, "sender": sender})
}

// invalidTask records a task body the agent does not handle.
func (b *BaseAgent) invalidTask(sender string, body core.TaskBody) {
	b.LogEvent(EventInvalidTaskType, map[string]any{"type": body.TaskType(), "sender": sender})
	b.logger.Debug("Ignoring task", "agent", b.name, "task_type", body.TaskType(), "sender", sender)
}

// taskBody validates a Task payload and returns its body.
func (b *BaseAgent) taskBody(t core.Task) (core.TaskBody, error) {
	if t.Body == nil {
		return nil, core.MalformedPayloadError(b.name, core.KindTask, "missing task body")
	}
	return t.Body, nil
}

func missingPayload(name string) error {
	return core.MalformedPayloadError(name, "", "missing payload")
}
