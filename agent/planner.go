package agent

import (
	"context"
	"fmt"

	"github.com/hupe1980/campaignmesh/core"
	"github.com/hupe1980/campaignmesh/graph"
)

// Planner status values stored under StateStatus.
const (
	PlannerIdle        = "idle"
	PlannerDecomposing = "decomposing"
	PlannerDispatching = "dispatching"
)

// DefaultAgent is the recipient for subtasks of unknown type. It is not a
// graph node, so the router drops such subtasks.
const DefaultAgent = "default_agent"

var subtaskRecipients = map[string]string{
	core.TaskResearch:        graph.Researcher,
	core.TaskStrategy:        graph.Strategist,
	core.TaskContentCreation: graph.Writer,
}

// RecipientFor maps a subtask type to the agent that handles it.
func RecipientFor(taskType string) string {
	if r, ok := subtaskRecipients[taskType]; ok {
		return r
	}
	return DefaultAgent
}

// Planner decomposes goals into subtasks and dispatches them one at a time,
// advancing on every TaskResult it receives.
type Planner struct {
	BaseAgent
	queue     []core.Subtask
	completed []core.TaskResult
}

// NewPlanner creates the planner agent.
func NewPlanner(d core.Dispatcher, optFns ...func(o *Options)) *Planner {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	p := &Planner{BaseAgent: NewBaseAgent(graph.Planner, d, opts)}
	p.state[StateStatus] = PlannerIdle
	return p
}

// BreakdownGoal returns the three ordered subtasks for goal.
func (p *Planner) BreakdownGoal(goal string) []core.Subtask {
	return []core.Subtask{
		{Type: core.TaskResearch, Description: fmt.Sprintf("Research best practices for %s", goal), Priority: 1},
		{Type: core.TaskStrategy, Description: fmt.Sprintf("Develop strategy for %s", goal), Priority: 2},
		{Type: core.TaskContentCreation, Description: fmt.Sprintf("Create content for %s", goal), Priority: 3},
	}
}

// Queue returns a copy of the subtasks not dispatched yet.
func (p *Planner) Queue() []core.Subtask {
	out := make([]core.Subtask, len(p.queue))
	copy(out, p.queue)
	return out
}

// Completed returns a copy of the results received so far.
func (p *Planner) Completed() []core.TaskResult {
	out := make([]core.TaskResult, len(p.completed))
	copy(out, p.completed)
	return out
}

// Reset drops queued subtasks and collected results so the next goal starts
// from an empty queue.
func (p *Planner) Reset() {
	p.queue = nil
	p.completed = nil
	p.state[StateStatus] = PlannerIdle
}

// Act handles a goal: decompose, enqueue and dispatch the first subtask.
func (p *Planner) Act(ctx context.Context, body core.TaskBody) (core.ActResult, error) {
	switch b := body.(type) {
	case core.GoalTask:
		p.state[StateStatus] = PlannerDecomposing
		p.queue = append(p.queue, p.BreakdownGoal(b.Goal)...)
		p.state[StateStatus] = PlannerDispatching
		err := p.dispatchNext(ctx)
		p.state[StateStatus] = PlannerIdle
		if err != nil {
			return core.ActResult{Status: core.StatusError, Message: err.Error()}, err
		}
		return core.ActResult{Status: core.StatusSuccess, Message: "Goal breakdown initiated"}, nil
	case core.Subtask, core.ResearchRequest, core.ComprehensiveResearchTask, core.StrategyRequest,
		core.ComprehensiveStrategyRequest, core.ContentRequest, core.FeedbackTask:
		return core.ActResult{Status: core.StatusError, Message: "Unknown task type"}, nil
	default:
		return core.ActResult{}, core.MalformedPayloadError(p.name, core.KindTask, fmt.Sprintf("unexpected task body %T", body))
	}
}

// ReceiveMessage implements core.Agent.
func (p *Planner) ReceiveMessage(ctx context.Context, sender string, msg core.Message) error {
	switch m := msg.Payload.(type) {
	case core.Task:
		body, err := p.taskBody(m)
		if err != nil {
			return err
		}
		res, err := p.Act(ctx, body)
		if err != nil {
			return err
		}
		if !res.OK() {
			p.invalidTask(sender, body)
		}
		return nil
	case core.TaskResult:
		p.completed = append(p.completed, m)
		err := p.dispatchNext(ctx)
		p.LogEvent("task_completed", map[string]any{"task": m, "sender": sender})
		return err
	case core.ConfigUpdate:
		p.applyConfigUpdate(sender, m)
		return nil
	case core.Feedback:
		return nil
	case nil:
		return missingPayload(p.name)
	default:
		return core.MalformedPayloadError(p.name, msg.Kind(), "unsupported payload")
	}
}

// dispatchNext pops the head of the queue and sends it to its agent.
func (p *Planner) dispatchNext(ctx context.Context) error {
	if len(p.queue) == 0 {
		return nil
	}
	next := p.queue[0]
	p.queue = p.queue[1:]

	recipient := RecipientFor(next.Type)
	p.LogEvent("task_dispatched", map[string]any{"type": next.Type, "recipient": recipient})
	return p.SendMessage(ctx, recipient, core.NewTask(p.name, next))
}

var _ core.Agent = (*Planner)(nil)
