package agent

import (
	"context"
	"fmt"
	"math"

	"github.com/hupe1980/campaignmesh/core"
	"github.com/hupe1980/campaignmesh/graph"
)

// Feedback adjusts the shared feedback parameters and broadcasts them.
type Feedback struct {
	BaseAgent
}

// NewFeedback creates the feedback agent.
func NewFeedback(d core.Dispatcher, optFns ...func(o *Options)) *Feedback {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	f := &Feedback{BaseAgent: NewBaseAgent(graph.Feedback, d, opts)}
	f.state[StateFeedbackConfig] = f.FeedbackConfig()
	return f
}

// ProcessFeedback moves the sensitivity by the learning rate and keeps it in
// [0, 1]. Unknown signal types leave the config unchanged.
func (f *Feedback) ProcessFeedback(signal core.FeedbackSignal) core.FeedbackConfig {
	cfg := f.FeedbackConfig()
	switch signal.Type {
	case core.FeedbackPositive:
		cfg.Sensitivity = math.Min(1, cfg.Sensitivity+cfg.LearningRate)
	case core.FeedbackNegative:
		cfg.Sensitivity = math.Max(0, cfg.Sensitivity-cfg.LearningRate)
	}
	f.state[StateFeedbackConfig] = cfg
	return cfg
}

// Act handles feedback tasks.
func (f *Feedback) Act(ctx context.Context, body core.TaskBody) (core.ActResult, error) {
	switch b := body.(type) {
	case core.FeedbackTask:
		cfg := f.ProcessFeedback(b.Signal)
		if err := f.SendMessage(ctx, core.Broadcast, core.NewMessage(f.name, core.ConfigUpdate{Patch: cfg.Patch()})); err != nil {
			return core.ActResult{Status: core.StatusError, Message: err.Error()}, err
		}
		return core.ActResult{Status: core.StatusSuccess, Message: "Feedback processed"}, nil
	case core.GoalTask, core.Subtask, core.ResearchRequest, core.ComprehensiveResearchTask,
		core.StrategyRequest, core.ComprehensiveStrategyRequest, core.ContentRequest:
		return core.ActResult{Status: core.StatusError, Message: "Invalid task type"}, nil
	default:
		return core.ActResult{}, core.MalformedPayloadError(f.name, core.KindTask, fmt.Sprintf("unexpected task body %T", body))
	}
}

// ReceiveMessage implements core.Agent.
func (f *Feedback) ReceiveMessage(ctx context.Context, sender string, msg core.Message) error {
	switch m := msg.Payload.(type) {
	case core.Feedback:
		res, err := f.Act(ctx, core.FeedbackTask{Signal: m.Signal})
		if err != nil {
			return err
		}
		f.LogEvent("feedback_processed", map[string]any{
			"signal":      m.Signal.Type,
			"status":      res.Status,
			"sensitivity": f.FeedbackConfig().Sensitivity,
		})
		return nil
	case core.ConfigUpdate:
		f.applyConfigUpdate(sender, m)
		return nil
	case core.Task, core.TaskResult:
		return nil
	case nil:
		return missingPayload(f.name)
	default:
		return core.MalformedPayloadError(f.name, msg.Kind(), "unsupported payload")
	}
}

var _ core.Agent = (*Feedback)(nil)
