package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/hupe1980/campaignmesh/core"
	"github.com/hupe1980/campaignmesh/graph"
)

// socialMediaTemplate is merged into strategies whose goal mentions social_media.
var socialMediaTemplate = core.Strategy{
	Platforms:    []string{"Twitter", "Instagram", "LinkedIn"},
	ContentTypes: []string{"videos", "images", "text posts"},
	Frequency:    "2-3 posts per day",
}

// Strategist turns research findings into a campaign strategy and reports it
// back to the planner.
type Strategist struct {
	BaseAgent
	latest *core.Strategy
}

// NewStrategist creates the strategist agent.
func NewStrategist(d core.Dispatcher, optFns ...func(o *Options)) *Strategist {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Strategist{BaseAgent: NewBaseAgent(graph.Strategist, d, opts)}
}

// GenerateStrategy builds a strategy for goal from research.
func (s *Strategist) GenerateStrategy(goal string, research core.ResearchFindings) core.Strategy {
	keyFindings := make([]string, len(research.KeyPoints))
	copy(keyFindings, research.KeyPoints)

	st := core.Strategy{
		Goal:               goal,
		ResearchSummary:    research.Summary,
		KeyFindings:        keyFindings,
		RecommendedActions: []string{},
		Timeline:           map[string]string{},
	}

	if strings.Contains(strings.ToLower(goal), "social_media") {
		st.Platforms = append([]string(nil), socialMediaTemplate.Platforms...)
		st.ContentTypes = append([]string(nil), socialMediaTemplate.ContentTypes...)
		st.Frequency = socialMediaTemplate.Frequency
	}
	return st
}

// LatestStrategy returns the most recent strategy, or nil.
func (s *Strategist) LatestStrategy() *core.Strategy {
	if s.latest == nil {
		return nil
	}
	st := *s.latest
	return &st
}

// Contribute implements core.ResultContributor.
func (s *Strategist) Contribute(r *core.WorkflowResult) {
	r.Strategy = s.LatestStrategy()
}

// Reset discards the latest strategy.
func (s *Strategist) Reset() { s.latest = nil }

// Act handles strategy requests.
func (s *Strategist) Act(ctx context.Context, body core.TaskBody) (core.ActResult, error) {
	switch b := body.(type) {
	case core.StrategyRequest:
		st := s.GenerateStrategy(b.Goal, b.Research)
		s.latest = &st
		s.state["last_goal"] = b.Goal

		if err := s.SendMessage(ctx, graph.Planner, core.NewMessage(s.name, core.TaskResult{
			TaskType: core.TaskStrategyRequest,
			Status:   core.StatusSuccess,
			Strategy: &st,
		})); err != nil {
			return core.ActResult{Status: core.StatusError, Message: err.Error()}, err
		}
		s.LogEvent("strategy_generated", map[string]any{"goal": b.Goal})
		return core.ActResult{Status: core.StatusSuccess, Message: "Strategy generated"}, nil
	case core.GoalTask, core.Subtask, core.ResearchRequest, core.ComprehensiveResearchTask,
		core.ComprehensiveStrategyRequest, core.ContentRequest, core.FeedbackTask:
		return core.ActResult{Status: core.StatusError, Message: "Invalid task type"}, nil
	default:
		return core.ActResult{}, core.MalformedPayloadError(s.name, core.KindTask, fmt.Sprintf("unexpected task body %T", body))
	}
}

// ReceiveMessage implements core.Agent.
func (s *Strategist) ReceiveMessage(ctx context.Context, sender string, msg core.Message) error {
	switch m := msg.Payload.(type) {
	case core.Task:
		body, err := s.taskBody(m)
		if err != nil {
			return err
		}
		res, err := s.Act(ctx, body)
		if err != nil {
			return err
		}
		if !res.OK() {
			s.invalidTask(sender, body)
		}
		return nil
	case core.ConfigUpdate:
		s.applyConfigUpdate(sender, m)
		return nil
	case core.TaskResult, core.Feedback:
		return nil
	case nil:
		return missingPayload(s.name)
	default:
		return core.MalformedPayloadError(s.name, msg.Kind(), "unsupported payload")
	}
}

var (
	_ core.Agent             = (*Strategist)(nil)
	_ core.ResultContributor = (*Strategist)(nil)
)
