package testutil

import "github.com/hupe1980/campaignmesh/core"

// GoalMessage builds a user goal task.
func GoalMessage(goal string) core.Message {
	return core.NewTask(core.UserSender, core.GoalTask{Goal: goal})
}

// StrategyRequestMessage builds a strategy request as the researcher would send it.
func StrategyRequestMessage(goal, summary string, keyPoints ...string) core.Message {
	return core.NewTask("researcher", core.StrategyRequest{
		Goal: goal,
		Research: core.ResearchFindings{
			Topic:       goal,
			Summary:     summary,
			KeyPoints:   keyPoints,
			Trends:      map[string]any{},
			Competitors: []string{},
			Sources:     []string{},
		},
	})
}

// FeedbackMessage builds a feedback payload of the given type.
func FeedbackMessage(sender, feedbackType string) core.Message {
	return core.NewMessage(sender, core.Feedback{Signal: core.FeedbackSignal{Type: feedbackType}})
}

// ResultMessage builds a successful task result from sender.
func ResultMessage(sender, taskType string) core.Message {
	return core.NewMessage(sender, core.TaskResult{TaskType: taskType, Status: core.StatusSuccess})
}
