package core

// Task type tags.
const (
	TaskGoal                         = "goal"
	TaskResearch                     = "research"
	TaskStrategy                     = "strategy"
	TaskContentCreation              = "content_creation"
	TaskResearchRequest              = "research_request"
	TaskComprehensiveResearch        = "comprehensive_research"
	TaskStrategyRequest              = "strategy_request"
	TaskComprehensiveStrategyRequest = "comprehensive_strategy_request"
	TaskContentRequest               = "content_request"
	TaskFeedback                     = "feedback"
)

// TaskBody is the sealed union of task descriptions carried by a Task payload.
type TaskBody interface {
	TaskType() string
	isTaskBody()
}

// GoalTask is the top-level marketing goal handed to the planner.
type GoalTask struct {
	Goal string `json:"goal"`
}

// TaskType implements TaskBody.
func (GoalTask) TaskType() string { return TaskGoal }
func (GoalTask) isTaskBody()      {}

// Subtask is one step of a decomposed goal. Priority is descriptive only;
// the planner dispatches in queue order.
type Subtask struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Priority    int    `json:"priority"`
}

// TaskType implements TaskBody.
func (s Subtask) TaskType() string { return s.Type }
func (Subtask) isTaskBody()        {}

// ResearchRequest asks the researcher to run a RAG query on Topic.
type ResearchRequest struct {
	Topic string `json:"topic"`
}

// TaskType implements TaskBody.
func (ResearchRequest) TaskType() string { return TaskResearchRequest }
func (ResearchRequest) isTaskBody()      {}

// ComprehensiveResearchTask asks the researcher for profile driven research.
type ComprehensiveResearchTask struct {
	OnboardingID string `json:"onboarding_id"`
	OutputType   string `json:"output_type"`
}

// TaskType implements TaskBody.
func (ComprehensiveResearchTask) TaskType() string { return TaskComprehensiveResearch }
func (ComprehensiveResearchTask) isTaskBody()      {}

// StrategyRequest asks the strategist to turn findings into a strategy.
type StrategyRequest struct {
	Goal     string           `json:"goal"`
	Research ResearchFindings `json:"research"`
}

// TaskType implements TaskBody.
func (StrategyRequest) TaskType() string { return TaskStrategyRequest }
func (StrategyRequest) isTaskBody()      {}

// ComprehensiveStrategyRequest forwards profile driven research to the strategist.
type ComprehensiveStrategyRequest struct {
	OnboardingID string                `json:"onboarding_id"`
	Research     ComprehensiveResearch `json:"research"`
}

// TaskType implements TaskBody.
func (ComprehensiveStrategyRequest) TaskType() string { return TaskComprehensiveStrategyRequest }
func (ComprehensiveStrategyRequest) isTaskBody()      {}

// ContentRequest asks the writer to draft content of ContentType for Strategy.
type ContentRequest struct {
	Strategy    Strategy `json:"strategy"`
	ContentType string   `json:"content_type"`
}

// TaskType implements TaskBody.
func (ContentRequest) TaskType() string { return TaskContentRequest }
func (ContentRequest) isTaskBody()      {}

// FeedbackTask asks the feedback agent to adjust its sensitivity.
type FeedbackTask struct {
	Signal FeedbackSignal `json:"signal"`
}

// TaskType implements TaskBody.
func (FeedbackTask) TaskType() string { return TaskFeedback }
func (FeedbackTask) isTaskBody()      {}
