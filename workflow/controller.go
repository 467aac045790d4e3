package workflow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/campaignmesh/agent"
	"github.com/hupe1980/campaignmesh/core"
	"github.com/hupe1980/campaignmesh/engine"
	"github.com/hupe1980/campaignmesh/graph"
	"github.com/hupe1980/campaignmesh/logging"
)

// RecentEvents is the number of events per agent reported by WorkflowState.
const RecentEvents = 5

// Options holds dependency and configuration overrides passed to New.
type Options struct {
	// ID names the run. Defaults to a fresh UUID.
	ID string

	// Logger receives workflow diagnostics. Defaults to NoOp.
	Logger logging.Logger

	// MaxDeliveries bounds deliveries per operation. Zero disables the limit.
	MaxDeliveries int

	// Callbacks are registered on the router before the first delivery.
	Callbacks []engine.Callback

	// Researcher collaborators.
	Research    agent.ResearchService
	Insights    agent.InsightService
	Analyst     agent.Analyst
	Profiles    core.ProfileStore
	CallTimeout time.Duration

	// OnFinish observes every StartWorkflow outcome.
	OnFinish func(runID string, deliveries int, dur time.Duration, err error)

	// Now is the clock. Defaults to time.Now.
	Now func() time.Time
}

// AgentState is the per-agent view returned by WorkflowState.
type AgentState struct {
	State  core.State   `json:"state"`
	Events []core.Event `json:"events"`
}

// Controller owns one run: a router, the five agents wired to it and the
// graph connecting them. Public methods are safe for concurrent use; they
// are serialized because reactions mutate agent state.
type Controller struct {
	mu sync.Mutex

	id        string
	createdAt time.Time
	router    *engine.Router
	graph     *graph.Graph

	planner    *agent.Planner
	researcher *agent.Researcher
	strategist *agent.Strategist
	writer     *agent.Writer
	feedback   *agent.Feedback

	logger   logging.Logger
	onFinish func(runID string, deliveries int, dur time.Duration, err error)
	now      func() time.Time
}

// New creates the router, every agent with the router as its dispatcher and
// the default campaign graph.
func New(optFns ...func(o *Options)) (*Controller, error) {
	opts := Options{
		Logger:        logging.NoOpLogger{},
		MaxDeliveries: engine.DefaultMaxDeliveries,
		Now:           time.Now,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.ID == "" {
		opts.ID = core.NewID()
	}
	logger := logging.ForRun(opts.Logger, opts.ID)

	router := engine.NewRouter(func(o *engine.Options) {
		o.Logger = logger
		o.MaxDeliveries = opts.MaxDeliveries
	})
	for _, cb := range opts.Callbacks {
		router.Callbacks().RegisterCallback(cb)
	}

	agentOpts := func(o *agent.Options) { o.Logger = logger }

	c := &Controller{
		id:        opts.ID,
		createdAt: opts.Now().UTC(),
		router:    router,
		planner:   agent.NewPlanner(router, agentOpts),
		researcher: agent.NewResearcher(router, func(o *agent.ResearcherOptions) {
			o.Logger = logger
			o.Research = opts.Research
			o.Insights = opts.Insights
			o.Analyst = opts.Analyst
			o.Profiles = opts.Profiles
			if opts.CallTimeout > 0 {
				o.CallTimeout = opts.CallTimeout
			}
			o.Now = opts.Now
		}),
		strategist: agent.NewStrategist(router, agentOpts),
		writer:     agent.NewWriter(router, agentOpts),
		feedback:   agent.NewFeedback(router, agentOpts),
		logger:     logger,
		onFinish:   opts.OnFinish,
		now:        opts.Now,
	}

	g, err := graph.New([]core.Agent{c.planner, c.researcher, c.strategist, c.writer, c.feedback}, graph.DefaultEdges())
	if err != nil {
		return nil, fmt.Errorf("build workflow graph: %w", err)
	}
	c.graph = g
	router.SetGraph(g)

	return c, nil
}

// ID returns the run identifier.
func (c *Controller) ID() string { return c.id }

// CreatedAt returns when the controller was built.
func (c *Controller) CreatedAt() time.Time { return c.createdAt }

// Graph returns the workflow graph.
func (c *Controller) Graph() *graph.Graph { return c.graph }

// Router returns the run's router.
func (c *Controller) Router() *engine.Router { return c.router }

// StartWorkflow delivers goal to the planner once and aggregates the result
// after the reaction chain settled. Leftovers of an earlier run (queued
// subtasks, strategy and tweet snapshots) are discarded first. A returned
// error means the chain was aborted by a contract violation, the delivery
// limit or ctx.
func (c *Controller) StartWorkflow(ctx context.Context, goal string) (core.WorkflowResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	start := c.now()
	c.router.ResetBudget()
	c.planner.Reset()
	c.strategist.Reset()
	c.writer.Reset()
	c.logger.Info("Starting workflow", "goal", goal)

	err := c.router.Route(ctx, core.UserSender, graph.Planner, core.NewTask(core.UserSender, core.GoalTask{Goal: goal}))

	dur := c.now().Sub(start)
	deliveries := c.router.Deliveries()
	logging.LogWorkflow(c.logger, deliveries, dur, err)
	if c.onFinish != nil {
		c.onFinish(c.id, deliveries, dur, err)
	}

	if err != nil {
		return core.WorkflowResult{Status: core.StatusError, RunID: c.id, Tweets: []core.ContentDraft{}}, fmt.Errorf("start workflow: %w", err)
	}

	return c.aggregate(), nil
}

// aggregate collects the published snapshots of every contributing agent.
func (c *Controller) aggregate() core.WorkflowResult {
	res := core.WorkflowResult{Status: core.StatusSuccess, RunID: c.id, Tweets: []core.ContentDraft{}}
	for _, a := range c.graph.Agents() {
		if rc, ok := a.(core.ResultContributor); ok {
			rc.Contribute(&res)
		}
	}
	return res
}

// ProcessMessage routes msg from sender to the sender's first successor.
func (c *Controller) ProcessMessage(ctx context.Context, sender string, msg core.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.router.ResetBudget()
	if err := c.router.Process(ctx, sender, msg); err != nil {
		return fmt.Errorf("process message: %w", err)
	}
	return nil
}

// HandleFeedback delivers signal straight to the feedback agent. The
// resulting config broadcast still goes through the router.
func (c *Controller) HandleFeedback(ctx context.Context, signal core.FeedbackSignal) (core.FeedbackConfig, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.router.ResetBudget()
	msg := core.NewMessage(core.UserSender, core.Feedback{Signal: signal})
	if err := c.feedback.ReceiveMessage(ctx, core.UserSender, msg); err != nil {
		return core.FeedbackConfig{}, fmt.Errorf("handle feedback: %w", err)
	}
	return c.feedback.FeedbackConfig(), nil
}

// WorkflowState returns a state copy and the most recent events of every
// agent, keyed by agent name. It does not mutate anything.
func (c *Controller) WorkflowState() map[string]AgentState {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[string]AgentState, len(c.graph.Nodes()))
	for _, a := range c.graph.Agents() {
		out[a.Name()] = AgentState{
			State:  a.State().Clone(),
			Events: a.Events().Tail(RecentEvents),
		}
	}
	return out
}

// StrategyResult returns the strategist's latest strategy. ok is false when
// no strategy was produced yet.
func (c *Controller) StrategyResult() (strategy core.Strategy, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if st := c.strategist.LatestStrategy(); st != nil {
		return *st, true
	}
	return core.Strategy{}, false
}

// ComprehensiveResearch runs profile driven research on the researcher.
func (c *Controller) ComprehensiveResearch(ctx context.Context, onboardingID, outputType string) core.ComprehensiveResearch {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.researcher.ConductComprehensiveResearch(ctx, onboardingID, outputType)
}

// StrategicAnalysis runs the researcher's strategic analysis over posts.
func (c *Controller) StrategicAnalysis(ctx context.Context, onboardingID string, posts []map[string]any, outputType string) agent.StrategicAnalysis {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.researcher.GenerateStrategicAnalysisAndPlan(ctx, onboardingID, posts, outputType)
}

// Planner returns the planner agent.
func (c *Controller) Planner() *agent.Planner { return c.planner }
