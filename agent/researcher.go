package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/campaignmesh/analysis"
	"github.com/hupe1980/campaignmesh/core"
	"github.com/hupe1980/campaignmesh/graph"
	"github.com/hupe1980/campaignmesh/internal/util"
	"github.com/hupe1980/campaignmesh/performance"
	"github.com/hupe1980/campaignmesh/rag"
)

// Research outcome sentinels. Failed topic research never returns an error;
// it carries one of these summaries instead.
const (
	ResearchFailedSummary  = "RAG request failed."
	ResearchFailedKeyPoint = "No insights generated due to error."
	ResearchErrorSummary   = "Failed to generate research due to system error."
	ResearchErrorKeyPoint  = "Internal error occurred."
)

// Output types of comprehensive research and strategic analysis.
const (
	OutputInsights = "insights"
	OutputPlan     = "plan"
)

// ResearchService answers a topic query with raw model text that embeds a
// {"summary", "key_points"} JSON object. *rag.Client implements it.
type ResearchService interface {
	Research(ctx context.Context, topic string) (string, error)
}

// InsightService resolves audience signals into cultural insights.
// *insight.Client implements it.
type InsightService interface {
	Insights(ctx context.Context, signals core.AudienceSignals) (core.CulturalInsights, error)
}

// Analyst produces the model generated parts of comprehensive research and
// strategic analysis. *analysis.Analyzer implements it.
type Analyst interface {
	ExtractAudienceSignals(ctx context.Context, campaignText string) (core.AudienceSignals, error)
	CampaignInsights(ctx context.Context, audienceProfile, productDescription string, ci core.CulturalInsights, signals core.AudienceSignals) (string, error)
	CampaignPlan(ctx context.Context, audienceProfile, productDescription, insights string) (string, error)
	StrategicInsights(ctx context.Context, report performance.Report, culturalInsights string) analysis.StrategicInsights
	StrategicRecommendations(ctx context.Context, insights analysis.StrategicInsights, rc analysis.RecommendationContext) analysis.StrategicRecommendations
}

// ResearcherOptions configures the researcher. Nil collaborators degrade the
// corresponding capability to its error result.
type ResearcherOptions struct {
	Options

	Research ResearchService
	Insights InsightService
	Analyst  Analyst
	Profiles core.ProfileStore

	// CallTimeout bounds every external call. Zero disables it.
	CallTimeout time.Duration

	// Now stamps comprehensive research results. Defaults to time.Now.
	Now func() time.Time
}

// StrategicAnalysis is the result of GenerateStrategicAnalysisAndPlan.
type StrategicAnalysis struct {
	Success             bool                               `json:"success"`
	PerformanceAnalysis *performance.Report                `json:"performance_analysis,omitempty"`
	CampaignInsights    *analysis.StrategicInsights        `json:"campaign_insights,omitempty"`
	CampaignPlan        *analysis.StrategicRecommendations `json:"campaign_plan,omitempty"`
	Error               string                             `json:"error,omitempty"`
}

// Researcher runs topic research, profile driven comprehensive research and
// strategic analysis, and forwards strategy requests to the strategist.
type Researcher struct {
	BaseAgent
	opts ResearcherOptions
}

// NewResearcher creates the researcher agent.
func NewResearcher(d core.Dispatcher, optFns ...func(o *ResearcherOptions)) *Researcher {
	opts := ResearcherOptions{
		Options:     defaultOptions(),
		CallTimeout: rag.DefaultTimeout,
		Now:         time.Now,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Researcher{
		BaseAgent: NewBaseAgent(graph.Researcher, d, opts.Options),
		opts:      opts,
	}
}

func (r *Researcher) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.opts.CallTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.opts.CallTimeout)
}

// ConductResearch queries the research service for topic. It never fails:
// non-2xx answers, transport errors and undecodable answers yield sentinel
// findings and a rag_failure or rag_exception event.
func (r *Researcher) ConductResearch(ctx context.Context, topic string) core.ResearchFindings {
	findings := core.ResearchFindings{
		Topic:       topic,
		Trends:      map[string]any{},
		Competitors: []string{},
		Sources:     []string{},
	}

	systemError := func(err error) core.ResearchFindings {
		r.LogEvent("rag_exception", map[string]any{"error": err.Error()})
		r.logger.Error("Research failed", "agent", r.name, "topic", topic, "error", err)
		findings.Summary = ResearchErrorSummary
		findings.KeyPoints = []string{ResearchErrorKeyPoint}
		return findings
	}

	if r.opts.Research == nil {
		return systemError(errors.New("research service not configured"))
	}

	cctx, cancel := r.callContext(ctx)
	content, err := r.opts.Research.Research(cctx, topic)
	cancel()

	var se *rag.StatusError
	if errors.As(err, &se) {
		r.LogEvent("rag_failure", map[string]any{"status": se.StatusCode, "error": se.Body})
		r.logger.Warn("Research service rejected request", "agent", r.name, "topic", topic, "status", se.StatusCode)
		findings.Summary = ResearchFailedSummary
		findings.KeyPoints = []string{ResearchFailedKeyPoint}
		return findings
	}
	if err != nil {
		return systemError(err)
	}

	var parsed struct {
		Summary   string   `json:"summary"`
		KeyPoints []string `json:"key_points"`
	}
	if err := util.DecodeJSONObject(content, &parsed); err != nil {
		return systemError(err)
	}

	findings.Summary = parsed.Summary
	findings.KeyPoints = parsed.KeyPoints
	if findings.KeyPoints == nil {
		findings.KeyPoints = []string{}
	}
	return findings
}

// profile loads the profile with id, or the latest one when id is empty.
func (r *Researcher) profile(ctx context.Context, id string) (core.Profile, error) {
	if r.opts.Profiles == nil {
		return core.Profile{}, errors.New("No onboarding data available")
	}

	var p core.Profile
	var err error
	if id != "" {
		p, err = r.opts.Profiles.Get(ctx, id)
	} else {
		p, err = r.opts.Profiles.Latest(ctx)
	}

	switch {
	case err == nil:
		return p, nil
	case errors.Is(err, core.ErrProfileNotFound) && id != "":
		return core.Profile{}, fmt.Errorf("No onboarding data found for ID: %s", id)
	case errors.Is(err, core.ErrProfileNotFound):
		return core.Profile{}, errors.New("No onboarding data found in database")
	default:
		r.LogEvent("onboarding_fetch_error", map[string]any{"error": err.Error()})
		return core.Profile{}, fmt.Errorf("Failed to fetch onboarding data: %v", err)
	}
}

// ConductComprehensiveResearch combines an onboarding profile, extracted
// audience signals and cultural insights into campaign insights, plus a
// campaign plan when outputType is OutputPlan. An empty onboardingID selects
// the latest profile. It never fails; errors are reported in the result.
func (r *Researcher) ConductComprehensiveResearch(ctx context.Context, onboardingID, outputType string) core.ComprehensiveResearch {
	now := r.opts.Now().UTC()

	p, err := r.profile(ctx, onboardingID)
	if err != nil {
		return core.ComprehensiveResearch{Error: err.Error(), GeneratedAt: now}
	}

	audience, product, goal := p.AudienceProfile(), p.ProductDescription(), p.CampaignGoal()

	if r.opts.Analyst == nil {
		err := errors.New("analyst not configured")
		r.LogEvent("comprehensive_research_error", map[string]any{"error": err.Error()})
		return core.ComprehensiveResearch{Error: fmt.Sprintf("Comprehensive research failed: %v", err), GeneratedAt: now}
	}

	cctx, cancel := r.callContext(ctx)
	signals, err := r.opts.Analyst.ExtractAudienceSignals(cctx, audience+"\n"+product+"\n"+goal)
	cancel()
	if err != nil {
		r.LogEvent("comprehensive_research_error", map[string]any{"error": err.Error()})
		return core.ComprehensiveResearch{Error: fmt.Sprintf("Comprehensive research failed: %v", err), GeneratedAt: now}
	}

	res, err := r.culturalResearch(ctx, audience, product, signals, outputType)
	if err != nil {
		r.LogEvent("qloo_research_error", map[string]any{"error": err.Error()})
		r.logger.Warn("Cultural research failed", "agent", r.name, "onboarding_id", p.ID, "error", err)
		return core.ComprehensiveResearch{
			Error:           fmt.Sprintf("Qloo research failed: %v", err),
			Profile:         &p,
			PartialResearch: true,
			GeneratedAt:     now,
		}
	}

	res.Success = true
	res.OnboardingID = p.ID
	res.AudienceProfile = audience
	res.ProductDescription = product
	res.CampaignGoal = goal
	res.SeedSignals = signals
	res.GeneratedAt = now
	return res
}

// culturalResearch runs the insight lookups and narrative synthesis.
func (r *Researcher) culturalResearch(ctx context.Context, audience, product string, signals core.AudienceSignals, outputType string) (core.ComprehensiveResearch, error) {
	if r.opts.Insights == nil {
		return core.ComprehensiveResearch{}, errors.New("insight service not configured")
	}

	cctx, cancel := r.callContext(ctx)
	ci, err := r.opts.Insights.Insights(cctx, signals)
	cancel()
	if err != nil {
		return core.ComprehensiveResearch{}, err
	}

	cctx, cancel = r.callContext(ctx)
	insights, err := r.opts.Analyst.CampaignInsights(cctx, audience, product, ci, signals)
	cancel()
	if err != nil {
		return core.ComprehensiveResearch{}, err
	}

	res := core.ComprehensiveResearch{
		CulturalInsights: &ci,
		CampaignInsights: insights,
		ResearchSummary:  "Comprehensive research completed using onboarding data and Qloo insights",
	}

	if outputType == OutputPlan {
		cctx, cancel = r.callContext(ctx)
		plan, err := r.opts.Analyst.CampaignPlan(cctx, audience, product, insights)
		cancel()
		if err != nil {
			return core.ComprehensiveResearch{}, err
		}
		res.CampaignPlan = plan
		res.ResearchSummary = "Comprehensive research and campaign plan completed using onboarding data and Qloo insights"
	}
	return res, nil
}

// GenerateStrategicAnalysisAndPlan runs comprehensive research, summarizes
// the supplied performance rows and synthesizes both. OutputInsights returns
// the synthesis; OutputPlan additionally derives tactical recommendations.
func (r *Researcher) GenerateStrategicAnalysisAndPlan(ctx context.Context, onboardingID string, posts []map[string]any, outputType string) StrategicAnalysis {
	if outputType != OutputInsights && outputType != OutputPlan {
		return StrategicAnalysis{Error: fmt.Sprintf("Unknown type: %s. Use 'insights' or 'plan'.", outputType)}
	}
	if r.opts.Analyst == nil {
		return StrategicAnalysis{Error: "analyst not configured"}
	}

	research := r.ConductComprehensiveResearch(ctx, onboardingID, outputType)
	report := performance.Summarize(posts, func(o *performance.SummaryOptions) { o.Now = r.opts.Now })

	cctx, cancel := r.callContext(ctx)
	insights := r.opts.Analyst.StrategicInsights(cctx, report, research.CampaignInsights)
	cancel()

	out := StrategicAnalysis{Success: true, PerformanceAnalysis: &report}
	if outputType == OutputInsights {
		out.CampaignInsights = &insights
		return out
	}

	cctx, cancel = r.callContext(ctx)
	plan := r.opts.Analyst.StrategicRecommendations(cctx, insights, analysis.RecommendationContext{
		AudienceProfile:    research.AudienceProfile,
		ProductDescription: research.ProductDescription,
	})
	cancel()
	out.CampaignPlan = &plan
	return out
}

// Act handles research requests.
func (r *Researcher) Act(ctx context.Context, body core.TaskBody) (core.ActResult, error) {
	switch b := body.(type) {
	case core.ResearchRequest:
		findings := r.ConductResearch(ctx, b.Topic)
		r.state["last_research"] = findings
		return core.ActResult{Status: core.StatusSuccess, Message: "Research completed"}, nil
	case core.GoalTask, core.Subtask, core.ComprehensiveResearchTask, core.StrategyRequest,
		core.ComprehensiveStrategyRequest, core.ContentRequest, core.FeedbackTask:
		return core.ActResult{Status: core.StatusError, Message: "Invalid task type"}, nil
	default:
		return core.ActResult{}, core.MalformedPayloadError(r.name, core.KindTask, fmt.Sprintf("unexpected task body %T", body))
	}
}

// ReceiveMessage implements core.Agent.
func (r *Researcher) ReceiveMessage(ctx context.Context, sender string, msg core.Message) error {
	switch m := msg.Payload.(type) {
	case core.Task:
		body, err := r.taskBody(m)
		if err != nil {
			return err
		}
		return r.handleTask(ctx, sender, body)
	case core.ConfigUpdate:
		r.applyConfigUpdate(sender, m)
		return nil
	case core.TaskResult, core.Feedback:
		return nil
	case nil:
		return missingPayload(r.name)
	default:
		return core.MalformedPayloadError(r.name, msg.Kind(), "unsupported payload")
	}
}

func (r *Researcher) handleTask(ctx context.Context, sender string, body core.TaskBody) error {
	switch b := body.(type) {
	case core.GoalTask:
		return r.researchAndForward(ctx, b.Goal)
	case core.Subtask:
		if b.Type != core.TaskResearch {
			r.invalidTask(sender, b)
			return nil
		}
		return r.researchAndForward(ctx, b.Description)
	case core.ComprehensiveResearchTask:
		outputType := b.OutputType
		if outputType == "" {
			outputType = OutputInsights
		}
		res := r.ConductComprehensiveResearch(ctx, b.OnboardingID, outputType)
		if err := r.SendMessage(ctx, graph.Strategist, core.NewTask(r.name, core.ComprehensiveStrategyRequest{
			OnboardingID: b.OnboardingID,
			Research:     res,
		})); err != nil {
			return err
		}
		r.LogEvent("comprehensive_research_completed", map[string]any{"onboarding_id": b.OnboardingID, "success": res.Success})
		return nil
	case core.ResearchRequest:
		res, err := r.Act(ctx, b)
		if err != nil {
			return err
		}
		r.LogEvent("research_request", map[string]any{"status": res.Status})
		return nil
	case core.StrategyRequest, core.ComprehensiveStrategyRequest, core.ContentRequest, core.FeedbackTask:
		r.invalidTask(sender, b)
		return nil
	default:
		return core.MalformedPayloadError(r.name, core.KindTask, fmt.Sprintf("unexpected task body %T", body))
	}
}

func (r *Researcher) researchAndForward(ctx context.Context, topic string) error {
	findings := r.ConductResearch(ctx, topic)
	r.state["last_topic"] = topic
	if err := r.SendMessage(ctx, graph.Strategist, core.NewTask(r.name, core.StrategyRequest{
		Goal:     topic,
		Research: findings,
	})); err != nil {
		return err
	}
	r.LogEvent("research_completed", map[string]any{"topic": topic})
	return nil
}

var _ core.Agent = (*Researcher)(nil)
