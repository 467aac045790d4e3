package agent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hupe1980/campaignmesh/analysis"
	"github.com/hupe1980/campaignmesh/core"
	"github.com/hupe1980/campaignmesh/graph"
	"github.com/hupe1980/campaignmesh/onboarding"
	"github.com/hupe1980/campaignmesh/performance"
	"github.com/hupe1980/campaignmesh/rag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockResearch struct{ mock.Mock }

func (m *MockResearch) Research(ctx context.Context, topic string) (string, error) {
	args := m.Called(topic)
	return args.String(0), args.Error(1)
}

type MockInsights struct{ mock.Mock }

func (m *MockInsights) Insights(ctx context.Context, signals core.AudienceSignals) (core.CulturalInsights, error) {
	args := m.Called(signals)
	return args.Get(0).(core.CulturalInsights), args.Error(1)
}

type MockAnalyst struct{ mock.Mock }

func (m *MockAnalyst) ExtractAudienceSignals(ctx context.Context, text string) (core.AudienceSignals, error) {
	args := m.Called(text)
	return args.Get(0).(core.AudienceSignals), args.Error(1)
}

func (m *MockAnalyst) CampaignInsights(ctx context.Context, audience, product string, ci core.CulturalInsights, signals core.AudienceSignals) (string, error) {
	args := m.Called(audience, product, ci, signals)
	return args.String(0), args.Error(1)
}

func (m *MockAnalyst) CampaignPlan(ctx context.Context, audience, product, insights string) (string, error) {
	args := m.Called(audience, product, insights)
	return args.String(0), args.Error(1)
}

func (m *MockAnalyst) StrategicInsights(ctx context.Context, report performance.Report, cultural string) analysis.StrategicInsights {
	args := m.Called(report, cultural)
	return args.Get(0).(analysis.StrategicInsights)
}

func (m *MockAnalyst) StrategicRecommendations(ctx context.Context, insights analysis.StrategicInsights, rc analysis.RecommendationContext) analysis.StrategicRecommendations {
	args := m.Called(insights, rc)
	return args.Get(0).(analysis.StrategicRecommendations)
}

var fixedNow = func() time.Time { return time.Date(2025, 7, 24, 12, 0, 0, 0, time.UTC) }

func TestConductResearch(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		err       error
		summary   string
		keyPoints []string
		event     string
	}{
		{
			name:      "success",
			content:   "Here you go: {\"summary\": \"Short posts win\", \"key_points\": [\"post daily\", \"use hashtags\"]} thanks",
			summary:   "Short posts win",
			keyPoints: []string{"post daily", "use hashtags"},
		},
		{
			name:      "status error",
			err:       &rag.StatusError{StatusCode: 503, Body: "unavailable"},
			summary:   ResearchFailedSummary,
			keyPoints: []string{ResearchFailedKeyPoint},
			event:     "rag_failure",
		},
		{
			name:      "transport error",
			err:       errors.New("connection refused"),
			summary:   ResearchErrorSummary,
			keyPoints: []string{ResearchErrorKeyPoint},
			event:     "rag_exception",
		},
		{
			name:      "no json",
			content:   "no structured answer",
			summary:   ResearchErrorSummary,
			keyPoints: []string{ResearchErrorKeyPoint},
			event:     "rag_exception",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockResearch)
			svc.On("Research", "twitter").Return(tt.content, tt.err)
			r := NewResearcher(nil, func(o *ResearcherOptions) { o.Research = svc })

			got := r.ConductResearch(context.Background(), "twitter")

			assert.Equal(t, "twitter", got.Topic)
			assert.Equal(t, tt.summary, got.Summary)
			assert.Equal(t, tt.keyPoints, got.KeyPoints)
			assert.NotNil(t, got.Trends)
			assert.NotNil(t, got.Competitors)
			assert.NotNil(t, got.Sources)
			if tt.event != "" {
				assert.Equal(t, []string{tt.event}, eventNames(r))
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestResearcher_ForwardsStrategyRequest(t *testing.T) {
	d, out := capture()
	svc := new(MockResearch)
	svc.On("Research", "Research best practices for grow").Return(`{"summary":"s","key_points":["k"]}`, nil)
	r := NewResearcher(d, func(o *ResearcherOptions) { o.Research = svc })

	msg := core.NewTask(graph.Planner, core.Subtask{Type: core.TaskResearch, Description: "Research best practices for grow", Priority: 1})
	require.NoError(t, r.ReceiveMessage(context.Background(), graph.Planner, msg))

	require.Len(t, *out, 1)
	assert.Equal(t, graph.Strategist, (*out)[0].recipient)
	req := (*out)[0].msg.Payload.(core.Task).Body.(core.StrategyRequest)
	assert.Equal(t, "Research best practices for grow", req.Goal)
	assert.Equal(t, []string{"k"}, req.Research.KeyPoints)
	assert.Contains(t, eventNames(r), "research_completed")
}

func TestResearcher_IgnoresOtherSubtasks(t *testing.T) {
	d, out := capture()
	r := NewResearcher(d)

	msg := core.NewTask(graph.Planner, core.Subtask{Type: core.TaskStrategy})
	require.NoError(t, r.ReceiveMessage(context.Background(), graph.Planner, msg))
	assert.Empty(t, *out)
	assert.Equal(t, []string{EventInvalidTaskType}, eventNames(r))
}

func newComprehensiveFixture(t *testing.T) (*Researcher, *MockAnalyst, *MockInsights, core.Profile) {
	t.Helper()
	store := onboarding.NewInMemoryStore()
	p, err := store.Save(context.Background(), core.Profile{BrandName: "Glow", Product: "Serum", CampaignObjective: "Launch"})
	require.NoError(t, err)

	analyst := new(MockAnalyst)
	insights := new(MockInsights)
	r := NewResearcher(nil, func(o *ResearcherOptions) {
		o.Analyst = analyst
		o.Insights = insights
		o.Profiles = store
		o.Now = fixedNow
	})
	return r, analyst, insights, p
}

func TestConductComprehensiveResearch_Plan(t *testing.T) {
	r, analyst, insights, p := newComprehensiveFixture(t)
	signals := core.AudienceSignals{core.SignalInterests: {"skincare"}}
	ci := core.CulturalInsights{Tags: []core.Tag{{ID: "urn:tag:skincare", Name: "Skincare"}}}

	combined := p.AudienceProfile() + "\n" + p.ProductDescription() + "\n" + p.CampaignGoal()
	analyst.On("ExtractAudienceSignals", combined).Return(signals, nil)
	insights.On("Insights", signals).Return(ci, nil)
	analyst.On("CampaignInsights", p.AudienceProfile(), p.ProductDescription(), ci, signals).Return("narrative", nil)
	analyst.On("CampaignPlan", p.AudienceProfile(), p.ProductDescription(), "narrative").Return("plan", nil)

	res := r.ConductComprehensiveResearch(context.Background(), p.ID, OutputPlan)

	require.True(t, res.Success, res.Error)
	assert.Equal(t, p.ID, res.OnboardingID)
	assert.Equal(t, "narrative", res.CampaignInsights)
	assert.Equal(t, "plan", res.CampaignPlan)
	assert.Equal(t, signals, res.SeedSignals)
	require.NotNil(t, res.CulturalInsights)
	assert.Equal(t, ci, *res.CulturalInsights)
	assert.Equal(t, fixedNow(), res.GeneratedAt)
	assert.Contains(t, res.ResearchSummary, "campaign plan")
	analyst.AssertExpectations(t)
	insights.AssertExpectations(t)
}

func TestConductComprehensiveResearch_NotFound(t *testing.T) {
	r, analyst, _, _ := newComprehensiveFixture(t)

	res := r.ConductComprehensiveResearch(context.Background(), "nope", OutputInsights)

	assert.False(t, res.Success)
	assert.Equal(t, "No onboarding data found for ID: nope", res.Error)
	analyst.AssertNotCalled(t, "ExtractAudienceSignals", mock.Anything)
}

func TestConductComprehensiveResearch_EmptyStore(t *testing.T) {
	r := NewResearcher(nil, func(o *ResearcherOptions) { o.Profiles = onboarding.NewInMemoryStore() })

	res := r.ConductComprehensiveResearch(context.Background(), "", OutputInsights)
	assert.Equal(t, "No onboarding data found in database", res.Error)
}

func TestConductComprehensiveResearch_InsightFailureIsPartial(t *testing.T) {
	r, analyst, insights, p := newComprehensiveFixture(t)
	signals := core.AudienceSignals{}

	analyst.On("ExtractAudienceSignals", mock.Anything).Return(signals, nil)
	insights.On("Insights", signals).Return(core.CulturalInsights{}, errors.New("quota"))

	res := r.ConductComprehensiveResearch(context.Background(), "", OutputInsights)

	assert.False(t, res.Success)
	assert.True(t, res.PartialResearch)
	assert.Equal(t, "Qloo research failed: quota", res.Error)
	require.NotNil(t, res.Profile)
	assert.Equal(t, p.ID, res.Profile.ID)
	assert.Contains(t, eventNames(r), "qloo_research_error")
}

func TestConductComprehensiveResearch_SignalFailure(t *testing.T) {
	r, analyst, _, _ := newComprehensiveFixture(t)
	analyst.On("ExtractAudienceSignals", mock.Anything).Return(core.AudienceSignals(nil), errors.New("bad json"))

	res := r.ConductComprehensiveResearch(context.Background(), "", OutputInsights)

	assert.Equal(t, "Comprehensive research failed: bad json", res.Error)
	assert.False(t, res.PartialResearch)
	assert.Contains(t, eventNames(r), "comprehensive_research_error")
}

func TestGenerateStrategicAnalysis_UnknownType(t *testing.T) {
	r, _, _, _ := newComprehensiveFixture(t)

	res := r.GenerateStrategicAnalysisAndPlan(context.Background(), "", nil, "summary")
	assert.False(t, res.Success)
	assert.Equal(t, "Unknown type: summary. Use 'insights' or 'plan'.", res.Error)
}

func TestGenerateStrategicAnalysis_Plan(t *testing.T) {
	r, analyst, insights, p := newComprehensiveFixture(t)
	signals := core.AudienceSignals{}
	ci := core.CulturalInsights{}
	strategic := analysis.StrategicInsights{Summary: "steady"}
	recs := analysis.StrategicRecommendations{TopPriority: "video"}

	analyst.On("ExtractAudienceSignals", mock.Anything).Return(signals, nil)
	insights.On("Insights", signals).Return(ci, nil)
	analyst.On("CampaignInsights", mock.Anything, mock.Anything, ci, signals).Return("narrative", nil)
	analyst.On("CampaignPlan", mock.Anything, mock.Anything, "narrative").Return("plan", nil)
	analyst.On("StrategicInsights", mock.AnythingOfType("performance.Report"), "narrative").Return(strategic)
	analyst.On("StrategicRecommendations", strategic, analysis.RecommendationContext{
		AudienceProfile:    p.AudienceProfile(),
		ProductDescription: p.ProductDescription(),
	}).Return(recs)

	rows := []map[string]any{{
		"platform": "twitter", "date": "2025-07-20", "post_id": "1", "text": "launch day",
		"impressions": 100, "engagements": 10,
	}}
	res := r.GenerateStrategicAnalysisAndPlan(context.Background(), p.ID, rows, OutputPlan)

	require.True(t, res.Success)
	require.NotNil(t, res.PerformanceAnalysis)
	assert.Equal(t, 1, res.PerformanceAnalysis.TotalPosts)
	assert.Nil(t, res.CampaignInsights)
	require.NotNil(t, res.CampaignPlan)
	assert.Equal(t, "video", res.CampaignPlan.TopPriority)
	analyst.AssertExpectations(t)
}
