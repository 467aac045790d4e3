package analysis

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hupe1980/campaignmesh/core"
	"github.com/hupe1980/campaignmesh/model"
	"github.com/hupe1980/campaignmesh/performance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mockAnswering(fn func(req model.Request) (string, error)) *model.MockModel {
	m := model.NewMockModel("mock", "mock")
	m.SetFallback(fn)
	return m
}

func TestExtractAudienceSignals(t *testing.T) {
	m := mockAnswering(func(req model.Request) (string, error) {
		return "```json\n" + `{
			"Demographics": ["Gen Z"],
			"Interests / Values": ["clean beauty", "wellness"],
			"Locations": "Brooklyn",
			"Behaviors": []
		}` + "\n```", nil
	})

	signals, err := New(m).ExtractAudienceSignals(context.Background(), "Clean skincare for #cleanbeauty fans in Brooklyn")
	require.NoError(t, err)
	assert.Equal(t, []string{"clean beauty", "wellness"}, signals.Get(core.SignalInterests))
	assert.Equal(t, []string{"Brooklyn"}, signals.Get(core.SignalLocations))
	assert.Empty(t, signals.Get(core.SignalBehaviors))
	assert.Empty(t, signals.Get(core.SignalCulturalReference))

	reqs := m.Requests()
	require.Len(t, reqs, 1)
	require.NotNil(t, reqs[0].Temperature)
	assert.InDelta(t, SignalsTemperature, *reqs[0].Temperature, 1e-9)
	assert.Contains(t, reqs[0].LastUserText(), `"""Clean skincare for #cleanbeauty fans in Brooklyn"""`)
}

func TestExtractAudienceSignals_NoJSON(t *testing.T) {
	m := mockAnswering(func(model.Request) (string, error) { return "I cannot help with that", nil })
	_, err := New(m).ExtractAudienceSignals(context.Background(), "text")
	assert.Error(t, err)
}

func TestCampaignInsights_Prompt(t *testing.T) {
	m := mockAnswering(func(model.Request) (string, error) { return "  Cultural Insights Summary: ...  ", nil })

	ci := core.CulturalInsights{
		Tags:         []core.Tag{{Name: "Sustainability"}, {Name: "Wellness"}},
		Entities:     []core.Entity{{Name: "Patagonia"}},
		Trending:     map[string][]core.Entity{"Patagonia": {{Name: "A"}, {Name: "B"}}},
		Demographics: []core.Demographic{{Name: "age.25_to_29", Value: 0.4}},
	}
	signals := core.AudienceSignals{core.SignalBehaviors: {"buys online", "reads reviews"}}

	out, err := New(m).CampaignInsights(context.Background(), "Age Range: 25-34\n", "Brand: Glow\n", ci, signals)
	require.NoError(t, err)
	assert.Equal(t, "Cultural Insights Summary: ...", out)

	prompt := m.Requests()[0].LastUserText()
	assert.Contains(t, prompt, "- Tags: Sustainability, Wellness")
	assert.Contains(t, prompt, "- Cultural Entities: Patagonia")
	assert.Contains(t, prompt, "- Trending Topics: Patagonia: 2 trending items")
	assert.Contains(t, prompt, "- Demographics: age.25_to_29: 0.4")
	assert.Contains(t, prompt, "buys online, reads reviews")
	assert.InDelta(t, InsightsTemperature, *m.Requests()[0].Temperature, 1e-9)
}

func TestCampaignPlan_Temperature(t *testing.T) {
	m := mockAnswering(func(model.Request) (string, error) { return "Captions (3)", nil })
	out, err := New(m).CampaignPlan(context.Background(), "a", "p", "insights text")
	require.NoError(t, err)
	assert.Equal(t, "Captions (3)", out)
	assert.InDelta(t, PlanTemperature, *m.Requests()[0].Temperature, 1e-9)
	assert.Contains(t, m.Requests()[0].LastUserText(), "insights text")
}

func TestStrategicInsights_FillsMissingKeys(t *testing.T) {
	m := mockAnswering(func(req model.Request) (string, error) {
		assert.Equal(t, jsonAnalystInstructions, req.Instructions)
		assert.Contains(t, req.LastUserText(), `"total_posts": 2`)
		return `Sure! {"key_insights": ["Reels outperform"], "summary": "Short video wins",}`, nil
	})

	s := New(m).StrategicInsights(context.Background(), performance.Report{TotalPosts: 2}, "cultural text")
	assert.Equal(t, []string{"Reels outperform"}, s.KeyInsights)
	assert.Equal(t, "Short video wins", s.Summary)
	assert.NotNil(t, s.AudienceTrends)
	assert.Empty(t, s.Blindspots)
}

func TestStrategicInsights_Fallback(t *testing.T) {
	m := mockAnswering(func(model.Request) (string, error) { return "", errors.New("model down") })

	s := New(m).StrategicInsights(context.Background(), performance.Report{}, "")
	assert.Equal(t, []string{"Analysis failed - please check data quality"}, s.KeyInsights)
	assert.True(t, strings.HasPrefix(s.Summary, "Error generating insights: "))
	assert.Contains(t, s.Summary, "model down")
}

func TestStrategicRecommendations(t *testing.T) {
	m := mockAnswering(func(req model.Request) (string, error) {
		prompt := req.LastUserText()
		assert.Contains(t, prompt, "Qloo Campaign Plan: the plan")
		assert.NotContains(t, prompt, "Platform Trends:")
		return `{
			"recommendations": [{"focus": "Video", "insight": "Reels", "tactics": ["Post daily"], "expected_impact": "+10% reach"}],
			"top_priority": "Ship reels",
			"hashtags": "#glow",
			"timeline": {"30": "pilot"}
		}`, nil
	})

	r := New(m).StrategicRecommendations(context.Background(), StrategicInsights{Summary: "s"}, RecommendationContext{CampaignPlan: "the plan"})
	require.Len(t, r.Recommendations, 1)
	assert.Equal(t, "Video", r.Recommendations[0].Focus)
	assert.Equal(t, []string{"Post daily"}, r.Recommendations[0].Tactics)
	assert.Equal(t, "Ship reels", r.TopPriority)
	assert.Equal(t, []string{"#glow"}, r.Hashtags)
	assert.Equal(t, "pilot", r.Timeline["30"])
	assert.NotNil(t, r.Captions)
	assert.Empty(t, r.Error)
	assert.InDelta(t, RecommendationsTemperature, *m.Requests()[0].Temperature, 1e-9)
}

func TestStrategicRecommendations_Fallback(t *testing.T) {
	m := mockAnswering(func(model.Request) (string, error) { return "no json here", nil })

	r := New(m).StrategicRecommendations(context.Background(), StrategicInsights{}, RecommendationContext{})
	require.Len(t, r.Recommendations, 1)
	assert.Equal(t, "Data Analysis", r.Recommendations[0].Focus)
	assert.Equal(t, "Fix data processing pipeline", r.TopPriority)
	assert.NotEmpty(t, r.Error)
	assert.NotNil(t, r.Timeline)
}

func TestAnalyzer_OnCall(t *testing.T) {
	var ops []string
	m := mockAnswering(func(model.Request) (string, error) { return "x", nil })
	a := New(m, func(o *Options) {
		o.OnCall = func(op string, _ time.Duration, _ error) { ops = append(ops, op) }
	})

	_, err := a.CampaignPlan(context.Background(), "", "", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"campaign_plan"}, ops)
}
