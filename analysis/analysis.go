// Package analysis turns profiles, cultural insights and performance data into
// model generated narratives and structured strategic recommendations.
package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/hupe1980/campaignmesh/core"
	"github.com/hupe1980/campaignmesh/internal/util"
	"github.com/hupe1980/campaignmesh/logging"
	"github.com/hupe1980/campaignmesh/model"
	"github.com/hupe1980/campaignmesh/performance"
	"github.com/mitchellh/mapstructure"
)

// Sampling temperatures per prompt.
const (
	SignalsTemperature         = 0.4
	InsightsTemperature        = 0.7
	PlanTemperature            = 0.8
	StrategicTemperature       = 0.6
	RecommendationsTemperature = 0.7
)

// Options configures an Analyzer.
type Options struct {
	// Timeout bounds every model call. Zero disables the per-call timeout.
	Timeout time.Duration

	Logger logging.Logger

	// OnCall observes every model call.
	OnCall func(operation string, dur time.Duration, err error)
}

// Analyzer runs the analysis prompts against a model.
type Analyzer struct {
	model  model.Model
	opts   Options
	logger logging.Logger
}

// New creates an Analyzer backed by m.
func New(m model.Model, optFns ...func(o *Options)) *Analyzer {
	opts := Options{
		Timeout: 2 * time.Minute,
		Logger:  logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Analyzer{
		model:  m,
		opts:   opts,
		logger: logging.OrNoOp(opts.Logger),
	}
}

func (a *Analyzer) complete(ctx context.Context, op string, req model.Request) (string, error) {
	if a.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	out, err := model.Complete(ctx, a.model, req)
	if a.opts.OnCall != nil {
		a.opts.OnCall(op, time.Since(start), err)
	}
	if err != nil {
		a.logger.Warn("Model call failed", "operation", op, "duration", time.Since(start), "error", err)
		return "", fmt.Errorf("%s: %w", op, err)
	}
	a.logger.Debug("Model call completed", "operation", op, "duration", time.Since(start))
	return out, nil
}

func (a *Analyzer) prompt(ctx context.Context, op, tmpl string, data any, temperature float64) (string, error) {
	prompt, err := util.RenderTemplate(tmpl, data)
	if err != nil {
		return "", fmt.Errorf("%s: render prompt: %w", op, err)
	}
	return a.complete(ctx, op, model.NewPrompt(prompt, temperature))
}

// ExtractAudienceSignals asks the model for targeting signals found in
// campaignText. Values given as a single string are treated as one phrase.
func (a *Analyzer) ExtractAudienceSignals(ctx context.Context, campaignText string) (core.AudienceSignals, error) {
	out, err := a.prompt(ctx, "audience_signals", audienceSignalsPrompt, map[string]any{
		"CampaignText": campaignText,
	}, SignalsTemperature)
	if err != nil {
		return nil, err
	}

	var raw map[string]any
	if err := util.DecodeJSONObject(out, &raw); err != nil {
		return nil, fmt.Errorf("audience_signals: %w", err)
	}

	signals := core.AudienceSignals{}
	for key, v := range raw {
		signals[key] = toStrings(v)
	}
	return signals, nil
}

// CampaignInsights writes the cultural insight narrative for a profile.
func (a *Analyzer) CampaignInsights(ctx context.Context, audienceProfile, productDescription string, ci core.CulturalInsights, signals core.AudienceSignals) (string, error) {
	tags := make([]string, 0, len(ci.Tags))
	for _, t := range ci.Tags {
		tags = append(tags, t.Name)
	}
	entities := make([]string, 0, len(ci.Entities))
	for _, e := range ci.Entities {
		entities = append(entities, e.Name)
	}
	trendingKeys := make([]string, 0, len(ci.Trending))
	for k := range ci.Trending {
		trendingKeys = append(trendingKeys, k)
	}
	sort.Strings(trendingKeys)
	trending := make([]string, 0, len(trendingKeys))
	for _, k := range trendingKeys {
		trending = append(trending, fmt.Sprintf("%s: %d trending items", k, len(ci.Trending[k])))
	}
	demographics := make([]string, 0, len(ci.Demographics))
	for _, d := range ci.Demographics {
		demographics = append(demographics, fmt.Sprintf("%s: %v", d.Name, d.Value))
	}

	return a.prompt(ctx, "campaign_insights", campaignInsightsPrompt, map[string]any{
		"AudienceProfile":    audienceProfile,
		"ProductDescription": productDescription,
		"Tags":               tags,
		"Entities":           entities,
		"Trending":           trending,
		"Demographics":       demographics,
		"Behaviors":          signals.Get(core.SignalBehaviors),
	}, InsightsTemperature)
}

// CampaignPlan writes the social launch plan derived from an insight narrative.
func (a *Analyzer) CampaignPlan(ctx context.Context, audienceProfile, productDescription, insights string) (string, error) {
	return a.prompt(ctx, "campaign_plan", campaignPlanPrompt, map[string]any{
		"AudienceProfile":    audienceProfile,
		"ProductDescription": productDescription,
		"Insights":           insights,
	}, PlanTemperature)
}

// StrategicInsights is the structured synthesis of performance and culture.
type StrategicInsights struct {
	KeyInsights        []string `json:"key_insights" mapstructure:"key_insights"`
	AudienceTrends     []string `json:"audience_trends" mapstructure:"audience_trends"`
	PerformanceDrivers []string `json:"performance_drivers" mapstructure:"performance_drivers"`
	Blindspots         []string `json:"blindspots" mapstructure:"blindspots"`
	Recommendations    []string `json:"recommendations" mapstructure:"recommendations"`
	Summary            string   `json:"summary" mapstructure:"summary"`
}

func (s *StrategicInsights) fillDefaults() {
	for _, p := range []*[]string{&s.KeyInsights, &s.AudienceTrends, &s.PerformanceDrivers, &s.Blindspots, &s.Recommendations} {
		if *p == nil {
			*p = []string{}
		}
	}
}

// FallbackInsights is returned when the insight synthesis fails.
func FallbackInsights(err error) StrategicInsights {
	s := StrategicInsights{
		KeyInsights: []string{"Analysis failed - please check data quality"},
		Summary:     fmt.Sprintf("Error generating insights: %v", err),
	}
	s.fillDefaults()
	return s
}

// StrategicInsights synthesizes a performance report with cultural insights.
// It never fails: model or decoding errors yield FallbackInsights.
func (a *Analyzer) StrategicInsights(ctx context.Context, report performance.Report, culturalInsights string) StrategicInsights {
	perf, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return FallbackInsights(err)
	}

	req, err := a.jsonRequest(strategicInsightsPrompt, map[string]any{
		"Performance":      string(perf),
		"CulturalInsights": culturalInsights,
	}, StrategicTemperature)
	if err != nil {
		return FallbackInsights(err)
	}

	out, err := a.complete(ctx, "strategic_insights", req)
	if err != nil {
		return FallbackInsights(err)
	}

	var s StrategicInsights
	if err := decodeLoose(out, &s); err != nil {
		a.logger.Warn("Strategic insights not decodable", "error", err)
		return FallbackInsights(err)
	}
	s.fillDefaults()
	return s
}

// Recommendation is one strategic focus area.
type Recommendation struct {
	Focus          string   `json:"focus" mapstructure:"focus"`
	Insight        string   `json:"insight" mapstructure:"insight"`
	Tactics        []string `json:"tactics" mapstructure:"tactics"`
	ExpectedImpact string   `json:"expected_impact" mapstructure:"expected_impact"`
}

// StrategicRecommendations holds recommendations and marketing assets.
type StrategicRecommendations struct {
	Recommendations        []Recommendation `json:"recommendations" mapstructure:"recommendations"`
	TopPriority            string           `json:"top_priority" mapstructure:"top_priority"`
	ContentThemes          []string         `json:"content_themes" mapstructure:"content_themes"`
	Captions               []string         `json:"captions" mapstructure:"captions"`
	Hashtags               []string         `json:"hashtags" mapstructure:"hashtags"`
	ToneStyleSummary       string           `json:"tone_style_summary" mapstructure:"tone_style_summary"`
	OptionalCollaborations []string         `json:"optional_collaborations" mapstructure:"optional_collaborations"`
	Timeline               map[string]any   `json:"timeline" mapstructure:"timeline"`
	Error                  string           `json:"error,omitempty" mapstructure:"-"`
}

func (r *StrategicRecommendations) fillDefaults() {
	if r.Recommendations == nil {
		r.Recommendations = []Recommendation{}
	}
	for _, p := range []*[]string{&r.ContentThemes, &r.Captions, &r.Hashtags, &r.OptionalCollaborations} {
		if *p == nil {
			*p = []string{}
		}
	}
	if r.Timeline == nil {
		r.Timeline = map[string]any{}
	}
}

// FallbackRecommendations is returned when recommendation generation fails.
func FallbackRecommendations(err error) StrategicRecommendations {
	r := StrategicRecommendations{
		Recommendations: []Recommendation{{
			Focus:          "Data Analysis",
			Insight:        "Unable to generate recommendations due to error",
			Tactics:        []string{"Review data quality", "Check system logs"},
			ExpectedImpact: "Resolve technical issues",
		}},
		TopPriority: "Fix data processing pipeline",
		Error:       err.Error(),
	}
	r.fillDefaults()
	return r
}

// RecommendationContext is optional context for StrategicRecommendations.
// Empty fields are left out of the prompt.
type RecommendationContext struct {
	CampaignPlan       string
	AudienceProfile    string
	ProductDescription string
	PlatformTrends     string
	OnboardingInfo     string
}

// StrategicRecommendations derives tactical recommendations from insights.
// It never fails: model or decoding errors yield FallbackRecommendations.
func (a *Analyzer) StrategicRecommendations(ctx context.Context, insights StrategicInsights, rc RecommendationContext) StrategicRecommendations {
	analysis, err := json.MarshalIndent(insights, "", "  ")
	if err != nil {
		return FallbackRecommendations(err)
	}

	req, err := a.jsonRequest(strategicRecommendationsPrompt, map[string]any{
		"Analysis":           string(analysis),
		"CampaignPlan":       rc.CampaignPlan,
		"AudienceProfile":    rc.AudienceProfile,
		"ProductDescription": rc.ProductDescription,
		"PlatformTrends":     rc.PlatformTrends,
		"OnboardingInfo":     rc.OnboardingInfo,
	}, RecommendationsTemperature)
	if err != nil {
		return FallbackRecommendations(err)
	}

	out, err := a.complete(ctx, "strategic_recommendations", req)
	if err != nil {
		return FallbackRecommendations(err)
	}

	var r StrategicRecommendations
	if err := decodeLoose(out, &r); err != nil {
		a.logger.Warn("Strategic recommendations not decodable", "error", err)
		return FallbackRecommendations(err)
	}
	r.fillDefaults()
	return r
}

func (a *Analyzer) jsonRequest(tmpl string, data any, temperature float64) (model.Request, error) {
	prompt, err := util.RenderTemplate(tmpl, data)
	if err != nil {
		return model.Request{}, err
	}
	req := model.NewPrompt(prompt, temperature)
	req.Instructions = jsonAnalystInstructions
	return req, nil
}

// decodeLoose extracts the JSON object from a model answer and decodes it
// with weak typing, so single strings fill one-element lists.
func decodeLoose(content string, out any) error {
	var raw map[string]any
	if err := util.DecodeJSONObject(content, &raw); err != nil {
		return err
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return dec.Decode(raw)
}

func toStrings(v any) []string {
	switch t := v.(type) {
	case nil:
		return []string{}
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return []string{}
		}
		return []string{s}
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s := strings.TrimSpace(fmt.Sprint(item)); s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return []string{fmt.Sprint(t)}
	}
}
