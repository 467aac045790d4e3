package core

import "time"

// ResearchFindings is the researcher's answer to a topic query. Degraded
// runs carry sentinel Summary/KeyPoints values instead of an error.
type ResearchFindings struct {
	Topic       string         `json:"topic"`
	Summary     string         `json:"summary"`
	KeyPoints   []string       `json:"key_points"`
	Trends      map[string]any `json:"trends"`
	Competitors []string       `json:"competitors"`
	Sources     []string       `json:"sources"`
}

// Strategy is the strategist's output. Platforms, ContentTypes and Frequency
// are only set when a channel template was merged in.
type Strategy struct {
	Goal               string            `json:"goal"`
	ResearchSummary    string            `json:"research_summary"`
	KeyFindings        []string          `json:"key_findings"`
	RecommendedActions []string          `json:"recommended_actions"`
	Timeline           map[string]string `json:"timeline"`
	Platforms          []string          `json:"platforms,omitempty"`
	ContentTypes       []string          `json:"content_types,omitempty"`
	Frequency          string            `json:"frequency,omitempty"`
}

// ContentDraft is a piece of content produced by the writer.
type ContentDraft struct {
	Type         string   `json:"type"`
	Content      string   `json:"content"`
	StrategyUsed Strategy `json:"strategy_used"`
	Status       string   `json:"status"`
}

// Feedback signal types understood by the feedback agent.
const (
	FeedbackPositive = "positive"
	FeedbackNegative = "negative"
)

// FeedbackSignal is a single piece of user feedback.
type FeedbackSignal struct {
	Type       string `json:"type"`
	CampaignID string `json:"campaign_id,omitempty"`
	Comment    string `json:"comment,omitempty"`
}

// FeedbackConfig holds the tunable feedback parameters. Sensitivity is kept in [0, 1].
type FeedbackConfig struct {
	Sensitivity     float64        `json:"sensitivity"`
	LearningRate    float64        `json:"learning_rate"`
	CurrentBehavior map[string]any `json:"current_behavior"`
	DesiredBehavior map[string]any `json:"desired_behavior"`
}

// DefaultFeedbackConfig returns sensitivity 0.5 and learning rate 0.1.
func DefaultFeedbackConfig() FeedbackConfig {
	return FeedbackConfig{
		Sensitivity:     0.5,
		LearningRate:    0.1,
		CurrentBehavior: map[string]any{},
		DesiredBehavior: map[string]any{},
	}
}

// ConfigPatch is a partial FeedbackConfig. Nil fields are left untouched on Apply.
type ConfigPatch struct {
	Sensitivity     *float64       `json:"sensitivity,omitempty"`
	LearningRate    *float64       `json:"learning_rate,omitempty"`
	CurrentBehavior map[string]any `json:"current_behavior,omitempty"`
	DesiredBehavior map[string]any `json:"desired_behavior,omitempty"`
}

// Patch returns a ConfigPatch setting every field of c.
func (c FeedbackConfig) Patch() ConfigPatch {
	s, lr := c.Sensitivity, c.LearningRate
	return ConfigPatch{
		Sensitivity:     &s,
		LearningRate:    &lr,
		CurrentBehavior: copyMap(c.CurrentBehavior),
		DesiredBehavior: copyMap(c.DesiredBehavior),
	}
}

// Apply returns c with the non-nil fields of p merged in.
func (c FeedbackConfig) Apply(p ConfigPatch) FeedbackConfig {
	out := c
	if p.Sensitivity != nil {
		out.Sensitivity = *p.Sensitivity
	}
	if p.LearningRate != nil {
		out.LearningRate = *p.LearningRate
	}
	if p.CurrentBehavior != nil {
		out.CurrentBehavior = copyMap(p.CurrentBehavior)
	}
	if p.DesiredBehavior != nil {
		out.DesiredBehavior = copyMap(p.DesiredBehavior)
	}
	return out
}

// Keys of the audience signal groups extracted from profile text.
const (
	SignalDemographics      = "Demographics"
	SignalInterests         = "Interests / Values"
	SignalBehaviors         = "Behaviors"
	SignalLocations         = "Locations"
	SignalCulturalReference = "Cultural References"
)

// AudienceSignals groups short targeting phrases by signal key.
type AudienceSignals map[string][]string

// Get returns the phrases for key, never nil.
func (s AudienceSignals) Get(key string) []string {
	if v, ok := s[key]; ok && v != nil {
		return v
	}
	return []string{}
}

// Tag is a cultural tag returned by the insight service.
type Tag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// Entity is a cultural entity (brand, artist, place) returned by the insight service.
type Entity struct {
	ID               string `json:"entity_id,omitempty"`
	Name             string `json:"name"`
	Subtype          string `json:"subtype,omitempty"`
	ShortDescription string `json:"short_description,omitempty"`
}

// Demographic is a single demographic affinity value.
type Demographic struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// CulturalInsights aggregates the insight service answers for one set of signals.
type CulturalInsights struct {
	Tags         []Tag               `json:"selected_tags"`
	Entities     []Entity            `json:"selected_entities"`
	Trending     map[string][]Entity `json:"trending_data"`
	Demographics []Demographic       `json:"demographics_data"`
}

// ComprehensiveResearch is the result of profile driven research. On failure
// Success is false and Error is set; PartialResearch marks a failure after the
// profile was loaded, in which case Profile is still populated.
type ComprehensiveResearch struct {
	Success            bool              `json:"success"`
	OnboardingID       string            `json:"onboarding_id,omitempty"`
	AudienceProfile    string            `json:"audience_profile,omitempty"`
	ProductDescription string            `json:"product_description,omitempty"`
	CampaignGoal       string            `json:"campaign_goal,omitempty"`
	SeedSignals        AudienceSignals   `json:"seed_signals,omitempty"`
	CulturalInsights   *CulturalInsights `json:"cultural_insights,omitempty"`
	CampaignInsights   string            `json:"campaign_insights,omitempty"`
	CampaignPlan       string            `json:"campaign_plan,omitempty"`
	ResearchSummary    string            `json:"research_summary,omitempty"`
	Error              string            `json:"error,omitempty"`
	Profile            *Profile          `json:"onboarding_data,omitempty"`
	PartialResearch    bool              `json:"partial_research,omitempty"`
	GeneratedAt        time.Time         `json:"generated_at"`
}

func copyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
