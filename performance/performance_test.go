package performance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_Twitter(t *testing.T) {
	p, err := Normalize(map[string]any{
		"platform":    "twitter",
		"date":        "2025-07-01",
		"post_id":     12345,
		"text":        "Big LAUNCH today",
		"impressions": 1000,
		"engagements": "37",
		"likes":       20,
		"replies":     5,
		"retweets":    12,
	})
	require.NoError(t, err)

	assert.Equal(t, PlatformTwitter, p.Platform)
	assert.Equal(t, "12345", p.PostID)
	assert.Equal(t, "product_launch", p.CampaignName)
	assert.EqualValues(t, 1000, p.Reach)
	require.NotNil(t, p.EngagementRate)
	assert.InDelta(t, 0.037, *p.EngagementRate, 1e-9)
	require.NotNil(t, p.Comments)
	assert.EqualValues(t, 5, *p.Comments)
	require.NotNil(t, p.Shares)
	assert.EqualValues(t, 12, *p.Shares)
	assert.Nil(t, p.Saves)
	assert.Nil(t, p.ConversionRate)
}

func TestNormalize_InstagramAndMeta(t *testing.T) {
	for _, platform := range []string{"instagram", "meta"} {
		t.Run(platform, func(t *testing.T) {
			p, err := Normalize(map[string]any{
				"platform":    platform,
				"created_at":  "2025-07-02T10:30:00Z",
				"caption":     "5 tips for glowing skin",
				"reach":       400,
				"impressions": 900,
				"engagements": 30,
				"saves":       7,
			})
			require.NoError(t, err)
			assert.Equal(t, PlatformInstagram, p.Platform)
			assert.Equal(t, "2025-07-02", p.Date)
			assert.Equal(t, "educational", p.CampaignName)
			require.NotNil(t, p.EngagementRate)
			assert.InDelta(t, 0.075, *p.EngagementRate, 1e-9)
			require.NotNil(t, p.Saves)
			assert.EqualValues(t, 7, *p.Saves)
		})
	}
}

func TestNormalize_GA4(t *testing.T) {
	p, err := Normalize(map[string]any{
		"platform":         "ga4",
		"date":             "2025-07-03",
		"sessions":         300,
		"users":            250,
		"engaged_sessions": 120,
		"engagement_rate":  0.400049,
		"conversions":      9,
	})
	require.NoError(t, err)
	assert.Equal(t, "unknown", p.CampaignName)
	assert.EqualValues(t, 300, p.Impressions)
	assert.EqualValues(t, 250, p.Reach)
	assert.EqualValues(t, 120, p.Engagements)
	require.NotNil(t, p.EngagementRate)
	assert.InDelta(t, 0.4, *p.EngagementRate, 1e-9)
	require.NotNil(t, p.ConversionRate)
	assert.InDelta(t, 0.03, *p.ConversionRate, 1e-9)
}

func TestNormalize_ZeroDenominator(t *testing.T) {
	p, err := Normalize(map[string]any{"platform": "twitter", "engagements": 4})
	require.NoError(t, err)
	require.NotNil(t, p.EngagementRate)
	assert.Zero(t, *p.EngagementRate)
}

func TestNormalize_GA4WithoutEngagementRate(t *testing.T) {
	p, err := Normalize(map[string]any{"platform": "ga4", "date": "2025-07-03", "sessions": 10, "conversions": 1})
	require.NoError(t, err)
	assert.Nil(t, p.EngagementRate)
	require.NotNil(t, p.ConversionRate)
	assert.InDelta(t, 0.1, *p.ConversionRate, 1e-9)
}

func TestNormalize_UnsupportedPlatform(t *testing.T) {
	_, err := Normalize(map[string]any{"platform": "tiktok"})
	assert.ErrorIs(t, err, ErrUnsupportedPlatform)
}

func TestInferCampaignName(t *testing.T) {
	cases := map[string]string{
		"":                        "general",
		"Product launch tips":     "product_launch",
		"Weekly tips":             "educational",
		"Summer SALE starts now":  "promotion",
		"Behind the scenes story": "general",
	}
	for in, want := range cases {
		assert.Equal(t, want, InferCampaignName(in), in)
	}
}

func TestAnalyze_Empty(t *testing.T) {
	r := Analyze(nil)
	assert.Zero(t, r.TotalPosts)
	assert.Nil(t, r.TopPost)
	assert.Empty(t, r.PlatformSummary)
	assert.Equal(t, NoPostsMessage, r.Message)
}

func f64(v float64) *float64 { return &v }

func TestAnalyze(t *testing.T) {
	posts := []Post{
		{Platform: "twitter", Engagements: 10, EngagementRate: f64(0.1)},
		{Platform: "twitter", Engagements: 50, EngagementRate: f64(0.2)},
		{Platform: "ga4", Engagements: 50, EngagementRate: f64(0.33333), ConversionRate: f64(0.05)},
	}

	r := Analyze(posts)
	assert.Equal(t, 3, r.TotalPosts)
	assert.InDelta(t, 0.2111, r.AvgEngagementRate, 1e-9)
	assert.InDelta(t, 0.05, r.AvgConversionRate, 1e-9)
	require.NotNil(t, r.TopPost)
	assert.Equal(t, "twitter", r.TopPost.Platform, "first post wins ties")
	assert.Equal(t, PlatformSummary{TotalPosts: 2, AvgEngagement: 0.15}, r.PlatformSummary["twitter"])
	assert.Equal(t, 1, r.PlatformSummary["ga4"].TotalPosts)
	assert.Empty(t, r.Message)
}

func TestAnalyze_AveragesSkipUnratedPosts(t *testing.T) {
	posts := []Post{
		{Platform: "twitter", Engagements: 10, EngagementRate: f64(0.1)},
		{Platform: "twitter", Engagements: 20, EngagementRate: f64(0.3)},
		{Platform: "ga4", Engagements: 90, ConversionRate: f64(0.02)},
	}

	r := Analyze(posts)
	assert.Equal(t, 3, r.TotalPosts)
	assert.InDelta(t, 0.2, r.AvgEngagementRate, 1e-9, "the unrated ga4 post does not dilute the average")
	assert.Equal(t, PlatformSummary{TotalPosts: 2, AvgEngagement: 0.2}, r.PlatformSummary["twitter"])
	assert.Equal(t, PlatformSummary{TotalPosts: 1}, r.PlatformSummary["ga4"])
	require.NotNil(t, r.TopPost)
	assert.Equal(t, "ga4", r.TopPost.Platform)
}

func TestAnalyze_NoRates(t *testing.T) {
	r := Analyze([]Post{{Platform: "ga4", Engagements: 3}})
	assert.Equal(t, 1, r.TotalPosts)
	assert.Zero(t, r.AvgEngagementRate)
	assert.Zero(t, r.AvgConversionRate)
}

func TestSummarize_Window(t *testing.T) {
	now := time.Date(2025, 7, 24, 12, 0, 0, 0, time.UTC)
	rows := []map[string]any{
		{"platform": "twitter", "date": "2025-07-20", "impressions": 100, "engagements": 10},
		{"platform": "twitter", "date": "2025-05-01", "impressions": 100, "engagements": 90},
		{"platform": "instagram", "created_at": "2025-07-10T08:00:00", "reach": 100, "engagements": 20},
		{"platform": "twitter", "date": "yesterday"},
		{"platform": "linkedin", "date": "2025-07-20"},
	}

	r := Summarize(rows, func(o *SummaryOptions) { o.Now = func() time.Time { return now } })
	assert.Equal(t, 2, r.TotalPosts)
	assert.Equal(t, 2, r.Skipped)
	require.NotNil(t, r.TopPost)
	assert.Equal(t, PlatformInstagram, r.TopPost.Platform)
	assert.InDelta(t, 0.15, r.AvgEngagementRate, 1e-9)
}

func TestSummarize_NothingRecent(t *testing.T) {
	rows := []map[string]any{{"platform": "twitter", "date": "2020-01-01"}}
	r := Summarize(rows)
	assert.Equal(t, NoPostsMessage, r.Message)
	assert.Zero(t, r.Skipped)
}
