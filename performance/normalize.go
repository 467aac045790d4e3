// Package performance normalizes raw social and web analytics exports into a
// common KPI record and summarizes them for strategic analysis.
package performance

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// Supported platforms. Meta exports share the Instagram layout.
const (
	PlatformTwitter   = "twitter"
	PlatformInstagram = "instagram"
	PlatformMeta      = "meta"
	PlatformGA4       = "ga4"
)

// ErrUnsupportedPlatform is returned for rows whose platform is not known.
var ErrUnsupportedPlatform = errors.New("unsupported platform")

// Post is a normalized KPI record. Pointer fields are nil when the platform
// does not report the metric.
type Post struct {
	Platform       string   `json:"platform"`
	Date           string   `json:"date"`
	PostID         string   `json:"post_id,omitempty"`
	Text           string   `json:"text"`
	CampaignName   string   `json:"campaign_name"`
	Impressions    int64    `json:"impressions"`
	Reach          int64    `json:"reach"`
	Engagements    int64    `json:"engagements"`
	EngagementRate *float64 `json:"engagement_rate"`
	Likes          *int64   `json:"likes"`
	Comments       *int64   `json:"comments"`
	Shares         *int64   `json:"shares"`
	Saves          *int64   `json:"saves"`
	Conversions    *int64   `json:"conversions"`
	ConversionRate *float64 `json:"conversion_rate"`
}

type twitterRow struct {
	Date        string `mapstructure:"date"`
	PostID      string `mapstructure:"post_id"`
	Text        string `mapstructure:"text"`
	Impressions int64  `mapstructure:"impressions"`
	Engagements int64  `mapstructure:"engagements"`
	Likes       int64  `mapstructure:"likes"`
	Replies     int64  `mapstructure:"replies"`
	Retweets    int64  `mapstructure:"retweets"`
}

type instagramRow struct {
	CreatedAt   string `mapstructure:"created_at"`
	PostID      string `mapstructure:"post_id"`
	Caption     string `mapstructure:"caption"`
	Impressions int64  `mapstructure:"impressions"`
	Reach       int64  `mapstructure:"reach"`
	Engagements int64  `mapstructure:"engagements"`
	Likes       int64  `mapstructure:"likes"`
	Comments    int64  `mapstructure:"comments"`
	Shares      int64  `mapstructure:"shares"`
	Saves       int64  `mapstructure:"saves"`
}

type ga4Row struct {
	Date            string   `mapstructure:"date"`
	UTMCampaign     string   `mapstructure:"utm_campaign"`
	Sessions        int64    `mapstructure:"sessions"`
	Users           int64    `mapstructure:"users"`
	EngagedSessions int64    `mapstructure:"engaged_sessions"`
	EngagementRate  *float64 `mapstructure:"engagement_rate"`
	Conversions     int64    `mapstructure:"conversions"`
}

// Normalize converts one raw export row into a Post. The platform is read
// from the row's "platform" field.
func Normalize(row map[string]any) (Post, error) {
	platform, _ := row["platform"].(string)
	platform = strings.ToLower(strings.TrimSpace(platform))

	switch platform {
	case PlatformTwitter:
		var r twitterRow
		if err := decode(row, &r); err != nil {
			return Post{}, err
		}
		return Post{
			Platform:       PlatformTwitter,
			Date:           r.Date,
			PostID:         r.PostID,
			Text:           r.Text,
			CampaignName:   InferCampaignName(r.Text),
			Impressions:    r.Impressions,
			Reach:          r.Impressions,
			Engagements:    r.Engagements,
			EngagementRate: ratioPtr(r.Engagements, r.Impressions),
			Likes:          &r.Likes,
			Comments:       &r.Replies,
			Shares:         &r.Retweets,
		}, nil
	case PlatformInstagram, PlatformMeta:
		var r instagramRow
		if err := decode(row, &r); err != nil {
			return Post{}, err
		}
		date, _, _ := strings.Cut(r.CreatedAt, "T")
		return Post{
			Platform:       PlatformInstagram,
			Date:           date,
			PostID:         r.PostID,
			Text:           r.Caption,
			CampaignName:   InferCampaignName(r.Caption),
			Impressions:    r.Impressions,
			Reach:          r.Reach,
			Engagements:    r.Engagements,
			EngagementRate: ratioPtr(r.Engagements, r.Reach),
			Likes:          &r.Likes,
			Comments:       &r.Comments,
			Shares:         &r.Shares,
			Saves:          &r.Saves,
		}, nil
	case PlatformGA4:
		r := ga4Row{UTMCampaign: "unknown"}
		if err := decode(row, &r); err != nil {
			return Post{}, err
		}
		rate := ratio(r.Conversions, r.Sessions)
		var engagement *float64
		if r.EngagementRate != nil {
			v := round4(*r.EngagementRate)
			engagement = &v
		}
		return Post{
			Platform:       PlatformGA4,
			Date:           r.Date,
			CampaignName:   r.UTMCampaign,
			Impressions:    r.Sessions,
			Reach:          r.Users,
			Engagements:    r.EngagedSessions,
			EngagementRate: engagement,
			Conversions:    &r.Conversions,
			ConversionRate: &rate,
		}, nil
	default:
		return Post{}, fmt.Errorf("%w: %q", ErrUnsupportedPlatform, platform)
	}
}

// InferCampaignName guesses the campaign family from post text.
func InferCampaignName(text string) string {
	t := strings.ToLower(text)
	switch {
	case strings.Contains(t, "launch"):
		return "product_launch"
	case strings.Contains(t, "tips"):
		return "educational"
	case strings.Contains(t, "sale"):
		return "promotion"
	default:
		return "general"
	}
}

// decode maps a loosely typed export row (CSV strings, JSON numbers) onto out.
func decode(row map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(row); err != nil {
		return fmt.Errorf("decode kpi row: %w", err)
	}
	return nil
}

func ratio(num, den int64) float64 {
	if den == 0 {
		return 0
	}
	return round4(float64(num) / float64(den))
}

func ratioPtr(num, den int64) *float64 {
	v := ratio(num, den)
	return &v
}

func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}
