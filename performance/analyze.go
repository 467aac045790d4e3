package performance

import (
	"time"
)

// DefaultWindowWeeks is the look-back window of Summarize.
const DefaultWindowWeeks = 6

// NoPostsMessage is reported when nothing falls into the analyzed window.
const NoPostsMessage = "No posts found in the selected date range"

const dateLayout = "2006-01-02"

// PlatformSummary aggregates the posts of one platform.
type PlatformSummary struct {
	TotalPosts    int     `json:"total_posts"`
	AvgEngagement float64 `json:"avg_engagement"`
}

// Report is the performance summary handed to strategic analysis.
type Report struct {
	TotalPosts        int                        `json:"total_posts"`
	AvgEngagementRate float64                    `json:"avg_engagement_rate"`
	AvgConversionRate float64                    `json:"avg_conversion_rate"`
	TopPost           *Post                      `json:"top_post"`
	PlatformSummary   map[string]PlatformSummary `json:"platform_summary"`
	Message           string                     `json:"message,omitempty"`

	// Skipped counts input rows dropped for an unsupported platform, a
	// decoding failure or an unparsable date.
	Skipped int `json:"skipped_posts,omitempty"`
}

// Analyze computes averages (rounded to 4 places), the top post by
// engagements and a per-platform breakdown. Rate averages only count posts
// reporting that rate.
func Analyze(posts []Post) Report {
	if len(posts) == 0 {
		return Report{
			PlatformSummary: map[string]PlatformSummary{},
			Message:         NoPostsMessage,
		}
	}

	var engagementSum, conversionSum float64
	var engagementCount, conversionCount int
	top := 0

	type acc struct {
		count int
		rated int
		sum   float64
	}
	byPlatform := map[string]*acc{}

	for i, p := range posts {
		if p.EngagementRate != nil {
			engagementSum += *p.EngagementRate
			engagementCount++
		}
		if p.ConversionRate != nil {
			conversionSum += *p.ConversionRate
			conversionCount++
		}
		if p.Engagements > posts[top].Engagements {
			top = i
		}

		a, ok := byPlatform[p.Platform]
		if !ok {
			a = &acc{}
			byPlatform[p.Platform] = a
		}
		a.count++
		if p.EngagementRate != nil {
			a.rated++
			a.sum += *p.EngagementRate
		}
	}

	summary := make(map[string]PlatformSummary, len(byPlatform))
	for name, a := range byPlatform {
		s := PlatformSummary{TotalPosts: a.count}
		if a.rated > 0 {
			s.AvgEngagement = round4(a.sum / float64(a.rated))
		}
		summary[name] = s
	}

	topPost := posts[top]
	r := Report{
		TotalPosts:      len(posts),
		TopPost:         &topPost,
		PlatformSummary: summary,
	}
	if engagementCount > 0 {
		r.AvgEngagementRate = round4(engagementSum / float64(engagementCount))
	}
	if conversionCount > 0 {
		r.AvgConversionRate = round4(conversionSum / float64(conversionCount))
	}
	return r
}

// SummaryOptions configures Summarize.
type SummaryOptions struct {
	// Weeks is the look-back window. Defaults to DefaultWindowWeeks.
	Weeks int

	// Now is the reference time. Defaults to time.Now.
	Now func() time.Time
}

// Summarize normalizes raw export rows, keeps those dated within the window
// and analyzes them. Rows that cannot be normalized or dated are skipped and
// counted in Report.Skipped.
func Summarize(rows []map[string]any, optFns ...func(o *SummaryOptions)) Report {
	opts := SummaryOptions{
		Weeks: DefaultWindowWeeks,
		Now:   time.Now,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Weeks <= 0 {
		opts.Weeks = DefaultWindowWeeks
	}

	cutoff := opts.Now().AddDate(0, 0, -7*opts.Weeks)

	var recent []Post
	skipped := 0
	for _, row := range rows {
		p, err := Normalize(row)
		if err != nil {
			skipped++
			continue
		}
		d, err := time.ParseInLocation(dateLayout, p.Date, cutoff.Location())
		if err != nil {
			skipped++
			continue
		}
		if !d.Before(cutoff) {
			recent = append(recent, p)
		}
	}

	r := Analyze(recent)
	r.Skipped = skipped
	return r
}
