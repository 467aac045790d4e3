package insight

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/hupe1980/campaignmesh/core"
)

const dateLayout = "2006-01-02"

type tagRecord struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

type entityRecord struct {
	EntityID   string `json:"entity_id"`
	Name       string `json:"name"`
	Subtype    string `json:"subtype"`
	Properties struct {
		ShortDescription string `json:"short_description"`
	} `json:"properties"`
}

func (e entityRecord) toEntity() core.Entity {
	return core.Entity{
		ID:               e.EntityID,
		Name:             e.Name,
		Subtype:          e.Subtype,
		ShortDescription: e.Properties.ShortDescription,
	}
}

type demographicRecord struct {
	EntityID string                        `json:"entity_id"`
	Query    map[string]map[string]float64 `json:"query"`
}

type resultsEnvelope struct {
	Results struct {
		Tags         []tagRecord         `json:"tags"`
		Entities     []entityRecord      `json:"entities"`
		Trending     []entityRecord      `json:"trending"`
		Demographics []demographicRecord `json:"demographics"`
	} `json:"results"`
}

// SearchTags looks up tags matching query and splits the ids into plain tag
// ids and audience ids (ids containing "audience").
func (c *Client) SearchTags(ctx context.Context, query string) (tagIDs, audienceIDs []string, err error) {
	var env resultsEnvelope
	if err := c.getJSON(ctx, "search_tags", "/v2/tags", url.Values{"filter.query": {query}}, &env); err != nil {
		return nil, nil, err
	}
	for _, t := range env.Results.Tags {
		if t.ID == "" {
			continue
		}
		if strings.Contains(t.ID, "audience") {
			audienceIDs = append(audienceIDs, t.ID)
		} else {
			tagIDs = append(tagIDs, t.ID)
		}
	}
	return tagIDs, audienceIDs, nil
}

// SearchEntity returns the best match for query. ok is false when nothing matched.
func (c *Client) SearchEntity(ctx context.Context, query string) (entity core.Entity, ok bool, err error) {
	var res struct {
		Results []entityRecord `json:"results"`
	}
	if err := c.getJSON(ctx, "search_entity", "/search", url.Values{"query": {query}}, &res); err != nil {
		return core.Entity{}, false, err
	}
	if len(res.Results) == 0 {
		return core.Entity{}, false, nil
	}
	return res.Results[0].toEntity(), true, nil
}

// TagInsights returns tag affinities for the given tags and audiences.
func (c *Client) TagInsights(ctx context.Context, tagIDs, audienceIDs []string) ([]core.Tag, error) {
	params := url.Values{
		"filter.results.tags":           {strings.Join(tagIDs, ",")},
		"signal.demographics.audiences": {strings.Join(audienceIDs, ",")},
		"filter.type":                   {"urn:tag"},
	}
	var env resultsEnvelope
	if err := c.getJSON(ctx, "tag_insights", "/v2/insights", params, &env); err != nil {
		return nil, err
	}
	tags := make([]core.Tag, 0, len(env.Results.Tags))
	for _, t := range env.Results.Tags {
		tags = append(tags, core.Tag(t))
	}
	return tags, nil
}

// EntityInsights returns brand insights for the given entities.
func (c *Client) EntityInsights(ctx context.Context, entityIDs []string) ([]core.Entity, error) {
	params := url.Values{
		"filter.results.entities": {strings.Join(entityIDs, ",")},
		"filter.type":             {"urn:entity:brand"},
	}
	var env resultsEnvelope
	if err := c.getJSON(ctx, "entity_insights", "/v2/insights", params, &env); err != nil {
		return nil, err
	}
	out := make([]core.Entity, 0, len(env.Results.Entities))
	for _, e := range env.Results.Entities {
		out = append(out, e.toEntity())
	}
	return out, nil
}

// Trending returns brands trending for the given entities between start and end.
func (c *Client) Trending(ctx context.Context, entityIDs []string, start, end time.Time) ([]core.Entity, error) {
	params := url.Values{
		"signal.interests.entities": {strings.Join(entityIDs, ",")},
		"filter.type":               {"urn:entity:brand"},
		"filter.start_date":         {start.Format(dateLayout)},
		"filter.end_date":           {end.Format(dateLayout)},
	}
	var env resultsEnvelope
	if err := c.getJSON(ctx, "trending", "/v2/trending", params, &env); err != nil {
		return nil, err
	}
	out := make([]core.Entity, 0, len(env.Results.Trending))
	for _, e := range env.Results.Trending {
		out = append(out, e.toEntity())
	}
	return out, nil
}

// DemographicInsights returns demographic affinities flattened to
// "group.bucket" names (e.g. "age.24_and_younger").
func (c *Client) DemographicInsights(ctx context.Context, tagIDs, audienceIDs, entityIDs, locations []string) ([]core.Demographic, error) {
	params := url.Values{
		"signal.interest.tags":          {strings.Join(tagIDs, ",")},
		"signal.demographics.audiences": {strings.Join(audienceIDs, ",")},
		"signal.interests.entities":     {strings.Join(entityIDs, ",")},
		"filter.type":                   {"urn:demographics"},
		"signal.location.query":         {strings.Join(locations, ", ")},
	}
	var env resultsEnvelope
	if err := c.getJSON(ctx, "demographic_insights", "/v2/insights", params, &env); err != nil {
		return nil, err
	}

	var out []core.Demographic
	for _, rec := range env.Results.Demographics {
		groups := make([]string, 0, len(rec.Query))
		for g := range rec.Query {
			groups = append(groups, g)
		}
		sort.Strings(groups)
		for _, g := range groups {
			buckets := make([]string, 0, len(rec.Query[g]))
			for b := range rec.Query[g] {
				buckets = append(buckets, b)
			}
			sort.Strings(buckets)
			for _, b := range buckets {
				out = append(out, core.Demographic{Name: fmt.Sprintf("%s.%s", g, b), Value: rec.Query[g][b]})
			}
		}
	}
	return out, nil
}
