package insight

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/campaignmesh/core"
	"golang.org/x/sync/errgroup"
)

// Insights resolves audience signals into cultural insights.
//
// Interests (capped at MaxInterests) are searched for tags and audiences and
// cultural references for entities; both searches fan out concurrently and
// failed lookups are skipped. Tag insights must succeed. Entity, trending and
// demographic insights degrade to empty results when their requests fail.
func (c *Client) Insights(ctx context.Context, signals core.AudienceSignals) (core.CulturalInsights, error) {
	interests := signals.Get(core.SignalInterests)
	if c.opts.MaxInterests > 0 && len(interests) > c.opts.MaxInterests {
		interests = interests[:c.opts.MaxInterests]
	}

	tagIDs, audienceIDs, err := c.searchTags(ctx, interests)
	if err != nil {
		return core.CulturalInsights{}, err
	}

	entityIDs, err := c.searchEntities(ctx, signals.Get(core.SignalCulturalReference))
	if err != nil {
		return core.CulturalInsights{}, err
	}

	out := core.CulturalInsights{
		Tags:         []core.Tag{},
		Entities:     []core.Entity{},
		Trending:     map[string][]core.Entity{},
		Demographics: []core.Demographic{},
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		tags, err := c.TagInsights(gctx, tagIDs, audienceIDs)
		if err != nil {
			return fmt.Errorf("tag insights: %w", err)
		}
		out.Tags = tags
		return nil
	})

	g.Go(func() error {
		entities, trending := c.entitiesWithTrending(gctx, entityIDs)
		out.Entities = entities
		out.Trending = trending
		return nil
	})

	g.Go(func() error {
		demographics, err := c.DemographicInsights(gctx, tagIDs, audienceIDs, entityIDs, signals.Get(core.SignalLocations))
		if err != nil {
			c.logger.Warn("Demographic insights unavailable", "error", err)
			return nil
		}
		out.Demographics = demographics
		return nil
	})

	if err := g.Wait(); err != nil {
		return core.CulturalInsights{}, err
	}
	return out, nil
}

// searchTags runs one tag search per interest concurrently and merges the
// ids, deduplicated in interest order. Failed searches contribute nothing.
func (c *Client) searchTags(ctx context.Context, interests []string) ([]string, []string, error) {
	type found struct{ tags, audiences []string }
	results := make([]found, len(interests))

	g, gctx := errgroup.WithContext(ctx)
	for i, interest := range interests {
		i, interest := i, interest
		g.Go(func() error {
			tags, audiences, err := c.SearchTags(gctx, interest)
			if err != nil {
				c.logger.Warn("Tag search failed", "query", interest, "error", err)
				return nil
			}
			results[i] = found{tags: tags, audiences: audiences}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	var tagIDs, audienceIDs []string
	seenTags, seenAudiences := map[string]bool{}, map[string]bool{}
	for _, r := range results {
		for _, id := range r.tags {
			if !seenTags[id] {
				seenTags[id] = true
				tagIDs = append(tagIDs, id)
			}
		}
		for _, id := range r.audiences {
			if !seenAudiences[id] {
				seenAudiences[id] = true
				audienceIDs = append(audienceIDs, id)
			}
		}
	}
	return tagIDs, audienceIDs, nil
}

// searchEntities resolves cultural references to entity ids, in reference order.
func (c *Client) searchEntities(ctx context.Context, refs []string) ([]string, error) {
	ids := make([]string, len(refs))

	g, gctx := errgroup.WithContext(ctx)
	for i, ref := range refs {
		i, ref := i, ref
		g.Go(func() error {
			e, ok, err := c.SearchEntity(gctx, ref)
			if err != nil {
				c.logger.Warn("Entity search failed", "query", ref, "error", err)
				return nil
			}
			if ok {
				ids[i] = e.ID
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != "" {
			out = append(out, id)
		}
	}
	return out, nil
}

// entitiesWithTrending fetches entity insights and the trending list of every
// returned entity. Failures degrade to empty results.
func (c *Client) entitiesWithTrending(ctx context.Context, entityIDs []string) ([]core.Entity, map[string][]core.Entity) {
	trending := map[string][]core.Entity{}

	entities, err := c.EntityInsights(ctx, entityIDs)
	if err != nil {
		c.logger.Warn("Entity insights unavailable", "error", err)
		return []core.Entity{}, trending
	}

	end := c.opts.Now()
	start := end.Add(-c.opts.TrendingWindow)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, e := range entities {
		e := e
		if e.ID == "" {
			continue
		}
		g.Go(func() error {
			items, err := c.Trending(gctx, []string{e.ID}, start, end)
			if err != nil {
				c.logger.Warn("Trending data unavailable", "entity", e.Name, "error", err)
				return nil
			}
			mu.Lock()
			trending[e.Name] = items
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return entities, trending
}
