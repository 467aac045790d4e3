package insight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hupe1980/campaignmesh/core"
	"github.com/hupe1980/campaignmesh/internal/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.Handler, optFns ...func(o *Options)) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := New(append([]func(o *Options){func(o *Options) {
		o.APIKey = "qloo-key"
		o.BaseURL = srv.URL
		o.RequestsPerSecond = 0
		o.Retry = util.RetryConfig{MaxAttempts: 2, BackoffBase: time.Millisecond, BackoffMultiplier: 2, MaxBackoff: time.Millisecond}
		o.Now = func() time.Time { return time.Date(2025, 7, 24, 0, 0, 0, 0, time.UTC) }
	}}, optFns...)...)
	require.NoError(t, err)
	return c
}

func writeJSON(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(body))
}

func TestNew_MissingAPIKey(t *testing.T) {
	_, err := New()
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestSearchTags_SplitsAudiences(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/tags", r.URL.Path)
		assert.Equal(t, "qloo-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "clean beauty", r.URL.Query().Get("filter.query"))
		writeJSON(w, `{"results":{"tags":[
			{"id":"urn:tag:keyword:clean_beauty","name":"clean beauty"},
			{"id":"urn:audience:lifestyle:eco","name":"eco"},
			{"name":"no id"}
		]}}`)
	}))

	tags, audiences, err := c.SearchTags(context.Background(), "clean beauty")
	require.NoError(t, err)
	assert.Equal(t, []string{"urn:tag:keyword:clean_beauty"}, tags)
	assert.Equal(t, []string{"urn:audience:lifestyle:eco"}, audiences)
}

func TestSearchEntity(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("query") == "nobody" {
			writeJSON(w, `{"results":[]}`)
			return
		}
		writeJSON(w, `{"results":[{"entity_id":"E1","name":"Glossier"},{"entity_id":"E2","name":"Other"}]}`)
	}))

	e, ok, err := c.SearchEntity(context.Background(), "glossier")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "E1", e.ID)

	_, ok, err = c.SearchEntity(context.Background(), "nobody")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetJSON_RetriesServerErrors(t *testing.T) {
	var calls int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		writeJSON(w, `{"results":{"tags":[{"id":"t1","name":"n","type":"urn:tag"}]}}`)
	}))

	tags, err := c.TagInsights(context.Background(), []string{"t1"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []core.Tag{{ID: "t1", Name: "n", Type: "urn:tag"}}, tags)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestGetJSON_ClientErrorIsPermanent(t *testing.T) {
	var calls int32
	var observed error
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusForbidden)
	}), func(o *Options) {
		o.OnCall = func(_ string, _ time.Duration, err error) { observed = err }
	})

	_, err := c.TagInsights(context.Background(), nil, nil)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusForbidden, se.StatusCode)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
	assert.Equal(t, err, observed)
}

func TestDemographicInsights_Flattens(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "urn:demographics", r.URL.Query().Get("filter.type"))
		assert.Equal(t, "Brooklyn, Austin", r.URL.Query().Get("signal.location.query"))
		writeJSON(w, `{"results":{"demographics":[{"entity_id":"x","query":{"gender":{"female":0.3},"age":{"24_and_younger":0.2}}}]}}`)
	}))

	d, err := c.DemographicInsights(context.Background(), nil, nil, nil, []string{"Brooklyn", "Austin"})
	require.NoError(t, err)
	assert.Equal(t, []core.Demographic{
		{Name: "age.24_and_younger", Value: 0.2},
		{Name: "gender.female", Value: 0.3},
	}, d)
}

func insightMux(t *testing.T, failDemographics bool) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v2/tags", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("filter.query") {
		case "sustainability":
			writeJSON(w, `{"results":{"tags":[{"id":"urn:tag:sustainability"},{"id":"urn:audience:eco"}]}}`)
		case "wellness":
			writeJSON(w, `{"results":{"tags":[{"id":"urn:tag:sustainability"},{"id":"urn:tag:wellness"}]}}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `{"results":[{"entity_id":"E-`+r.URL.Query().Get("query")+`","name":"`+r.URL.Query().Get("query")+`"}]}`)
	})
	mux.HandleFunc("/v2/insights", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("filter.type") {
		case "urn:tag":
			assert.Equal(t, "urn:tag:sustainability,urn:tag:wellness", r.URL.Query().Get("filter.results.tags"))
			assert.Equal(t, "urn:audience:eco", r.URL.Query().Get("signal.demographics.audiences"))
			writeJSON(w, `{"results":{"tags":[{"id":"urn:tag:sustainability","name":"Sustainability","type":"urn:tag:keyword"}]}}`)
		case "urn:entity:brand":
			assert.Equal(t, "E-Patagonia", r.URL.Query().Get("filter.results.entities"))
			writeJSON(w, `{"results":{"entities":[{"entity_id":"E-Patagonia","name":"Patagonia","subtype":"urn:entity:brand","properties":{"short_description":"Outdoor apparel"}}]}}`)
		case "urn:demographics":
			if failDemographics {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			writeJSON(w, `{"results":{"demographics":[{"query":{"age":{"25_to_29":0.4}}}]}}`)
		}
	})
	mux.HandleFunc("/v2/trending", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2025-06-24", r.URL.Query().Get("filter.start_date"))
		assert.Equal(t, "2025-07-24", r.URL.Query().Get("filter.end_date"))
		writeJSON(w, `{"results":{"trending":[{"entity_id":"T1","name":"Allbirds"}]}}`)
	})
	return mux
}

func TestInsights_Aggregates(t *testing.T) {
	c := newTestClient(t, insightMux(t, false))

	out, err := c.Insights(context.Background(), core.AudienceSignals{
		core.SignalInterests:         {"sustainability", "wellness", "unknown"},
		core.SignalCulturalReference: {"Patagonia"},
		core.SignalLocations:         {"Portland"},
	})
	require.NoError(t, err)

	require.Len(t, out.Tags, 1)
	assert.Equal(t, "Sustainability", out.Tags[0].Name)
	require.Len(t, out.Entities, 1)
	assert.Equal(t, "Outdoor apparel", out.Entities[0].ShortDescription)
	require.Contains(t, out.Trending, "Patagonia")
	assert.Equal(t, "Allbirds", out.Trending["Patagonia"][0].Name)
	assert.Equal(t, []core.Demographic{{Name: "age.25_to_29", Value: 0.4}}, out.Demographics)
}

func TestInsights_DemographicsDegrade(t *testing.T) {
	c := newTestClient(t, insightMux(t, true))

	out, err := c.Insights(context.Background(), core.AudienceSignals{
		core.SignalInterests:         {"sustainability", "wellness"},
		core.SignalCulturalReference: {"Patagonia"},
	})
	require.NoError(t, err)
	assert.Empty(t, out.Demographics)
	assert.Len(t, out.Tags, 1)
}

func TestInsights_TagInsightFailurePropagates(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v2/insights" && r.URL.Query().Get("filter.type") == "urn:tag" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writeJSON(w, `{"results":{}}`)
	}))

	_, err := c.Insights(context.Background(), core.AudienceSignals{})
	assert.Error(t, err)
}

func TestInsights_CapsInterests(t *testing.T) {
	var searches int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v2/tags" {
			atomic.AddInt32(&searches, 1)
		}
		writeJSON(w, `{"results":{}}`)
	}), func(o *Options) { o.MaxInterests = 2 })

	_, err := c.Insights(context.Background(), core.AudienceSignals{
		core.SignalInterests: {"a", "b", "c", "d"},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, atomic.LoadInt32(&searches))
}
