package metrics

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hupe1980/campaignmesh/core"
	"github.com/hupe1980/campaignmesh/engine"
	"github.com/hupe1980/campaignmesh/graph"
	"github.com/hupe1980/campaignmesh/internal/testutil"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouterCallbacks(t *testing.T) {
	m := New()
	r := engine.NewRouter()
	for _, cb := range m.RouterCallbacks() {
		r.Callbacks().RegisterCallback(cb)
	}

	planner := testutil.NewRecordingAgent(graph.Planner)
	g, err := graph.New([]core.Agent{planner}, nil)
	require.NoError(t, err)
	r.SetGraph(g)

	ctx := context.Background()
	require.NoError(t, r.Route(ctx, core.UserSender, graph.Planner, testutil.GoalMessage("x")))
	require.NoError(t, r.Route(ctx, core.UserSender, "default_agent", testutil.GoalMessage("x")))

	planner.OnReceive = func(context.Context, string, core.Message) error { return errors.New("boom") }
	require.Error(t, r.Route(ctx, core.UserSender, graph.Planner, testutil.GoalMessage("x")))

	assert.Equal(t, 1.0, promtest.ToFloat64(m.delivered.WithLabelValues(graph.Planner, "task")))
	assert.Equal(t, 1.0, promtest.ToFloat64(m.dropped.WithLabelValues(engine.DropUnknownRecipient)))
	assert.Equal(t, 1.0, promtest.ToFloat64(m.deliveryErrs.WithLabelValues(graph.Planner)))
}

func TestObserveWorkflowAndCalls(t *testing.T) {
	m := New()

	m.ObserveWorkflow("run", 5, 20*time.Millisecond, nil)
	m.ObserveWorkflow("run", 101, time.Second, core.ErrDeliveryLimitExceeded)
	m.ExternalCallObserver("rag")("research", 300*time.Millisecond, nil)
	m.ObserveHTTP("/campaign-request", http.StatusOK)

	assert.Equal(t, 1.0, promtest.ToFloat64(m.workflows.WithLabelValues("success")))
	assert.Equal(t, 1.0, promtest.ToFloat64(m.workflows.WithLabelValues("error")))
	assert.Equal(t, 1, promtest.CollectAndCount(m.externalCalls))
	assert.Equal(t, 1.0, promtest.ToFloat64(m.httpRequests.WithLabelValues("/campaign-request", "200")))
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveHTTP("/healthz", http.StatusOK)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `campaignmesh_http_requests_total{code="200",route="/healthz"} 1`)
}
