// Package metrics exposes Prometheus instrumentation for routing, workflow
// runs, external calls and the HTTP trigger.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/hupe1980/campaignmesh/engine"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "campaignmesh"

// Metrics holds every collector on its own registry.
type Metrics struct {
	registry *prometheus.Registry

	delivered     *prometheus.CounterVec
	dropped       *prometheus.CounterVec
	deliveryErrs  *prometheus.CounterVec
	workflows     *prometheus.CounterVec
	deliveries    prometheus.Histogram
	workflowTime  prometheus.Histogram
	externalCalls *prometheus.HistogramVec
	httpRequests  *prometheus.CounterVec
}

// New creates the collectors and registers them together with the Go and
// process collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		delivered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_delivered_total",
			Help:      "Messages delivered to an agent, by recipient and payload kind.",
		}, []string{"recipient", "kind"}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_dropped_total",
			Help:      "Messages dropped by the router, by reason.",
		}, []string{"reason"}),
		deliveryErrs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "delivery_errors_total",
			Help:      "Deliveries whose recipient returned an error.",
		}, []string{"recipient"}),
		workflows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workflows_total",
			Help:      "Finished workflow runs, by status.",
		}, []string{"status"}),
		deliveries: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "workflow_deliveries",
			Help:      "Deliveries performed by one workflow run.",
			Buckets:   prometheus.LinearBuckets(0, 5, 21),
		}),
		workflowTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "workflow_duration_seconds",
			Help:      "Wall time of one workflow run.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 16),
		}),
		externalCalls: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "external_call_duration_seconds",
			Help:      "Latency of calls to external services.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 14),
		}, []string{"service", "operation", "outcome"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests served, by route and status code.",
		}, []string{"route", "code"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.delivered,
		m.dropped,
		m.deliveryErrs,
		m.workflows,
		m.deliveries,
		m.workflowTime,
		m.externalCalls,
		m.httpRequests,
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RouterCallbacks returns router hooks counting deliveries, drops and errors.
func (m *Metrics) RouterCallbacks() []engine.Callback {
	return []engine.Callback{
		engine.NewFunctionCallback(engine.CallbackAfterDeliver, func(_ context.Context, c *engine.CallbackContext) error {
			m.delivered.WithLabelValues(c.Recipient, string(c.Message.Kind())).Inc()
			return nil
		}),
		engine.NewFunctionCallback(engine.CallbackOnDrop, func(_ context.Context, c *engine.CallbackContext) error {
			m.dropped.WithLabelValues(c.Reason).Inc()
			return nil
		}),
		engine.NewFunctionCallback(engine.CallbackOnError, func(_ context.Context, c *engine.CallbackContext) error {
			m.deliveryErrs.WithLabelValues(c.Recipient).Inc()
			return nil
		}),
	}
}

// ObserveWorkflow records one finished run. It matches the workflow OnFinish hook.
func (m *Metrics) ObserveWorkflow(_ string, deliveries int, dur time.Duration, err error) {
	m.workflows.WithLabelValues(outcome(err)).Inc()
	m.deliveries.Observe(float64(deliveries))
	m.workflowTime.Observe(dur.Seconds())
}

// ExternalCallObserver returns an OnCall hook bound to service.
func (m *Metrics) ExternalCallObserver(service string) func(operation string, dur time.Duration, err error) {
	return func(operation string, dur time.Duration, err error) {
		m.ObserveExternalCall(service, operation, dur, err)
	}
}

// ObserveExternalCall records the latency of one external call.
func (m *Metrics) ObserveExternalCall(service, operation string, dur time.Duration, err error) {
	m.externalCalls.WithLabelValues(service, operation, outcome(err)).Observe(dur.Seconds())
}

// ObserveHTTP counts one served request.
func (m *Metrics) ObserveHTTP(route string, code int) {
	m.httpRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
