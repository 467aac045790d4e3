// Package campaignmesh provides a high-level façade over the campaign
// workflow: it holds the collaborators shared by every run (research,
// cultural insights, text generation, onboarding profiles, metrics) and a
// registry of per-run workflow controllers. Most applications interact with
// this package by:
//  1. Creating a Mesh via New(), supplying the external collaborators
//  2. Starting campaigns with StartCampaign and keeping the returned run id
//  3. Sending feedback, inspecting state or running strategic analysis by id
//
// Every run gets its own router and agents, so runs never share state. All
// defaults are safe for local development; without a research service the
// researcher degrades to its sentinel findings.
package campaignmesh

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/campaignmesh/agent"
	"github.com/hupe1980/campaignmesh/core"
	"github.com/hupe1980/campaignmesh/engine"
	"github.com/hupe1980/campaignmesh/logging"
	"github.com/hupe1980/campaignmesh/metrics"
	"github.com/hupe1980/campaignmesh/onboarding"
	"github.com/hupe1980/campaignmesh/session"
	"github.com/hupe1980/campaignmesh/workflow"
)

// Options configures the Mesh.
type Options struct {
	// External collaborators handed to every run's researcher.
	Research agent.ResearchService
	Insights agent.InsightService
	Analyst  agent.Analyst

	// Profiles stores onboarding profiles. Defaults to an in-memory store.
	Profiles core.ProfileStore

	// Metrics, when set, instruments routing and workflow runs.
	Metrics *metrics.Metrics

	// MaxDeliveries bounds message deliveries per workflow operation.
	MaxDeliveries int

	// CallTimeout bounds every external call made by the researcher.
	CallTimeout time.Duration

	// MaxRuns caps the run registry. Zero keeps every run.
	MaxRuns int

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger

	// Now is the clock. Defaults to time.Now.
	Now func() time.Time
}

// Mesh is the high-level façade aggregating shared collaborators and runs.
type Mesh struct {
	opts   Options
	runs   *session.InMemoryStore
	logger logging.Logger
}

// New creates a Mesh with optional overrides.
func New(optFns ...func(o *Options)) *Mesh {
	opts := Options{
		Profiles:      onboarding.NewInMemoryStore(),
		MaxDeliveries: engine.DefaultMaxDeliveries,
		Logger:        logging.NoOpLogger{},
		Now:           time.Now,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Mesh{
		opts:   opts,
		runs:   session.NewInMemoryStore(opts.MaxRuns),
		logger: logging.OrNoOp(opts.Logger),
	}
}

// Profiles returns the onboarding profile store.
func (m *Mesh) Profiles() core.ProfileStore { return m.opts.Profiles }

func (m *Mesh) newController() (*workflow.Controller, error) {
	return workflow.New(func(o *workflow.Options) {
		o.Logger = m.logger
		o.MaxDeliveries = m.opts.MaxDeliveries
		o.Research = m.opts.Research
		o.Insights = m.opts.Insights
		o.Analyst = m.opts.Analyst
		o.Profiles = m.opts.Profiles
		o.CallTimeout = m.opts.CallTimeout
		o.Now = m.opts.Now
		if m.opts.Metrics != nil {
			o.Callbacks = m.opts.Metrics.RouterCallbacks()
			o.OnFinish = m.opts.Metrics.ObserveWorkflow
		}
	})
}

// NewRun creates and registers a fresh run.
func (m *Mesh) NewRun() (*workflow.Controller, error) {
	c, err := m.newController()
	if err != nil {
		return nil, err
	}
	m.runs.Put(c)
	return c, nil
}

// Run returns the run registered under id.
func (m *Mesh) Run(id string) (*workflow.Controller, error) {
	return m.runs.Get(id)
}

// Runs lists the registered runs, oldest first.
func (m *Mesh) Runs() []session.RunInfo { return m.runs.List() }

// StartCampaign starts a new run for goal. The run stays registered even when
// the workflow aborted, so its state can be inspected.
func (m *Mesh) StartCampaign(ctx context.Context, goal string) (core.WorkflowResult, error) {
	c, err := m.NewRun()
	if err != nil {
		return core.WorkflowResult{Status: core.StatusError}, err
	}
	return c.StartWorkflow(ctx, goal)
}

// Feedback applies signal to the run named by signal.CampaignID. Unknown
// campaigns get a fresh run, registered under a new id.
func (m *Mesh) Feedback(ctx context.Context, signal core.FeedbackSignal) (core.FeedbackConfig, error) {
	c, err := m.runs.Get(signal.CampaignID)
	if errors.Is(err, session.ErrRunNotFound) {
		m.logger.Debug("Feedback for unknown campaign, using a fresh run", "campaign_id", signal.CampaignID)
		c, err = m.NewRun()
	}
	if err != nil {
		return core.FeedbackConfig{}, err
	}
	return c.HandleFeedback(ctx, signal)
}

// WorkflowState returns the per-agent state of run id.
func (m *Mesh) WorkflowState(id string) (map[string]workflow.AgentState, error) {
	c, err := m.runs.Get(id)
	if err != nil {
		return nil, fmt.Errorf("workflow %s: %w", id, err)
	}
	return c.WorkflowState(), nil
}

// StrategicAnalysis runs a strategic analysis on an unregistered run.
func (m *Mesh) StrategicAnalysis(ctx context.Context, onboardingID string, posts []map[string]any, outputType string) (agent.StrategicAnalysis, error) {
	c, err := m.newController()
	if err != nil {
		return agent.StrategicAnalysis{}, err
	}
	return c.StrategicAnalysis(ctx, onboardingID, posts, outputType), nil
}

// ComprehensiveResearch runs profile driven research on an unregistered run.
func (m *Mesh) ComprehensiveResearch(ctx context.Context, onboardingID, outputType string) (core.ComprehensiveResearch, error) {
	c, err := m.newController()
	if err != nil {
		return core.ComprehensiveResearch{}, err
	}
	return c.ComprehensiveResearch(ctx, onboardingID, outputType), nil
}
