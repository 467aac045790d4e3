package main

import (
	"errors"
	"fmt"
	"time"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/hupe1980/campaignmesh"
	"github.com/hupe1980/campaignmesh/agent"
	"github.com/hupe1980/campaignmesh/analysis"
	"github.com/hupe1980/campaignmesh/config"
	"github.com/hupe1980/campaignmesh/core"
	"github.com/hupe1980/campaignmesh/insight"
	"github.com/hupe1980/campaignmesh/logging"
	"github.com/hupe1980/campaignmesh/metrics"
	"github.com/hupe1980/campaignmesh/model"
	anthropicmodel "github.com/hupe1980/campaignmesh/model/anthropic"
	openaimodel "github.com/hupe1980/campaignmesh/model/openai"
	"github.com/hupe1980/campaignmesh/onboarding"
	"github.com/hupe1980/campaignmesh/rag"
	"github.com/hupe1980/campaignmesh/server"
)

// app holds everything built from a Config.
type app struct {
	cfg     *config.Config
	logger  *logging.MeshLogger
	metrics *metrics.Metrics
	mesh    *campaignmesh.Mesh
	closers []func() error
}

func newLogger(cfg config.LogConfig) (*logging.MeshLogger, error) {
	level, err := logging.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	return logging.NewSlogLogger(level, cfg.Format, cfg.AddSource), nil
}

func newApp(cfg *config.Config) (*app, error) {
	logger, err := newLogger(cfg.Log)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger}
	if cfg.Metrics.Enabled {
		a.metrics = metrics.New()
	}

	profiles, err := a.profileStore()
	if err != nil {
		return nil, err
	}

	analyst := analysis.New(newModel(cfg.Model), func(o *analysis.Options) {
		o.Timeout = cfg.Model.Timeout
		o.Logger = logger.WithComponent("analysis")
		o.OnCall = a.observer("model")
	})

	var (
		research agent.ResearchService
		insights agent.InsightService
	)
	if cfg.RAG.APIKey != "" {
		research = rag.New(func(o *rag.Options) {
			o.APIKey = cfg.RAG.APIKey
			o.BaseURL = cfg.RAG.BaseURL
			o.Collection = cfg.RAG.Collection
			o.Model = cfg.RAG.Model
			o.Timeout = cfg.RAG.Timeout
			o.Logger = logger.WithComponent("rag")
			o.OnCall = a.observer("rag")
		})
	} else {
		logger.Warn("No research API key configured, research falls back to placeholder findings")
	}

	ic, err := insight.New(func(o *insight.Options) {
		o.APIKey = cfg.Insight.APIKey
		o.BaseURL = cfg.Insight.BaseURL
		o.RequestsPerSecond = cfg.Insight.RequestsPerSecond
		o.Burst = cfg.Insight.Burst
		o.Timeout = cfg.Insight.Timeout
		o.Logger = logger.WithComponent("insight")
		o.OnCall = a.observer("insight")
	})
	switch {
	case errors.Is(err, insight.ErrMissingAPIKey):
		logger.Warn("No insight API key configured, comprehensive research is disabled")
	case err != nil:
		return nil, fmt.Errorf("insight client: %w", err)
	default:
		insights = ic
	}

	a.mesh = campaignmesh.New(func(o *campaignmesh.Options) {
		o.Research = research
		o.Insights = insights
		o.Analyst = analyst
		o.Profiles = profiles
		o.Metrics = a.metrics
		o.MaxDeliveries = cfg.Workflow.MaxDeliveries
		o.CallTimeout = cfg.Workflow.CallTimeout
		o.MaxRuns = cfg.Workflow.MaxRuns
		o.Logger = logger
	})
	return a, nil
}

func (a *app) profileStore() (core.ProfileStore, error) {
	if a.cfg.Onboarding.Driver != "sqlite" {
		return onboarding.NewInMemoryStore(), nil
	}
	store, err := onboarding.OpenSQLite(a.cfg.Onboarding.Path)
	if err != nil {
		return nil, fmt.Errorf("open onboarding store: %w", err)
	}
	a.closers = append(a.closers, store.Close)
	a.logger.Info("Onboarding store opened", "driver", "sqlite", "path", a.cfg.Onboarding.Path)
	return store, nil
}

// observer logs every external call and counts it when metrics are enabled.
func (a *app) observer(service string) func(operation string, dur time.Duration, err error) {
	return func(operation string, dur time.Duration, err error) {
		a.logger.LogExternalCall(service, operation, dur, err)
		if a.metrics != nil {
			a.metrics.ObserveExternalCall(service, operation, dur, err)
		}
	}
}

func (a *app) server() *server.Server {
	return server.New(a.mesh, func(o *server.Options) {
		o.Logger = a.logger.WithComponent("server")
		o.Metrics = a.metrics
		if a.cfg.Metrics.Path != "" {
			o.MetricsPath = a.cfg.Metrics.Path
		}
		o.CORSOrigins = a.cfg.Server.CORSOrigins
		o.ReadTimeout = a.cfg.Server.ReadTimeout
		o.WriteTimeout = a.cfg.Server.WriteTimeout
		o.ShutdownTimeout = a.cfg.Server.ShutdownTimeout
	})
}

func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}

func newModel(cfg config.ModelConfig) model.Model {
	switch cfg.Provider {
	case "anthropic":
		return anthropicmodel.NewModel(func(o *anthropicmodel.Options) {
			if cfg.Name != "" {
				o.Model = anthropicsdk.Model(cfg.Name)
			}
			o.Temperature = cfg.Temperature
			if cfg.MaxTokens > 0 {
				o.MaxTokens = cfg.MaxTokens
			}
			o.APIKey = cfg.APIKey
			o.BaseURL = cfg.BaseURL
		})
	case "mock":
		m := model.NewMockModel("mock", "mock")
		m.SetFallback(func(model.Request) (string, error) { return "{}", nil })
		return m
	default:
		return openaimodel.NewModel(func(o *openaimodel.Options) {
			if cfg.Name != "" {
				o.Model = cfg.Name
			}
			o.Temperature = cfg.Temperature
			if cfg.MaxTokens > 0 {
				o.MaxCompletionTokens = cfg.MaxTokens
			}
			o.APIKey = cfg.APIKey
			o.BaseURL = cfg.BaseURL
		})
	}
}
