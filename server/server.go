// Package server exposes the campaign workflow over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/hupe1980/campaignmesh/agent"
	"github.com/hupe1980/campaignmesh/core"
	"github.com/hupe1980/campaignmesh/logging"
	"github.com/hupe1980/campaignmesh/metrics"
	"github.com/hupe1980/campaignmesh/session"
	"github.com/hupe1980/campaignmesh/workflow"
)

// NoStrategyPlaceholder replaces a missing strategy in campaign responses.
const NoStrategyPlaceholder = "No strategy returned."

// Backend is the workflow surface the server drives. *campaignmesh.Mesh
// implements it.
type Backend interface {
	StartCampaign(ctx context.Context, goal string) (core.WorkflowResult, error)
	Feedback(ctx context.Context, signal core.FeedbackSignal) (core.FeedbackConfig, error)
	WorkflowState(id string) (map[string]workflow.AgentState, error)
	Runs() []session.RunInfo
	StrategicAnalysis(ctx context.Context, onboardingID string, posts []map[string]any, outputType string) (agent.StrategicAnalysis, error)
	Profiles() core.ProfileStore
}

// Options configures the server.
type Options struct {
	// Logger receives request logs. Defaults to NoOp.
	Logger logging.Logger

	// Metrics, when set, counts requests and serves MetricsPath.
	Metrics     *metrics.Metrics
	MetricsPath string

	// CORSOrigins lists allowed origins. "*" allows any. Empty disables CORS headers.
	CORSOrigins []string

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// Server routes HTTP requests to a Backend.
type Server struct {
	backend  Backend
	opts     Options
	logger   logging.Logger
	validate *validator.Validate
	handler  http.Handler
}

// New creates the server and its routes.
func New(b Backend, optFns ...func(o *Options)) *Server {
	opts := Options{
		Logger:          logging.NoOpLogger{},
		MetricsPath:     "/metrics",
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    5 * time.Minute,
		ShutdownTimeout: 10 * time.Second,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	s := &Server{
		backend:  b,
		opts:     opts,
		logger:   logging.OrNoOp(opts.Logger),
		validate: v,
	}

	mux := http.NewServeMux()
	s.route(mux, "POST /campaign-request", s.handleCampaignRequest)
	s.route(mux, "POST /feedback", s.handleFeedback)
	s.route(mux, "GET /workflows", s.handleListWorkflows)
	s.route(mux, "GET /workflows/{id}", s.handleWorkflowState)
	s.route(mux, "POST /strategic-analysis", s.handleStrategicAnalysis)
	s.route(mux, "POST /onboarding", s.handleCreateProfile)
	s.route(mux, "GET /onboarding", s.handleListProfiles)
	s.route(mux, "GET /onboarding/{id}", s.handleGetProfile)
	s.route(mux, "GET /healthz", s.handleHealthz)
	if opts.Metrics != nil {
		mux.Handle("GET "+opts.MetricsPath, opts.Metrics.Handler())
	}

	s.handler = chainMiddlewares(mux, withRecover(s.logger), withCORS(opts.CORSOrigins), withLogging(s.logger))
	return s
}

// route registers h under pattern, counting requests when metrics are enabled.
func (s *Server) route(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	_, path, _ := strings.Cut(pattern, " ")
	mux.Handle(pattern, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h(rec, r)
		if s.opts.Metrics != nil {
			s.opts.Metrics.ObserveHTTP(path, rec.status)
		}
	}))
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.handler }

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.handler.ServeHTTP(w, r) }

// ListenAndServe serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.handler,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()
	s.logger.Info("Shutting down HTTP server")
	return srv.Shutdown(shutdownCtx)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// decode reads a JSON body into v. An empty body leaves v untouched.
func decode(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
