// Package logging provides a minimal logging interface and adapters for campaignmesh.
//
// The Logger interface defines the standard logging methods (Debug, Info, Warn, Error)
// that the router, agents and external clients use for observability. This package includes:
//
//   - Logger interface for dependency injection
//   - NoOpLogger for silent operation in tests and minimal setups
//   - MeshLogger on log/slog with component and run scoped cloning
//   - ForRun, LogRoute and LogWorkflow helpers that accept any Logger
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	router := engine.NewRouter(func(o *engine.Options) { o.Logger = logger })
//
// The interface is kept small so any structured logger can be plugged in.
package logging
