// Package main provides the campaignmesh binary entry point.
// Campaignmesh runs a five agent marketing workflow (planner, researcher,
// strategist, writer, feedback) behind an HTTP API or from the command line.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/hupe1980/campaignmesh/config"
	"github.com/spf13/cobra"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "campaignmesh"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	logLevel   string
}

// load reads the configuration and applies the --log-level override.
func (g *globalFlags) load() (*config.Config, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if g.logLevel != "" {
		cfg.Log.Level = g.logLevel
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid configuration: %w", err)
		}
	}
	return cfg, nil
}

// withApp loads the configuration, builds the app and closes it after fn.
func (g *globalFlags) withApp(fn func(a *app) error) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()
	return fn(a)
}

func rootCmd() *cobra.Command {
	g := &globalFlags{}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Marketing campaign agent workflow",
		Long: `Campaignmesh routes a campaign goal through five cooperating agents:

- planner breaks the goal into research, strategy and content subtasks
- researcher queries the research endpoint and cultural insights
- strategist turns findings into a channel strategy
- writer drafts content for the strategy
- feedback tunes every agent from positive or negative signals

Run "campaignmesh serve" to expose the workflow over HTTP.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&g.configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		serveCmd(g),
		runCmd(g),
		analyzeCmd(g),
		researchCmd(g),
		onboardingCmd(g),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s version %s (build: %s)\n", appName, Version, BuildTime)
			},
		},
	)

	return cmd
}

func serveCmd(g *globalFlags) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the workflow HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return g.withApp(func(a *app) error {
				if addr != "" {
					a.cfg.Server.Addr = addr
				}

				ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
				defer stop()

				a.logger.Info("Campaignmesh ready", "version", Version, "addr", a.cfg.Server.Addr, "model_provider", a.cfg.Model.Provider)
				return a.server().ListenAndServe(ctx, a.cfg.Server.Addr)
			})
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides server.addr)")
	return cmd
}

func runCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "run <goal>",
		Short: "Run one campaign workflow and print the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.withApp(func(a *app) error {
				res, err := a.mesh.StartCampaign(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res)
			})
		},
	}
}

func analyzeCmd(g *globalFlags) *cobra.Command {
	var (
		postsPath    string
		outputType   string
		onboardingID string
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run a strategic analysis over exported post metrics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var posts []map[string]any
			if postsPath != "" {
				if err := readJSON(postsPath, &posts); err != nil {
					return err
				}
			}
			return g.withApp(func(a *app) error {
				res, err := a.mesh.StrategicAnalysis(cmd.Context(), onboardingID, posts, outputType)
				if err != nil {
					return err
				}
				if err := printJSON(cmd.OutOrStdout(), res); err != nil {
					return err
				}
				if !res.Success {
					return fmt.Errorf("strategic analysis failed: %s", res.Error)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&postsPath, "posts", "p", "", "JSON file with an array of post metric rows")
	cmd.Flags().StringVarP(&outputType, "type", "t", "insights", "Output type (insights or plan)")
	cmd.Flags().StringVar(&onboardingID, "onboarding-id", "", "Onboarding profile id (defaults to the latest)")
	return cmd
}

func researchCmd(g *globalFlags) *cobra.Command {
	var (
		outputType   string
		onboardingID string
	)

	cmd := &cobra.Command{
		Use:   "research",
		Short: "Run profile driven comprehensive research",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return g.withApp(func(a *app) error {
				res, err := a.mesh.ComprehensiveResearch(cmd.Context(), onboardingID, outputType)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res)
			})
		},
	}

	cmd.Flags().StringVarP(&outputType, "type", "t", "insights", "Output type (insights or plan)")
	cmd.Flags().StringVar(&onboardingID, "onboarding-id", "", "Onboarding profile id (defaults to the latest)")
	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
