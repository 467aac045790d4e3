package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/hupe1980/campaignmesh/core"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func onboardingCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "onboarding",
		Short: "Manage onboarding profiles",
		Long: `Manage the brand and audience profiles used by comprehensive research
and strategic analysis. Profiles only outlive the command with the sqlite
driver (onboarding.driver: sqlite or CAMPAIGNMESH_DB_PATH).`,
	}

	cmd.AddCommand(onboardingAddCmd(g), onboardingListCmd(g), onboardingGetCmd(g))
	return cmd
}

func onboardingAddCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "add <file>",
		Short: "Store a profile read from a YAML or JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := readProfile(args[0])
			if err != nil {
				return err
			}
			return g.withApp(func(a *app) error {
				if a.cfg.Onboarding.Driver != "sqlite" {
					a.logger.Warn("Onboarding store is in memory, the profile is discarded on exit")
				}
				saved, err := a.mesh.Profiles().Save(cmd.Context(), p)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), saved)
			})
		},
	}
}

func onboardingListCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored profiles",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return g.withApp(func(a *app) error {
				profiles, err := a.mesh.Profiles().List(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, p := range profiles {
					fmt.Fprintf(out, "%s\t%s\t%s\n", p.ID, p.CreatedAt.Format("2006-01-02 15:04:05"), p.BrandName)
				}
				return nil
			})
		},
	}
}

func onboardingGetCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "get [id]",
		Short: "Print a profile, the latest one when no id is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.withApp(func(a *app) error {
				store := a.mesh.Profiles()
				var (
					p   core.Profile
					err error
				)
				if len(args) == 1 {
					p, err = store.Get(cmd.Context(), args[0])
				} else {
					p, err = store.Latest(cmd.Context())
				}
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), p)
			})
		},
	}
}

// readProfile decodes a profile file. YAML is a superset of JSON, so both work.
func readProfile(path string) (core.Profile, error) {
	var p core.Profile
	data, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("parse %s: %w", path, err)
	}
	if strings.TrimSpace(p.BrandName) == "" {
		return p, fmt.Errorf("%s: brand_name is required", path)
	}
	return p, nil
}
