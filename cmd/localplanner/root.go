package main

import (
	"context"

	"github.com/mudler/LocalPlanner/core/state"
	"github.com/mudler/LocalPlanner/pkg/config"
	"github.com/mudler/LocalPlanner/services"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "localplanner",
		Short: "Goal-driven planning agents",
		Long: `LocalPlanner turns a goal into an agent with a task plan, a progress
tracker and a chat. Agents are shared between the web server and this
command line through the configured store.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().String("store", "", "store URL, overrides LOCALPLANNER_STORE")
	root.PersistentFlags().String("profile", "", "YAML user profile, overrides LOCALPLANNER_PROFILE")

	root.AddCommand(
		newServeCmd(),
		newWizardCmd(),
		newListCmd(),
		newToggleCmd(),
		newDeleteCmd(),
		newChatCmd(),
	)
	return root
}

// resolveConfig loads the environment and applies the persistent flags.
func resolveConfig(cmd *cobra.Command) config.Config {
	cfg := config.Load()
	if s, _ := cmd.Flags().GetString("store"); s != "" {
		cfg.Store = s
	}
	if p, _ := cmd.Flags().GetString("profile"); p != "" {
		cfg.ProfilePath = p
	}
	return cfg
}

// openServices builds the services; withModel also builds the model
// backend, which requires a valid backend configuration.
func openServices(ctx context.Context, cmd *cobra.Command, withModel bool, opts ...state.Option) (*services.Services, error) {
	cfg := resolveConfig(cmd)
	if withModel {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	svc, err := services.New(ctx, cfg, opts...)
	if err != nil {
		return nil, err
	}
	if withModel {
		if err := svc.WithModel(ctx); err != nil {
			svc.Close()
			return nil, err
		}
	}
	return svc, nil
}
