package main

import (
	"os/signal"
	"syscall"

	"github.com/mudler/LocalPlanner/webui"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API with the auto-executor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			svc, err := openServices(ctx, cmd, true)
			if err != nil {
				return err
			}
			defer svc.Close()

			if addr, _ := cmd.Flags().GetString("address"); addr != "" {
				svc.Config.Address = addr
			}
			if err := svc.StartScheduler(ctx); err != nil {
				return err
			}
			return webui.Serve(ctx, svc)
		},
	}
	cmd.Flags().StringP("address", "a", "", "listen address, overrides LOCALPLANNER_ADDRESS")
	return cmd
}
