package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/mudler/LocalPlanner/core/state"
	"github.com/spf13/cobra"
)

var errAgentNotFound = errors.New("agent not found")

func newToggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <agent-id>",
		Short: "Pause or resume an agent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := openServices(cmd.Context(), cmd, false)
			if err != nil {
				return err
			}
			defer svc.Close()

			if !svc.Pool.ToggleStatus(args[0]) {
				return fmt.Errorf("%w: %s", errAgentNotFound, args[0])
			}
			agent, _ := svc.Pool.Get(args[0])
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", titleStyle.Render(agent.Name), statusStyle(agent.Status).Render(string(agent.Status)))
			return nil
		},
	}
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <agent-id>",
		Aliases: []string{"rm"},
		Short:   "Delete an agent",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := openServices(cmd.Context(), cmd, false, state.WithDeleteDelay(0))
			if err != nil {
				return err
			}
			defer svc.Close()

			agent, ok := svc.Pool.Get(args[0])
			if !ok || !svc.Pool.Delete(args[0]) {
				return fmt.Errorf("%w: %s", errAgentNotFound, args[0])
			}

			// Close cancels pending removals, so wait for this one first.
			for svc.Pool.PendingDeletes() > 0 {
				time.Sleep(10 * time.Millisecond)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", titleStyle.Render(agent.Name))
			return nil
		},
	}
}
