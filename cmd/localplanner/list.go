package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/mudler/LocalPlanner/core/types"
	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List agents with their progress",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := openServices(cmd.Context(), cmd, false)
			if err != nil {
				return err
			}
			defer svc.Close()

			agents := svc.Pool.List()
			if len(agents) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), dimStyle.Render("No agents yet. Run `localplanner wizard` to create one."))
				return nil
			}

			verbose, _ := cmd.Flags().GetBool("tasks")
			for _, agent := range agents {
				printAgent(cmd.OutOrStdout(), agent)
				if verbose {
					printTasks(cmd.OutOrStdout(), agent)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolP("tasks", "t", false, "also list each agent's tasks")
	return cmd
}

func printAgent(w io.Writer, agent types.Agent) {
	status := statusStyle(agent.Status).Render(string(agent.Status))
	if agent.IsDeleting {
		status = errorStyle.Render("deleting")
	}
	fmt.Fprintf(w, "%s %s  %s  %s\n",
		titleStyle.Render(agent.Name),
		dimStyle.Render("("+agent.ID+")"),
		status,
		priorityStyle(agent.Priority).Render(string(agent.Priority)),
	)
	fmt.Fprintf(w, "  %s %3d%%  %s\n", progressBar(agent.Progress, 20), agent.Progress, dimStyle.Render(agent.Goal))
}

func printTasks(w io.Writer, agent types.Agent) {
	for i, task := range agent.Tasks {
		mark := "[ ]"
		title := task.Title
		if task.Status == types.TaskStatusCompleted {
			mark = successStyle.Render("[x]")
			title = dimStyle.Render(title)
		}
		line := fmt.Sprintf("  %2d. %s %s", i+1, mark, title)
		if task.Due != "" {
			line += dimStyle.Render(" due " + task.Due)
		}
		line += dimStyle.Render(fmt.Sprintf(" · %s · %dm", task.ActionType, task.DurationMins))
		fmt.Fprintln(w, line)
		if r := task.ActionResult; r != nil {
			style := successStyle
			if !r.Success {
				style = errorStyle
			}
			fmt.Fprintf(w, "        %s\n", style.Render(r.Message))
		}
	}
}

func progressBar(percent, width int) string {
	filled := percent * width / 100
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return successStyle.Render(strings.Repeat("█", filled)) + dimStyle.Render(strings.Repeat("░", width-filled))
}
