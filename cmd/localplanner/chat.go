package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/mudler/LocalPlanner/core/planner"
	"github.com/mudler/LocalPlanner/core/types"
	"github.com/mudler/LocalPlanner/pkg/xstrings"
	"github.com/mudler/LocalPlanner/services"
	"github.com/spf13/cobra"
)

const chatWidth = 80

func newChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat <agent-id> [message]",
		Short: "Chat with an agent",
		Long: `Send a single message to an agent, or start an interactive session
when no message is given.

Interactive commands:
  /tasks      list the agent's tasks
  /done <n>   mark task n as completed
  /history    print the conversation so far
  /quit       leave the session`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := openServices(cmd.Context(), cmd, true)
			if err != nil {
				return err
			}
			defer svc.Close()

			id := args[0]
			if _, ok := svc.Pool.Get(id); !ok {
				return fmt.Errorf("%w: %s", errAgentNotFound, id)
			}

			if len(args) == 2 {
				reply, err := sendChat(cmd, svc, id, args[1])
				printReply(cmd.OutOrStdout(), reply)
				return err
			}
			return runInteractiveChat(cmd, svc, id)
		},
	}
}

// sendChat appends the message and the agent's reply. A failed reply is
// appended as the unavailable notice and returned as an error.
func sendChat(cmd *cobra.Command, svc *services.Services, id, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", errors.New("message cannot be empty")
	}
	agent, ok := svc.Pool.AppendUserMessage(id, message)
	if !ok {
		return "", fmt.Errorf("%w: %s", errAgentNotFound, id)
	}
	reply, err := svc.Responder.Respond(cmd.Context(), agent, message)
	if err != nil {
		svc.Pool.AppendAssistantMessage(id, planner.ErrAIUnavailable.Error())
		return planner.ErrAIUnavailable.Error(), err
	}
	svc.Pool.AppendAssistantMessage(id, reply)
	return reply, nil
}

func printReply(w io.Writer, reply string) {
	if reply == "" {
		return
	}
	for _, line := range xstrings.Wrap(reply, chatWidth) {
		fmt.Fprintln(w, agentStyle.Render("  "+line))
	}
	fmt.Fprintln(w)
}

func chatCompleter() *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem("/tasks"),
		readline.PcItem("/done"),
		readline.PcItem("/history"),
		readline.PcItem("/help"),
		readline.PcItem("/quit"),
	)
}

func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	dir := filepath.Join(home, ".localplanner")
	_ = os.MkdirAll(dir, 0o700)
	return filepath.Join(dir, "chat_history")
}

func runInteractiveChat(cmd *cobra.Command, svc *services.Services, id string) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:            userStyle.Render("you> "),
		HistoryFile:       historyFile(),
		HistoryLimit:      1000,
		AutoComplete:      chatCompleter(),
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	out := rl.Stdout()
	agent, _ := svc.Pool.Get(id)
	fmt.Fprintln(out)
	printAgent(out, agent)
	fmt.Fprintln(out, dimStyle.Render("  Commands: /tasks, /done <n>, /history, /quit"))
	fmt.Fprintln(out)

	for {
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		parts := strings.Fields(input)
		switch strings.ToLower(parts[0]) {
		case "/quit", "/exit", "/q":
			return nil

		case "/help":
			fmt.Fprintln(out, cmd.Long)
			continue

		case "/tasks":
			agent, ok := svc.Pool.Get(id)
			if !ok {
				return fmt.Errorf("%w: %s", errAgentNotFound, id)
			}
			printTasks(out, agent)
			fmt.Fprintf(out, "  %s %d%%\n\n", progressBar(agent.Progress, 20), agent.Progress)
			continue

		case "/done":
			if err := completeTask(svc, id, parts[1:]); err != nil {
				fmt.Fprintln(out, errorStyle.Render("  "+err.Error()))
				fmt.Fprintln(out)
				continue
			}
			agent, _ := svc.Pool.Get(id)
			printReply(out, agent.Chat[len(agent.Chat)-1].Content)
			continue

		case "/history":
			agent, _ := svc.Pool.Get(id)
			printHistory(out, agent.Chat)
			continue
		}

		reply, err := sendChat(cmd, svc, id, input)
		if err != nil && reply == "" {
			fmt.Fprintln(out, errorStyle.Render("  "+err.Error()))
			continue
		}
		printReply(out, reply)
	}
}

// completeTask marks the n-th task (1-based) as completed.
func completeTask(svc *services.Services, id string, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: /done <task number>")
	}
	n, err := strconv.Atoi(args[0])
	agent, ok := svc.Pool.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", errAgentNotFound, id)
	}
	if err != nil || n < 1 || n > len(agent.Tasks) {
		return fmt.Errorf("no task %q, pick 1 to %d", args[0], len(agent.Tasks))
	}
	task := agent.Tasks[n-1]
	if !svc.Pool.CompleteTask(id, task.ID) {
		return fmt.Errorf("task %q is already completed", task.Title)
	}
	return nil
}

func printHistory(w io.Writer, chat []types.Message) {
	for _, msg := range chat {
		style, who := agentStyle, "agent"
		if msg.Role == types.RoleUser {
			style, who = userStyle, "you"
		}
		fmt.Fprintf(w, "%s %s\n", dimStyle.Render(msg.Timestamp.Local().Format("15:04")), style.Render(who+">"))
		for _, line := range xstrings.Wrap(msg.Content, chatWidth) {
			fmt.Fprintln(w, style.Render("  "+line))
		}
	}
	fmt.Fprintln(w)
}
