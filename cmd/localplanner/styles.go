package main

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/mudler/LocalPlanner/core/types"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))

	agentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("14"))

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("12"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8")).
			Padding(0, 1)
)

func statusStyle(status types.AgentStatus) lipgloss.Style {
	if status == types.AgentStatusActive {
		return successStyle
	}
	return warnStyle
}

func priorityStyle(p types.Priority) lipgloss.Style {
	switch p {
	case types.PriorityHigh:
		return errorStyle
	case types.PriorityLow:
		return dimStyle
	}
	return warnStyle
}
