package types

// PlannedTask is a task as proposed by the model, before it gets an
// identity, a status and timestamps.
type PlannedTask struct {
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Priority     int        `json:"priority"`
	DurationMins int        `json:"duration_mins"`
	Due          string     `json:"due"`
	ActionType   ActionType `json:"action_type"`
}

type Plan struct {
	AgentName             string        `json:"agent_name"`
	Description           string        `json:"description"`
	Tasks                 []PlannedTask `json:"tasks"`
	Confidence            float64       `json:"confidence"`
	Explanation           string        `json:"explanation"`
	SuggestedIntegrations []string      `json:"suggested_integrations"`
}

// WizardData is the draft collected while creating an agent.
type WizardData struct {
	Goal        string   `json:"goal"`
	Deadline    string   `json:"deadline,omitempty"`
	DailyHours  string   `json:"dailyHours,omitempty"`
	Priority    Priority `json:"priority,omitempty"`
	AutoExecute bool     `json:"autoExecute,omitempty"`
}
