package planner

import (
	"bytes"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

func templateBase(templateName, templatetext string) (*template.Template, error) {
	return template.New(templateName).Funcs(sprig.FuncMap()).Parse(templatetext)
}

func templateExecute(t *template.Template, data any) (string, error) {
	prompt := bytes.NewBuffer([]byte{})
	if err := t.Execute(prompt, data); err != nil {
		return "", err
	}
	return prompt.String(), nil
}

var (
	planTemplate   = template.Must(templateBase("plan", planPromptTemplate))
	systemTemplate = template.Must(templateBase("system", systemInstructionTemplate))
)

const planPromptTemplate = `You are an expert AI agent planner. Your task is to create a detailed, actionable plan for an AI agent based on a user's goal.

**User Profile:**
- Name: {{ .Profile.Name }}
- Timezone: {{ .Profile.Timezone }}
- Preferences:
    - Communication Tone: {{ .Profile.Preferences.Tone }}
    - Work Hours: {{ .Profile.Preferences.WorkHours.Start }} - {{ .Profile.Preferences.WorkHours.End }}

**Agent Mission:**
- **Primary Goal:** {{ .Wizard.Goal | trim }}
{{- if .Wizard.Deadline }}
- **Deadline:** {{ .Wizard.Deadline }}
{{- end }}
{{- if .Wizard.DailyHours }}
- **Approx. Daily Commitment:** {{ .Wizard.DailyHours }} hours
{{- end }}
{{- if .Wizard.Priority }}
- **Priority Level:** {{ .Wizard.Priority }}
{{- end }}

**Instructions:**
1.  **Agent Name & Description:** Create a concise, inspiring name and a one-sentence description for the agent that reflects its goal.
2.  **Task Breakdown:** Decompose the primary goal into a series of smaller, concrete tasks. Each task must be actionable.
    -   Provide a clear 'title' and a detailed 'description'.
    -   Assign a 'priority' from 1 (lowest) to 5 (highest).
    -   Estimate the 'duration_mins' required to complete the task.
    -   Set a 'due' date ({{ .DateFormat }} format). If a specific date isn't applicable, return null.
{{- if .Wizard.Deadline }} The overall deadline is {{ .Wizard.Deadline }}. All due dates must be on or before the deadline.{{ end }}
    -   Specify the 'action_type': {{ .ActionTypes | join ", " }}.
3.  **Confidence Score:** Provide a confidence score (0.0 to 1.0) on how likely the plan is to succeed given the constraints.
4.  **Explanation:** Briefly explain the reasoning behind your proposed plan and task structure.
5.  **Suggested Integrations:** List any external services (e.g., 'Google Calendar', 'Gmail', 'Todoist') that might be useful for this agent. An empty array is acceptable.

Respond with a JSON object that strictly adheres to the provided schema. Do not include any markdown formatting or introductory text.
`

const systemInstructionTemplate = `You are the AI agent "{{ .Name }}". Your goal is: "{{ .Goal }}".
Your personality should be helpful and proactive.
Keep your responses concise and focused on the user's request.
Refer to the task plan to understand your current objectives.

Current Task Plan:
{{- range .Tasks }}
- {{ .Title }} (Status: {{ .Status }})
{{- end }}`
