// Package planner shapes prompts and schemas for the model service: it turns
// wizard input into a task plan and answers chat messages on behalf of an agent.
package planner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mudler/LocalPlanner/core/types"
	"github.com/mudler/LocalPlanner/pkg/llm"
	"github.com/mudler/LocalPlanner/pkg/xstrings"
	"github.com/mudler/xlog"
	"github.com/sashabaranov/go-openai/jsonschema"
)

// ErrPlanFailed is the single user-facing error of plan generation.
var ErrPlanFailed = errors.New("failed to generate a plan from the AI, please try refining your goal")

// Generator decomposes a goal into a plan through the model service.
type Generator struct {
	model llm.Model
}

func NewGenerator(model llm.Model) *Generator {
	return &Generator{model: model}
}

// PlanSchema is the structured-output contract of a plan.
func PlanSchema() jsonschema.Definition {
	actionTypes := make([]string, 0, len(types.ActionTypes))
	for _, a := range types.ActionTypes {
		actionTypes = append(actionTypes, string(a))
	}

	return jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"agent_name": {
				Type:        jsonschema.String,
				Description: "A creative and short name for the agent.",
			},
			"description": {
				Type:        jsonschema.String,
				Description: "A one-sentence summary of the agent's purpose.",
			},
			"tasks": {
				Type: jsonschema.Array,
				Items: &jsonschema.Definition{
					Type: jsonschema.Object,
					Properties: map[string]jsonschema.Definition{
						"title": {
							Type:        jsonschema.String,
							Description: "A short, actionable title for the task.",
						},
						"description": {
							Type:        jsonschema.String,
							Description: "A detailed description of what needs to be done.",
						},
						"priority": {
							Type:        jsonschema.Integer,
							Description: "Priority from 1 (lowest) to 5 (highest).",
						},
						"duration_mins": {
							Type:        jsonschema.Integer,
							Description: "Estimated time in minutes to complete the task.",
						},
						"due": {
							Type:        jsonschema.String,
							Description: "The due date in YYYY-MM-DD format, or null if there is no specific due date.",
						},
						"action_type": {
							Type:        jsonschema.String,
							Enum:        actionTypes,
							Description: "The type of action this task represents.",
						},
					},
					Required: []string{"title", "description", "priority", "duration_mins", "due", "action_type"},
				},
			},
			"confidence": {
				Type:        jsonschema.Number,
				Description: "A confidence score (0.0-1.0) for the plan's success.",
			},
			"explanation": {
				Type:        jsonschema.String,
				Description: "A brief explanation of the plan's strategy.",
			},
			"suggested_integrations": {
				Type:        jsonschema.Array,
				Items:       &jsonschema.Definition{Type: jsonschema.String},
				Description: "A list of suggested tool integrations like 'Google Calendar' or 'Gmail'.",
			},
		},
		Required: []string{"agent_name", "description", "tasks", "confidence", "explanation", "suggested_integrations"},
	}
}

// PlanPrompt renders the planning instruction for the given draft and profile.
func PlanPrompt(wizard types.WizardData, profile types.UserProfile) (string, error) {
	actionTypes := []string{}
	for _, a := range types.ActionTypes {
		actionTypes = append(actionTypes, fmt.Sprintf("'%s'", a))
	}

	return templateExecute(planTemplate, struct {
		Wizard      types.WizardData
		Profile     types.UserProfile
		ActionTypes []string
		DateFormat  string
	}{
		Wizard:      wizard,
		Profile:     profile,
		ActionTypes: actionTypes,
		DateFormat:  "YYYY-MM-DD",
	})
}

// GeneratePlan asks the model for a plan. Any transport, parse or
// validation failure is reported as ErrPlanFailed. Nothing is retried.
func (g *Generator) GeneratePlan(ctx context.Context, wizard types.WizardData, profile types.UserProfile) (types.Plan, error) {
	prompt, err := PlanPrompt(wizard, profile)
	if err != nil {
		return types.Plan{}, fmt.Errorf("%w: %w", ErrPlanFailed, err)
	}

	raw, err := g.model.GeneratePlan(ctx, llm.PlanRequest{Prompt: prompt, Schema: PlanSchema()})
	if err != nil {
		xlog.Error("Error generating agent plan", "error", err)
		return types.Plan{}, fmt.Errorf("%w: %w", ErrPlanFailed, err)
	}

	plan, err := ParsePlan(raw)
	if err != nil {
		xlog.Error("Model returned an invalid plan", "error", err, "raw", raw)
		return types.Plan{}, fmt.Errorf("%w: %w", ErrPlanFailed, err)
	}

	xlog.Info("Plan generated", "agent", plan.AgentName, "tasks", len(plan.Tasks), "confidence", plan.Confidence)
	return plan, nil
}

// ParsePlan decodes and validates the model's reply. Markdown code fences
// around the JSON are tolerated.
func ParsePlan(raw string) (types.Plan, error) {
	raw = stripCodeFence(raw)

	var plan types.Plan
	if err := json.Unmarshal([]byte(raw), &plan); err != nil {
		return types.Plan{}, fmt.Errorf("invalid plan JSON: %w", err)
	}
	if err := validatePlan(&plan); err != nil {
		return types.Plan{}, err
	}
	return plan, nil
}

func validatePlan(plan *types.Plan) error {
	if strings.TrimSpace(plan.AgentName) == "" {
		return errors.New("plan has no agent name")
	}
	if plan.Confidence < 0 || plan.Confidence > 1 {
		return fmt.Errorf("confidence %v out of range", plan.Confidence)
	}
	for i, t := range plan.Tasks {
		if strings.TrimSpace(t.Title) == "" {
			return fmt.Errorf("task %d has no title", i)
		}
		if t.Priority < 1 || t.Priority > 5 {
			return fmt.Errorf("task %q has priority %d outside 1-5", t.Title, t.Priority)
		}
		if t.DurationMins < 0 {
			return fmt.Errorf("task %q has a negative duration", t.Title)
		}
		if !t.ActionType.Valid() {
			return fmt.Errorf("task %q has unknown action type %q", t.Title, t.ActionType)
		}
		if t.Due != "" {
			if _, err := time.Parse(types.DateLayout, t.Due); err != nil {
				return fmt.Errorf("task %q has malformed due date %q", t.Title, t.Due)
			}
		}
	}
	if plan.Tasks == nil {
		plan.Tasks = []types.PlannedTask{}
	}
	plan.SuggestedIntegrations = xstrings.UniqueFold(plan.SuggestedIntegrations)
	return nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
