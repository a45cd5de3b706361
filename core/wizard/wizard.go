// Package wizard collects and validates the draft of a new agent over
// three steps: goal, details and review.
package wizard

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mudler/LocalPlanner/core/types"
	"github.com/mudler/LocalPlanner/pkg/config"
)

type Step int

const (
	StepGoal Step = iota + 1
	StepDetails
	StepReview
)

func (s Step) String() string {
	switch s {
	case StepGoal:
		return "Define Goal"
	case StepDetails:
		return "Add Details"
	case StepReview:
		return "Review"
	}
	return fmt.Sprintf("Step(%d)", int(s))
}

// Field names shared by the form metadata and ValidationError.
const (
	FieldGoal        = "goal"
	FieldDeadline    = "deadline"
	FieldDailyHours  = "dailyHours"
	FieldPriority    = "priority"
	FieldAutoExecute = "autoExecute"
)

// ErrPastDeadline is the message shown for a deadline before today.
const ErrPastDeadline = "Invalid date. Please select today or a future date."

// ValidationError reports the first invalid field of a draft.
type ValidationError struct {
	Step    Step
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Wizard is the state of one agent creation flow.
type Wizard struct {
	Step Step
	Data types.WizardData
}

func New() *Wizard {
	return &Wizard{Step: StepGoal}
}

// Next validates the fields of the current step and moves forward. The
// review step is the last one.
func (w *Wizard) Next(now time.Time) error {
	var err error
	switch w.Step {
	case StepGoal:
		err = validateGoal(w.Data)
	case StepDetails:
		err = validateDetails(w.Data, now)
	case StepReview:
		return nil
	}
	if err != nil {
		return err
	}
	w.Step++
	return nil
}

func (w *Wizard) Back() {
	if w.Step > StepGoal {
		w.Step--
	}
}

// Validate checks the whole draft. now decides what "today" is, in the
// location of now.
func Validate(data types.WizardData, now time.Time) error {
	if err := validateGoal(data); err != nil {
		return err
	}
	return validateDetails(data, now)
}

func validateGoal(data types.WizardData) error {
	if strings.TrimSpace(data.Goal) == "" {
		return &ValidationError{Step: StepGoal, Field: FieldGoal, Message: "Please describe the goal for your agent."}
	}
	return nil
}

func validateDetails(data types.WizardData, now time.Time) error {
	if data.Deadline != "" {
		if _, err := time.Parse(types.DateLayout, data.Deadline); err != nil {
			return &ValidationError{Step: StepDetails, Field: FieldDeadline, Message: fmt.Sprintf("Invalid date %q, expected YYYY-MM-DD.", data.Deadline)}
		}
		// Both sides are YYYY-MM-DD so the lexical order is the calendar order.
		if data.Deadline < now.Format(types.DateLayout) {
			return &ValidationError{Step: StepDetails, Field: FieldDeadline, Message: ErrPastDeadline}
		}
	}

	if data.DailyHours != "" {
		hours, err := strconv.ParseFloat(strings.TrimSpace(data.DailyHours), 64)
		if err != nil {
			return &ValidationError{Step: StepDetails, Field: FieldDailyHours, Message: "Daily hours must be a number."}
		}
		if hours <= 0 {
			return &ValidationError{Step: StepDetails, Field: FieldDailyHours, Message: "Daily hours must be greater than zero."}
		}
	}

	if data.Priority != "" && !data.Priority.Valid() {
		return &ValidationError{Step: StepDetails, Field: FieldPriority, Message: fmt.Sprintf("Unknown priority %q.", data.Priority)}
	}
	return nil
}

// Summary renders the review step.
func Summary(data types.WizardData) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Goal: %s\n", data.Goal)
	if data.Deadline != "" {
		deadline := data.Deadline
		if d, err := time.Parse(types.DateLayout, data.Deadline); err == nil {
			deadline = d.Format("January 2, 2006")
		}
		fmt.Fprintf(&sb, "Deadline: %s\n", deadline)
	}
	if data.DailyHours != "" {
		fmt.Fprintf(&sb, "Daily Hours: %s\n", data.DailyHours)
	}
	priority := data.Priority
	if priority == "" {
		priority = types.PriorityMedium
	}
	fmt.Fprintf(&sb, "Priority: %s\n", strings.ToUpper(string(priority[:1]))+string(priority[1:]))
	if data.AutoExecute {
		sb.WriteString("Auto-Execution: enabled\n")
	} else {
		sb.WriteString("Auto-Execution: disabled\n")
	}
	return sb.String()
}

// Form describes the three steps for clients that render the wizard.
func Form() []config.FieldGroup {
	return []config.FieldGroup{
		{
			Name:  "goal",
			Label: StepGoal.String(),
			Fields: []config.Field{
				{
					Name:        FieldGoal,
					Type:        config.FieldTypeTextarea,
					Label:       "What is your primary goal?",
					Placeholder: "E.g., Plan and book a 1-week trip to Japan for two in December.",
					HelpText:    "Be as specific as possible. The AI will use this to create a plan.",
					Required:    true,
				},
			},
		},
		{
			Name:  "details",
			Label: StepDetails.String(),
			Fields: []config.Field{
				{
					Name:  FieldDeadline,
					Type:  config.FieldTypeDate,
					Label: "Deadline (optional)",
				},
				{
					Name:        FieldDailyHours,
					Type:        config.FieldTypeNumber,
					Label:       "Approx. daily hours you can commit",
					Placeholder: "2",
					Min:         0.5,
					Step:        0.5,
				},
				{
					Name:         FieldPriority,
					Type:         config.FieldTypeSelect,
					Label:        "Priority",
					DefaultValue: string(types.PriorityMedium),
					Options: []config.FieldOption{
						{Value: string(types.PriorityLow), Label: "Low"},
						{Value: string(types.PriorityMedium), Label: "Medium"},
						{Value: string(types.PriorityHigh), Label: "High"},
					},
				},
			},
		},
		{
			Name:  "review",
			Label: StepReview.String(),
			Fields: []config.Field{
				{
					Name:         FieldAutoExecute,
					Type:         config.FieldTypeCheckbox,
					Label:        "Enable Auto-Execution",
					DefaultValue: false,
					HelpText:     "Allow the agent to perform low-risk actions automatically, like adding events to your calendar.",
				},
			},
		},
	}
}

func (w *Wizard) Validate(now time.Time) error {
	return Validate(w.Data, now)
}

func (w *Wizard) Summary() string {
	return Summary(w.Data)
}
