package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/huh/spinner"
	"github.com/mudler/LocalPlanner/core/types"
	"github.com/mudler/LocalPlanner/core/wizard"
	"github.com/mudler/LocalPlanner/pkg/config"
	"github.com/spf13/cobra"
)

func newWizardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "wizard",
		Aliases: []string{"new", "create"},
		Short:   "Create an agent from a goal",
		Long: `Walk through the three creation steps (goal, details, review) and let
the model generate the agent's plan. With --goal the form is skipped and
the flags are used as the draft.`,
		Args: cobra.NoArgs,
		RunE: runWizard,
	}

	cmd.Flags().String("goal", "", "the goal, skips the interactive form")
	cmd.Flags().String("deadline", "", "deadline as YYYY-MM-DD")
	cmd.Flags().String("daily-hours", "", "approximate daily hours")
	cmd.Flags().String("priority", "", "low, medium or high")
	cmd.Flags().Bool("auto-execute", false, "allow the agent to run its actions automatically")
	cmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")
	return cmd
}

func runWizard(cmd *cobra.Command, args []string) error {
	svc, err := openServices(cmd.Context(), cmd, true)
	if err != nil {
		return err
	}
	defer svc.Close()

	now := time.Now().In(svc.Location)
	d := draft{}

	goal, _ := cmd.Flags().GetString("goal")
	if goal != "" {
		d.goal = goal
		d.deadline, _ = cmd.Flags().GetString("deadline")
		d.dailyHours, _ = cmd.Flags().GetString("daily-hours")
		d.priority, _ = cmd.Flags().GetString("priority")
		d.autoExecute, _ = cmd.Flags().GetBool("auto-execute")
	} else {
		if err := wizardForm(&d, now).Run(); err != nil {
			return err
		}
	}

	data := d.data()
	if err := wizard.Validate(data, now); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, boxStyle.Render(titleStyle.Render(wizard.StepReview.String())+"\n\n"+wizard.Summary(data)))

	if yes, _ := cmd.Flags().GetBool("yes"); !yes {
		confirmed := true
		err := huh.NewForm(huh.NewGroup(
			huh.NewConfirm().
				Title("Create this agent?").
				Affirmative("Create Agent").
				Negative("Cancel").
				Value(&confirmed),
		)).WithTheme(huh.ThemeDracula()).Run()
		if err != nil {
			return err
		}
		if !confirmed {
			fmt.Fprintln(out, dimStyle.Render("Nothing created."))
			return nil
		}
	}

	var plan types.Plan
	var planErr error
	err = spinner.New().
		Title("Generating plan...").
		Context(cmd.Context()).
		Action(func() {
			plan, planErr = svc.Planner.GeneratePlan(cmd.Context(), data, svc.Profile)
		}).
		Run()
	if err != nil {
		return err
	}
	if planErr != nil {
		return planErr
	}

	agent := svc.Pool.Create(plan, data)
	fmt.Fprintln(out)
	printAgent(out, agent)
	printTasks(out, agent)
	fmt.Fprintf(out, "\n%s %.0f%%\n", dimStyle.Render("Confidence:"), plan.Confidence*100)
	if plan.Explanation != "" {
		fmt.Fprintf(out, "%s %s\n", dimStyle.Render("Why:"), plan.Explanation)
	}
	if len(plan.SuggestedIntegrations) > 0 {
		fmt.Fprintf(out, "%s %v\n", dimStyle.Render("Suggested integrations:"), plan.SuggestedIntegrations)
	}
	return nil
}

// draft holds the form values before they become WizardData.
type draft struct {
	goal        string
	deadline    string
	dailyHours  string
	priority    string
	autoExecute bool
}

func (d draft) data() types.WizardData {
	return types.WizardData{
		Goal:        d.goal,
		Deadline:    d.deadline,
		DailyHours:  d.dailyHours,
		Priority:    types.Priority(d.priority),
		AutoExecute: d.autoExecute,
	}
}

func (d *draft) text(name string) *string {
	switch name {
	case wizard.FieldGoal:
		return &d.goal
	case wizard.FieldDeadline:
		return &d.deadline
	case wizard.FieldDailyHours:
		return &d.dailyHours
	case wizard.FieldPriority:
		return &d.priority
	}
	return nil
}

// validateField runs the draft validation and keeps only the errors
// about the named field.
func validateField(name, value string, now time.Time) error {
	d := draft{goal: "-"}
	if p := d.text(name); p != nil {
		*p = value
	}
	var verr *wizard.ValidationError
	if err := wizard.Validate(d.data(), now); errors.As(err, &verr) && verr.Field == name {
		return verr
	}
	return nil
}

// wizardForm renders one huh group per wizard step from the shared form
// metadata.
func wizardForm(d *draft, now time.Time) *huh.Form {
	var groups []*huh.Group
	for _, g := range wizard.Form() {
		var fields []huh.Field
		for _, f := range g.Fields {
			if field := formField(d, f, now); field != nil {
				fields = append(fields, field)
			}
		}
		groups = append(groups, huh.NewGroup(fields...).Title(g.Label))
	}
	return huh.NewForm(groups...).WithTheme(huh.ThemeDracula())
}

func formField(d *draft, f config.Field, now time.Time) huh.Field {
	name := f.Name
	validate := func(s string) error { return validateField(name, s, now) }

	if f.Type == config.FieldTypeCheckbox {
		if def, ok := f.DefaultValue.(bool); ok {
			d.autoExecute = def
		}
		return huh.NewConfirm().
			Title(f.Label).
			Description(f.HelpText).
			Value(&d.autoExecute)
	}

	value := d.text(name)
	if value == nil {
		return nil
	}
	if def, ok := f.DefaultValue.(string); ok && *value == "" {
		*value = def
	}

	switch f.Type {
	case config.FieldTypeTextarea:
		return huh.NewText().
			Title(f.Label).
			Description(f.HelpText).
			Placeholder(f.Placeholder).
			Value(value).
			Validate(validate)
	case config.FieldTypeSelect:
		opts := make([]huh.Option[string], 0, len(f.Options))
		for _, o := range f.Options {
			opts = append(opts, huh.NewOption(o.Label, o.Value))
		}
		return huh.NewSelect[string]().
			Title(f.Label).
			Options(opts...).
			Value(value)
	}

	placeholder := f.Placeholder
	description := f.HelpText
	switch f.Type {
	case config.FieldTypeDate:
		placeholder = now.Format(types.DateLayout)
		description = "YYYY-MM-DD, leave empty for none"
	case config.FieldTypeNumber:
		if f.Min > 0 {
			description = "at least " + strconv.FormatFloat(float64(f.Min), 'f', -1, 32)
		}
	}
	return huh.NewInput().
		Title(f.Label).
		Description(description).
		Placeholder(placeholder).
		Value(value).
		Validate(validate)
}
