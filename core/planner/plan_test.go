package planner_test

import (
	"context"
	"errors"

	. "github.com/mudler/LocalPlanner/core/planner"
	"github.com/mudler/LocalPlanner/core/types"
	"github.com/mudler/LocalPlanner/pkg/llm"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

const japanPlan = `{
  "agent_name": "Voyager",
  "description": "Plans a memorable trip to Japan.",
  "tasks": [
    {"title": "Book flights", "description": "Find round-trip flights", "priority": 5, "duration_mins": 90, "due": "2026-11-01", "action_type": "task"},
    {"title": "Reserve hotels", "description": "Tokyo and Kyoto", "priority": 4, "duration_mins": 60, "due": null, "action_type": "calendar_event"},
    {"title": "Email the team", "description": "Out of office notice", "priority": 2, "duration_mins": 10, "due": "2026-11-20", "action_type": "email"}
  ],
  "confidence": 0.82,
  "explanation": "Book the expensive parts first.",
  "suggested_integrations": ["Google Calendar", "Gmail", "gmail"]
}`

var _ = Describe("Plan generator", func() {
	var (
		profile types.UserProfile
		wizard  types.WizardData
	)

	BeforeEach(func() {
		profile = types.DefaultUserProfile()
		wizard = types.WizardData{Goal: "Plan a trip to Japan", Priority: types.PriorityHigh}
	})

	Context("prompt", func() {
		It("embeds the goal, priority and user profile", func() {
			prompt, err := PlanPrompt(wizard, profile)
			Expect(err).ToNot(HaveOccurred())
			Expect(prompt).To(ContainSubstring("**Primary Goal:** Plan a trip to Japan"))
			Expect(prompt).To(ContainSubstring("**Priority Level:** high"))
			Expect(prompt).To(ContainSubstring("Name: Alex"))
			Expect(prompt).To(ContainSubstring("Timezone: America/Los_Angeles"))
			Expect(prompt).To(ContainSubstring("Work Hours: 09:00 - 17:00"))
			Expect(prompt).To(ContainSubstring("'calendar_event', 'task', 'reminder', 'email'"))
			Expect(prompt).ToNot(ContainSubstring("Deadline"))
			Expect(prompt).ToNot(ContainSubstring("Daily Commitment"))
		})

		It("folds optional constraints into the mission", func() {
			wizard.Deadline = "2026-12-01"
			wizard.DailyHours = "2"
			prompt, err := PlanPrompt(wizard, profile)
			Expect(err).ToNot(HaveOccurred())
			Expect(prompt).To(ContainSubstring("**Deadline:** 2026-12-01"))
			Expect(prompt).To(ContainSubstring("**Approx. Daily Commitment:** 2 hours"))
			Expect(prompt).To(ContainSubstring("All due dates must be on or before the deadline."))
		})
	})

	Context("schema", func() {
		It("requires every plan field", func() {
			s := PlanSchema()
			Expect(s.Required).To(ConsistOf("agent_name", "description", "tasks", "confidence", "explanation", "suggested_integrations"))
			Expect(s.Properties["tasks"].Items.Required).To(ConsistOf("title", "description", "priority", "duration_mins", "due", "action_type"))
			Expect(s.Properties["tasks"].Items.Properties["action_type"].Enum).To(ConsistOf("calendar_event", "task", "reminder", "email"))
		})
	})

	Context("GeneratePlan", func() {
		It("sends prompt and schema and parses the reply", func() {
			var captured llm.PlanRequest
			model := &llm.MockModel{
				GeneratePlanFunc: func(ctx context.Context, req llm.PlanRequest) (string, error) {
					captured = req
					return japanPlan, nil
				},
			}

			plan, err := NewGenerator(model).GeneratePlan(context.Background(), wizard, profile)
			Expect(err).ToNot(HaveOccurred())
			Expect(captured.Prompt).To(ContainSubstring("Plan a trip to Japan"))
			Expect(captured.Prompt).To(ContainSubstring("high"))
			Expect(captured.Schema).To(Equal(PlanSchema()))

			Expect(plan.AgentName).To(Equal("Voyager"))
			Expect(plan.Tasks).To(HaveLen(3))
			Expect(plan.Tasks[1].Due).To(BeEmpty())
			Expect(plan.Tasks[2].ActionType).To(Equal(types.ActionEmail))
			Expect(plan.Confidence).To(BeNumerically("~", 0.82))
			Expect(plan.SuggestedIntegrations).To(Equal([]string{"Google Calendar", "Gmail"}))
		})

		It("reports transport errors as ErrPlanFailed", func() {
			model := &llm.MockModel{
				GeneratePlanFunc: func(ctx context.Context, req llm.PlanRequest) (string, error) {
					return "", errors.New("connection refused")
				},
			}
			_, err := NewGenerator(model).GeneratePlan(context.Background(), wizard, profile)
			Expect(errors.Is(err, ErrPlanFailed)).To(BeTrue())
		})

		It("does not retry", func() {
			calls := 0
			model := &llm.MockModel{
				GeneratePlanFunc: func(ctx context.Context, req llm.PlanRequest) (string, error) {
					calls++
					return "not json", nil
				},
			}
			_, err := NewGenerator(model).GeneratePlan(context.Background(), wizard, profile)
			Expect(err).To(MatchError(ErrPlanFailed))
			Expect(calls).To(Equal(1))
		})
	})

	DescribeTable("ParsePlan rejects non-conforming replies",
		func(raw string) {
			_, err := ParsePlan(raw)
			Expect(err).To(HaveOccurred())
		},
		Entry("malformed JSON", `{"agent_name":`),
		Entry("missing name", `{"agent_name":"","tasks":[],"confidence":0.5}`),
		Entry("confidence above one", `{"agent_name":"A","tasks":[],"confidence":1.5}`),
		Entry("priority out of range", `{"agent_name":"A","confidence":0.5,"tasks":[{"title":"t","priority":9,"action_type":"task"}]}`),
		Entry("unknown action", `{"agent_name":"A","confidence":0.5,"tasks":[{"title":"t","priority":3,"action_type":"fax"}]}`),
		Entry("bad due date", `{"agent_name":"A","confidence":0.5,"tasks":[{"title":"t","priority":3,"action_type":"task","due":"next week"}]}`),
	)

	It("accepts JSON wrapped in a code fence", func() {
		plan, err := ParsePlan("```json\n" + japanPlan + "\n```")
		Expect(err).ToNot(HaveOccurred())
		Expect(plan.AgentName).To(Equal("Voyager"))
	})

	It("normalizes a missing task list to empty", func() {
		plan, err := ParsePlan(`{"agent_name":"A","confidence":0.1,"suggested_integrations":[]}`)
		Expect(err).ToNot(HaveOccurred())
		Expect(plan.Tasks).To(BeEmpty())
		Expect(plan.Tasks).ToNot(BeNil())
	})
})
