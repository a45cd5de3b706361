package state_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	. "github.com/mudler/LocalPlanner/core/state"
	"github.com/mudler/LocalPlanner/core/storage"
	"github.com/mudler/LocalPlanner/core/types"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type failingStore struct {
	storage.Store
	writes int
}

func (f *failingStore) Write(ctx context.Context, key string, data []byte) error {
	f.writes++
	return errors.New("quota exceeded")
}

func japanPlan(k int) types.Plan {
	plan := types.Plan{
		AgentName:             "Voyager",
		Description:           "Plans a trip to Japan.",
		Confidence:            0.8,
		SuggestedIntegrations: []string{},
	}
	for i := 0; i < k; i++ {
		plan.Tasks = append(plan.Tasks, types.PlannedTask{
			Title:        fmt.Sprintf("Task %d", i),
			Priority:     3,
			DurationMins: 30,
			ActionType:   types.ActionTask,
		})
	}
	return plan
}

func expectProgressInvariant(agents []types.Agent) {
	for _, a := range agents {
		Expect(a.Progress).To(Equal(types.Progress(a.Tasks)), "agent %s", a.ID)
	}
}

var _ = Describe("AgentPool", func() {
	var (
		ctx   context.Context
		store *storage.MemoryStore
		pool  *AgentPool
		clock time.Time
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = storage.NewMemoryStore()
		clock = time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
		pool = NewAgentPool(ctx, store,
			WithClock(func() time.Time { return clock }),
			WithDeleteDelay(20*time.Millisecond),
		)
	})

	AfterEach(func() {
		pool.Close()
	})

	Describe("Create", func() {
		It("builds an active agent with K pending tasks and one greeting", func() {
			wizard := types.WizardData{Goal: "Plan a trip to Japan", Priority: types.PriorityHigh}
			agent := pool.Create(japanPlan(4), wizard)

			Expect(agent.ID).ToNot(BeEmpty())
			Expect(agent.Name).To(Equal("Voyager"))
			Expect(agent.Status).To(Equal(types.AgentStatusActive))
			Expect(agent.Priority).To(Equal(types.PriorityHigh))
			Expect(agent.Progress).To(Equal(0))
			Expect(agent.CreatedAt).To(Equal(clock))
			Expect(agent.MemoryShort).To(BeEmpty())
			Expect(agent.MemoryLong).To(BeEmpty())
			Expect(agent.Config).To(Equal(types.AgentConfig{AutoExecute: false, MaxDailyActions: 100}))

			Expect(agent.Tasks).To(HaveLen(4))
			ids := map[string]bool{}
			for _, t := range agent.Tasks {
				Expect(t.Status).To(Equal(types.TaskStatusPending))
				Expect(t.CreatedAt).To(Equal(clock))
				Expect(t.ID).ToNot(Equal(agent.ID))
				ids[t.ID] = true
			}
			Expect(ids).To(HaveLen(4))

			Expect(agent.Chat).To(HaveLen(1))
			Expect(agent.Chat[0].Role).To(Equal(types.RoleAssistant))
			Expect(agent.Chat[0].Content).To(ContainSubstring(`"Plan a trip to Japan"`))
			Expect(agent.Chat[0].Content).To(HavePrefix("Hello! I'm Voyager."))
		})

		It("quotes goals and task titles literally", func() {
			plan := japanPlan(1)
			plan.Tasks[0].Title = `Book the "JR" pass`
			agent := pool.Create(plan, types.WizardData{Goal: `Visit "Kyoto"`})
			Expect(agent.Chat[0].Content).To(ContainSubstring(`with: "Visit "Kyoto"". I've`))

			pool.CompleteTask(agent.ID, agent.Tasks[0].ID)
			got, _ := pool.Get(agent.ID)
			Expect(got.Chat[1].Content).To(Equal(`✅ Task completed: "Book the "JR" pass"`))
		})

		It("defaults priority to medium and copies deadline and auto-execute", func() {
			agent := pool.Create(japanPlan(0), types.WizardData{Goal: "g", Deadline: "2026-12-01", AutoExecute: true})
			Expect(agent.Priority).To(Equal(types.PriorityMedium))
			Expect(agent.Deadline).To(Equal("2026-12-01"))
			Expect(agent.Config.AutoExecute).To(BeTrue())
			Expect(agent.Tasks).To(BeEmpty())
			Expect(agent.Progress).To(Equal(0))
		})

		It("appends, selects and persists the agent", func() {
			first := pool.Create(japanPlan(1), types.WizardData{Goal: "one"})
			second := pool.Create(japanPlan(1), types.WizardData{Goal: "two"})

			Expect(pool.List()).To(HaveLen(2))
			Expect(pool.List()[0].ID).To(Equal(first.ID))
			selected, ok := pool.Selected()
			Expect(ok).To(BeTrue())
			Expect(selected.ID).To(Equal(second.ID))

			stored := storage.ReadOr(ctx, store, AgentsKey, []types.Agent{})
			Expect(stored).To(Equal(pool.List()))
		})
	})

	Describe("ToggleStatus", func() {
		It("is an involution", func() {
			agent := pool.Create(japanPlan(1), types.WizardData{Goal: "g"})
			Expect(pool.ToggleStatus(agent.ID)).To(BeTrue())
			got, _ := pool.Get(agent.ID)
			Expect(got.Status).To(Equal(types.AgentStatusPaused))

			pool.ToggleStatus(agent.ID)
			got, _ = pool.Get(agent.ID)
			Expect(got.Status).To(Equal(types.AgentStatusActive))
		})

		It("ignores unknown agents", func() {
			pool.Create(japanPlan(1), types.WizardData{Goal: "g"})
			before := pool.List()
			Expect(pool.ToggleStatus("nope")).To(BeFalse())
			Expect(pool.List()).To(Equal(before))
		})
	})

	Describe("CompleteTask", func() {
		var agent types.Agent

		BeforeEach(func() {
			agent = pool.Create(japanPlan(3), types.WizardData{Goal: "g"})
		})

		It("completes the task, recomputes progress and confirms it", func() {
			clock = clock.Add(time.Hour)
			Expect(pool.CompleteTask(agent.ID, agent.Tasks[0].ID)).To(BeTrue())

			got, _ := pool.Get(agent.ID)
			Expect(got.Tasks[0].Status).To(Equal(types.TaskStatusCompleted))
			Expect(*got.Tasks[0].CompletedAt).To(Equal(clock))
			Expect(got.Progress).To(Equal(33))
			Expect(got.Chat).To(HaveLen(2))
			Expect(got.Chat[1].Role).To(Equal(types.RoleAssistant))
			Expect(got.Chat[1].Content).To(Equal(`✅ Task completed: "Task 0"`))
		})

		It("is a no-op on an already completed task", func() {
			pool.CompleteTask(agent.ID, agent.Tasks[1].ID)
			before, _ := pool.Get(agent.ID)

			Expect(pool.CompleteTask(agent.ID, agent.Tasks[1].ID)).To(BeFalse())
			after, _ := pool.Get(agent.ID)
			Expect(after).To(Equal(before))
			Expect(after.Chat).To(HaveLen(2))
		})

		It("leaves state unchanged for unknown ids", func() {
			before := pool.List()
			Expect(pool.CompleteTask(agent.ID, "missing")).To(BeFalse())
			Expect(pool.CompleteTask("missing", agent.Tasks[0].ID)).To(BeFalse())
			Expect(pool.List()).To(Equal(before))
		})

		It("keeps the progress invariant after every mutation", func() {
			for _, t := range agent.Tasks {
				pool.CompleteTask(agent.ID, t.ID)
				expectProgressInvariant(pool.List())
			}
			got, _ := pool.Get(agent.ID)
			Expect(got.Progress).To(Equal(100))
		})
	})

	Describe("Update", func() {
		It("cannot set progress independently of the tasks", func() {
			agent := pool.Create(japanPlan(2), types.WizardData{Goal: "g"})
			pool.Update(agent.ID, func(a types.Agent) types.Agent {
				a.Progress = 99
				return a
			})
			got, _ := pool.Get(agent.ID)
			Expect(got.Progress).To(Equal(0))
		})

		It("never exposes stored state to the update function", func() {
			agent := pool.Create(japanPlan(1), types.WizardData{Goal: "g"})
			var leaked types.Agent
			pool.Update(agent.ID, func(a types.Agent) types.Agent {
				leaked = a
				return a
			})
			leaked.Tasks[0].Title = "mutated"
			leaked.Chat[0].Content = "mutated"
			got, _ := pool.Get(agent.ID)
			Expect(got.Tasks[0].Title).To(Equal("Task 0"))
			Expect(got.Chat[0].Content).ToNot(Equal("mutated"))
		})
	})

	Describe("chat messages", func() {
		It("returns the updated agent after a user message", func() {
			agent := pool.Create(japanPlan(1), types.WizardData{Goal: "g"})
			updated, ok := pool.AppendUserMessage(agent.ID, "When do we leave?")
			Expect(ok).To(BeTrue())
			Expect(updated.Chat).To(HaveLen(2))
			Expect(updated.Chat[1]).To(Equal(types.NewMessage(types.RoleUser, "When do we leave?", clock)))

			Expect(pool.AppendAssistantMessage(agent.ID, "In December.")).To(BeTrue())
			got, _ := pool.Get(agent.ID)
			Expect(got.Chat).To(HaveLen(3))
			Expect(got.Chat[2].Role).To(Equal(types.RoleAssistant))
		})

		It("ignores unknown agents", func() {
			_, ok := pool.AppendUserMessage("missing", "hi")
			Expect(ok).To(BeFalse())
			Expect(pool.AppendAssistantMessage("missing", "hi")).To(BeFalse())
		})
	})

	Describe("Delete", func() {
		It("flags, then removes exactly that agent and clears its selection", func() {
			keep := pool.Create(japanPlan(1), types.WizardData{Goal: "keep"})
			gone := pool.Create(japanPlan(1), types.WizardData{Goal: "gone"})
			Expect(pool.Select(gone.ID)).To(BeTrue())

			Expect(pool.Delete(gone.ID)).To(BeTrue())
			flagged, ok := pool.Get(gone.ID)
			Expect(ok).To(BeTrue())
			Expect(flagged.IsDeleting).To(BeTrue())

			Eventually(func() int { return len(pool.List()) }).Should(Equal(1))
			Expect(pool.List()[0].ID).To(Equal(keep.ID))
			_, selected := pool.Selected()
			Expect(selected).To(BeFalse())
		})

		It("keeps the selection when another agent is deleted", func() {
			keep := pool.Create(japanPlan(1), types.WizardData{Goal: "keep"})
			gone := pool.Create(japanPlan(1), types.WizardData{Goal: "gone"})
			pool.Select(keep.ID)

			pool.Delete(gone.ID)
			Eventually(func() int { return len(pool.List()) }).Should(Equal(1))
			selected, ok := pool.Selected()
			Expect(ok).To(BeTrue())
			Expect(selected.ID).To(Equal(keep.ID))
		})

		It("reschedules a repeated delete instead of firing twice", func() {
			agent := pool.Create(japanPlan(1), types.WizardData{Goal: "g"})
			pool.Delete(agent.ID)
			pool.Delete(agent.ID)
			Expect(pool.PendingDeletes()).To(Equal(1))
			Eventually(pool.List).Should(BeEmpty())
			Eventually(pool.PendingDeletes).Should(Equal(0))
		})

		It("does nothing after Close", func() {
			agent := pool.Create(japanPlan(1), types.WizardData{Goal: "g"})
			pool.Delete(agent.ID)
			pool.Close()
			Consistently(func() int { return len(pool.List()) }, 100*time.Millisecond).Should(Equal(1))
		})

		It("returns false for unknown agents", func() {
			Expect(pool.Delete("missing")).To(BeFalse())
			Expect(pool.PendingDeletes()).To(Equal(0))
		})
	})

	Describe("Subscribe", func() {
		It("notifies snapshots until unsubscribed", func() {
			var (
				mu    sync.Mutex
				calls [][]types.Agent
			)
			unsubscribe := pool.Subscribe(func(agents []types.Agent) {
				mu.Lock()
				defer mu.Unlock()
				calls = append(calls, agents)
			})

			agent := pool.Create(japanPlan(1), types.WizardData{Goal: "g"})
			pool.ToggleStatus(agent.ID)
			unsubscribe()
			pool.ToggleStatus(agent.ID)

			mu.Lock()
			defer mu.Unlock()
			Expect(calls).To(HaveLen(2))
			Expect(calls[1][0].Status).To(Equal(types.AgentStatusPaused))
		})

		It("never delivers an older snapshot after a newer one", func() {
			var (
				mu    sync.Mutex
				sizes []int
				first = true
			)
			pool.Subscribe(func(agents []types.Agent) {
				mu.Lock()
				slow := first
				first = false
				mu.Unlock()
				if slow {
					time.Sleep(50 * time.Millisecond)
				}
				mu.Lock()
				sizes = append(sizes, len(agents))
				mu.Unlock()
			})

			done := make(chan struct{})
			go func() {
				defer close(done)
				pool.Create(japanPlan(1), types.WizardData{Goal: "one"})
			}()
			time.Sleep(20 * time.Millisecond)
			pool.Create(japanPlan(1), types.WizardData{Goal: "two"})
			Eventually(done).Should(BeClosed())

			mu.Lock()
			defer mu.Unlock()
			Expect(sizes).ToNot(BeEmpty())
			Expect(sizes[len(sizes)-1]).To(Equal(2))
			for i := 1; i < len(sizes); i++ {
				Expect(sizes[i]).To(BeNumerically(">=", sizes[i-1]))
			}
		})
	})

	Describe("persistence", func() {
		It("reloads the collection written by a previous pool", func() {
			agent := pool.Create(japanPlan(2), types.WizardData{Goal: "g"})
			pool.CompleteTask(agent.ID, agent.Tasks[0].ID)

			reloaded := NewAgentPool(ctx, store)
			defer reloaded.Close()
			Expect(reloaded.List()).To(Equal(pool.List()))
		})

		It("cancels deletions interrupted by a restart", func() {
			agent := pool.Create(japanPlan(1), types.WizardData{Goal: "g"})
			pool.Delete(agent.ID)
			pool.Close()

			reloaded := NewAgentPool(ctx, store)
			defer reloaded.Close()
			got, ok := reloaded.Get(agent.ID)
			Expect(ok).To(BeTrue())
			Expect(got.IsDeleting).To(BeFalse())
		})

		It("starts empty on malformed storage", func() {
			Expect(store.Write(ctx, AgentsKey, []byte("garbage"))).To(Succeed())
			Expect(NewAgentPool(ctx, store).List()).To(BeEmpty())
		})

		It("keeps in-memory state when the store fails", func() {
			failing := &failingStore{Store: storage.NewMemoryStore()}
			p := NewAgentPool(ctx, failing)
			defer p.Close()

			agent := p.Create(japanPlan(1), types.WizardData{Goal: "g"})
			Expect(failing.writes).To(Equal(1))
			got, ok := p.Get(agent.ID)
			Expect(ok).To(BeTrue())
			Expect(got.Name).To(Equal("Voyager"))
		})
	})
})
