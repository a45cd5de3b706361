// Package webui serves the dashboard, wizard and workspace operations as a
// JSON API, plus a server-sent event feed of the agent collection.
package webui

import (
	"errors"
	"net/http"
	"strings"

	fiber "github.com/gofiber/fiber/v2"
	"github.com/mudler/LocalPlanner/core/planner"
	"github.com/mudler/LocalPlanner/core/sse"
	"github.com/mudler/LocalPlanner/core/state"
	"github.com/mudler/LocalPlanner/core/types"
	"github.com/mudler/LocalPlanner/core/wizard"
	"github.com/mudler/xlog"
)

type (
	App struct {
		config      *Config
		sse         sse.Manager
		busy        *busyFlags
		unsubscribe func()
		*fiber.App
	}
)

func NewApp(opts ...Option) *App {
	config := NewConfig(opts...)

	webapp := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	a := &App{
		config: config,
		sse:    sse.NewManager(1, 1),
		busy:   newBusyFlags(),
		App:    webapp,
	}

	// New streams start from the latest snapshot, kept as SSE history.
	a.sse.Send(sse.AgentsMessage(config.Pool.List()))
	a.unsubscribe = config.Pool.Subscribe(func(agents []types.Agent) {
		a.sse.Send(sse.AgentsMessage(agents))
	})

	a.registerRoutes(config.Pool, webapp)

	return a
}

// Close stops forwarding pool changes and shuts the server down.
func (a *App) Close() error {
	if a.unsubscribe != nil {
		a.unsubscribe()
	}
	return a.App.Shutdown()
}

func errorJSONMessage(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(struct {
		Error string `json:"error"`
	}{Error: message})
}

// validationErrorJSON tells the client which field and step to fix.
func validationErrorJSON(c *fiber.Ctx, err error) error {
	var verr *wizard.ValidationError
	if !errors.As(err, &verr) {
		return errorJSONMessage(c, http.StatusBadRequest, err.Error())
	}
	return c.Status(http.StatusBadRequest).JSON(fiber.Map{
		"error": verr.Message,
		"field": verr.Field,
		"step":  int(verr.Step),
	})
}

func agentNotFound(c *fiber.Ctx) error {
	return errorJSONMessage(c, http.StatusNotFound, "Agent not found")
}

func (a *App) ListAgents(pool *state.AgentPool) func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		agents := pool.List()
		if agents == nil {
			agents = []types.Agent{}
		}
		return c.JSON(fiber.Map{
			"agents":     agents,
			"agentCount": len(agents),
			"generating": a.busy.isGenerating(),
		})
	}
}

func (a *App) GetAgent(pool *state.AgentPool) func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		agent, ok := pool.Get(c.Params("id"))
		if !ok {
			return agentNotFound(c)
		}
		return c.JSON(fiber.Map{
			"agent":    agent,
			"thinking": a.busy.isThinking(agent.ID),
		})
	}
}

// Create validates the wizard draft, asks the model for a plan and turns
// it into a new agent.
func (a *App) Create(pool *state.AgentPool) func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		var data types.WizardData
		if err := c.BodyParser(&data); err != nil {
			return errorJSONMessage(c, http.StatusBadRequest, "Invalid request")
		}

		now := a.config.Now().In(a.config.Location)
		if err := wizard.Validate(data, now); err != nil {
			return validationErrorJSON(c, err)
		}

		if !a.busy.tryGenerate() {
			return errorJSONMessage(c, http.StatusConflict, "A plan is already being generated")
		}
		defer a.busy.doneGenerate()

		plan, err := a.config.Planner.GeneratePlan(c.UserContext(), data, a.config.Profile)
		if err != nil {
			xlog.Error("Agent creation failed", "error", err)
			return errorJSONMessage(c, http.StatusBadGateway, planner.ErrPlanFailed.Error())
		}

		agent := pool.Create(plan, data)
		return c.Status(http.StatusCreated).JSON(fiber.Map{
			"agent":                  agent,
			"confidence":             plan.Confidence,
			"explanation":            plan.Explanation,
			"suggested_integrations": plan.SuggestedIntegrations,
		})
	}
}

func (a *App) Toggle(pool *state.AgentPool) func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if !pool.ToggleStatus(id) {
			return agentNotFound(c)
		}
		agent, _ := pool.Get(id)
		return c.JSON(fiber.Map{"agent": agent})
	}
}

// Delete flags the agent and answers before the removal happens.
func (a *App) Delete(pool *state.AgentPool) func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		if !pool.Delete(c.Params("id")) {
			return agentNotFound(c)
		}
		return c.Status(http.StatusAccepted).JSON(fiber.Map{"status": "deleting"})
	}
}

// Chat appends the user message, waits for the agent's reply and appends
// it. Model failures are appended as an assistant message as well.
func (a *App) Chat(pool *state.AgentPool) func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var payload struct {
			Message string `json:"message" form:"message"`
		}
		if err := c.BodyParser(&payload); err != nil {
			return errorJSONMessage(c, http.StatusBadRequest, "Invalid request")
		}
		message := strings.TrimSpace(payload.Message)
		if message == "" {
			return errorJSONMessage(c, http.StatusBadRequest, "Message cannot be empty")
		}

		if _, ok := pool.Get(id); !ok {
			return agentNotFound(c)
		}
		if !a.busy.tryThink(id) {
			return errorJSONMessage(c, http.StatusConflict, "The agent is still answering")
		}
		defer a.busy.doneThink(id)

		agent, ok := pool.AppendUserMessage(id, message)
		if !ok {
			return agentNotFound(c)
		}

		reply, err := a.config.Responder.Respond(c.UserContext(), agent, message)
		if err != nil {
			xlog.Error("Chat reply failed", "agent", id, "error", err)
			pool.AppendAssistantMessage(id, planner.ErrAIUnavailable.Error())
			updated, _ := pool.Get(id)
			return c.Status(http.StatusBadGateway).JSON(fiber.Map{
				"error": planner.ErrAIUnavailable.Error(),
				"agent": updated,
			})
		}

		pool.AppendAssistantMessage(id, reply)
		updated, _ := pool.Get(id)
		return c.JSON(fiber.Map{
			"reply": reply,
			"agent": updated,
		})
	}
}

func (a *App) CompleteTask(pool *state.AgentPool) func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		id, taskID := c.Params("id"), c.Params("task")
		agent, ok := pool.Get(id)
		if !ok {
			return agentNotFound(c)
		}
		if agent.TaskIndex(taskID) < 0 {
			return errorJSONMessage(c, http.StatusNotFound, "Task not found")
		}

		completed := pool.CompleteTask(id, taskID)
		agent, _ = pool.Get(id)
		return c.JSON(fiber.Map{
			"agent":     agent,
			"completed": completed,
		})
	}
}

// TaskRuns lists the auto-executor runs of one of the agent's tasks.
func (a *App) TaskRuns(pool *state.AgentPool) func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		agent, ok := pool.Get(c.Params("id"))
		if !ok {
			return agentNotFound(c)
		}
		if agent.TaskIndex(c.Params("task")) < 0 {
			return errorJSONMessage(c, http.StatusNotFound, "Task not found")
		}
		if a.config.Scheduler == nil {
			return errorJSONMessage(c, http.StatusNotFound, "Auto-execution is disabled")
		}
		limit := c.QueryInt("limit", 20)
		return c.JSON(fiber.Map{
			"runs": a.config.Scheduler.GetTaskRuns(c.Params("task"), limit),
		})
	}
}

func (a *App) Select(pool *state.AgentPool) func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		if !pool.Select(c.Params("id")) {
			return agentNotFound(c)
		}
		agent, _ := pool.Selected()
		return c.JSON(fiber.Map{"agent": agent})
	}
}

func (a *App) ClearSelection(pool *state.AgentPool) func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		pool.ClearSelection()
		return c.SendStatus(http.StatusNoContent)
	}
}

func (a *App) Workspace(pool *state.AgentPool) func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		agent, ok := pool.Selected()
		if !ok {
			return c.JSON(fiber.Map{"agent": nil})
		}
		return c.JSON(fiber.Map{
			"agent":    agent,
			"thinking": a.busy.isThinking(agent.ID),
		})
	}
}

// ValidateDraft checks a wizard draft without generating anything.
func (a *App) ValidateDraft() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		var data types.WizardData
		if err := c.BodyParser(&data); err != nil {
			return errorJSONMessage(c, http.StatusBadRequest, "Invalid request")
		}
		if err := wizard.Validate(data, a.config.Now().In(a.config.Location)); err != nil {
			return validationErrorJSON(c, err)
		}
		return c.JSON(fiber.Map{"summary": wizard.Summary(data)})
	}
}
