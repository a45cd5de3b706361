package webui

import (
	"crypto/subtle"
	"errors"

	"github.com/dave-gray101/v2keyauth"
	fiber "github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/keyauth"
	"github.com/google/uuid"
	"github.com/mudler/LocalPlanner/core/sse"
	"github.com/mudler/LocalPlanner/core/state"
	"github.com/mudler/LocalPlanner/core/wizard"
)

func (app *App) registerRoutes(pool *state.AgentPool, webapp *fiber.App) {
	if len(app.config.ApiKeys) > 0 {
		kaConfig, err := GetKeyAuthConfig(app.config.ApiKeys)
		if err != nil || kaConfig == nil {
			panic(err)
		}
		webapp.Use(v2keyauth.New(*kaConfig))
	}

	webapp.Get("/sse", func(c *fiber.Ctx) error {
		app.sse.Handle(c, sse.NewClient(uuid.New().String()))
		return nil
	})

	// Dashboard
	webapp.Get("/api/agents", app.ListAgents(pool))
	webapp.Post("/api/agents", app.Create(pool))
	webapp.Get("/api/agents/:id", app.GetAgent(pool))
	webapp.Put("/api/agents/:id/toggle", app.Toggle(pool))
	webapp.Delete("/api/agents/:id", app.Delete(pool))

	// Workspace
	webapp.Post("/api/agents/:id/chat", app.Chat(pool))
	webapp.Post("/api/agents/:id/tasks/:task/complete", app.CompleteTask(pool))
	webapp.Get("/api/agents/:id/tasks/:task/runs", app.TaskRuns(pool))
	webapp.Get("/api/workspace", app.Workspace(pool))
	webapp.Put("/api/workspace/:id", app.Select(pool))
	webapp.Delete("/api/workspace", app.ClearSelection(pool))

	// Wizard
	webapp.Get("/api/wizard", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"steps": wizard.Form()})
	})
	webapp.Post("/api/wizard/validate", app.ValidateDraft())

	webapp.Get("/api/profile", func(c *fiber.Ctx) error {
		return c.JSON(app.config.Profile)
	})
}

func GetKeyAuthConfig(apiKeys []string) (*v2keyauth.Config, error) {
	customLookup, err := v2keyauth.MultipleKeySourceLookup([]string{"header:Authorization", "header:x-api-key", "cookie:token"}, keyauth.ConfigDefault.AuthScheme)
	if err != nil {
		return nil, err
	}

	return &v2keyauth.Config{
		CustomKeyLookup: customLookup,
		Next:            func(c *fiber.Ctx) bool { return false },
		Validator:       getApiKeyValidationFunction(apiKeys),
		ErrorHandler:    getApiKeyErrorHandler(apiKeys),
		AuthScheme:      "Bearer",
	}, nil
}

func getApiKeyErrorHandler(apiKeys []string) fiber.ErrorHandler {
	return func(ctx *fiber.Ctx, err error) error {
		if errors.Is(err, v2keyauth.ErrMissingOrMalformedAPIKey) {
			if len(apiKeys) == 0 {
				return ctx.Next()
			}
			ctx.Set("WWW-Authenticate", "Bearer")
			return errorJSONMessage(ctx, fiber.StatusUnauthorized, "Invalid or missing API key")
		}
		return err
	}
}

func getApiKeyValidationFunction(apiKeys []string) func(*fiber.Ctx, string) (bool, error) {
	return func(ctx *fiber.Ctx, apiKey string) (bool, error) {
		if len(apiKeys) == 0 {
			return true, nil
		}
		for _, validKey := range apiKeys {
			if subtle.ConstantTimeCompare([]byte(apiKey), []byte(validKey)) == 1 {
				return true, nil
			}
		}
		return false, v2keyauth.ErrMissingOrMalformedAPIKey
	}
}
