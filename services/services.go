// Package services assembles the application from its configuration: the
// store, the agent pool, the model backend and the auto-executor.
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/mudler/LocalPlanner/core/planner"
	"github.com/mudler/LocalPlanner/core/scheduler"
	"github.com/mudler/LocalPlanner/core/state"
	"github.com/mudler/LocalPlanner/core/storage"
	"github.com/mudler/LocalPlanner/core/types"
	"github.com/mudler/LocalPlanner/pkg/config"
	"github.com/mudler/LocalPlanner/pkg/llm"
	"github.com/mudler/LocalPlanner/services/actions"
	"github.com/mudler/xlog"
)

type Services struct {
	Config   config.Config
	Profile  types.UserProfile
	Location *time.Location
	Store    storage.Store
	Pool     *state.AgentPool

	Model     llm.Model
	Planner   *planner.Generator
	Responder *planner.Responder
	Scheduler *scheduler.Scheduler
}

// New opens the store and loads the agent pool. The model backend is
// only built by WithModel, so that offline commands work without it.
func New(ctx context.Context, cfg config.Config, poolOpts ...state.Option) (*Services, error) {
	profile, err := cfg.Profile()
	if err != nil {
		return nil, err
	}

	store, err := cfg.OpenStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open store %q: %w", cfg.Store, err)
	}

	return &Services{
		Config:   cfg,
		Profile:  profile,
		Location: config.Location(profile),
		Store:    store,
		Pool:     state.NewAgentPool(ctx, store, poolOpts...),
	}, nil
}

// WithModel builds the model backend with the plan generator and the chat
// responder on top of it.
func (s *Services) WithModel(ctx context.Context) error {
	model, err := s.Config.NewModel(ctx)
	if err != nil {
		return err
	}
	s.Model = model
	s.Planner = planner.NewGenerator(model)
	s.Responder = planner.NewResponder(model)
	xlog.Info("Model backend ready", "backend", s.Config.Backend, "model", s.Config.Model)
	return nil
}

// StartScheduler starts the auto-executor with every configured notifier.
func (s *Services) StartScheduler(ctx context.Context) error {
	notifiers, err := Notifiers(s.Config.Notifiers)
	if err != nil {
		return err
	}
	runner := actions.NewRunner(notifiers...)

	opts := []scheduler.Option{
		scheduler.WithLocation(s.Location),
		scheduler.WithRunner(runner),
	}
	if s.Config.Schedule != "" {
		opts = append(opts, scheduler.WithSchedule(s.Config.Schedule))
	}

	sched, err := scheduler.NewScheduler(s.Pool, scheduler.NewRunLog(ctx, s.Store), opts...)
	if err != nil {
		return err
	}
	if err := sched.Start(); err != nil {
		return err
	}
	s.Scheduler = sched
	xlog.Info("Notifiers configured", "notifiers", runner.Notifiers())
	return nil
}

// Notifiers builds a notifier for every channel with credentials.
func Notifiers(c config.NotifierConfig) ([]actions.Notifier, error) {
	var notifiers []actions.Notifier

	if c.SMTPServer != "" {
		email, err := actions.NewEmail(actions.EmailConfig{
			Server:   c.SMTPServer,
			Username: c.SMTPUsername,
			Password: c.SMTPPassword,
			From:     c.SMTPFrom,
			To:       c.SMTPTo,
			Insecure: c.SMTPInsecure,
		})
		if err != nil {
			return nil, err
		}
		notifiers = append(notifiers, email)
	}
	if c.TelegramToken != "" {
		t, err := actions.NewTelegram(c.TelegramToken, c.TelegramChatID)
		if err != nil {
			return nil, err
		}
		notifiers = append(notifiers, t)
	}
	if c.SlackToken != "" {
		sl, err := actions.NewSlack(c.SlackToken, c.SlackChannel)
		if err != nil {
			return nil, err
		}
		notifiers = append(notifiers, sl)
	}
	if c.DiscordToken != "" {
		d, err := actions.NewDiscord(c.DiscordToken, c.DiscordChannel)
		if err != nil {
			return nil, err
		}
		notifiers = append(notifiers, d)
	}
	if c.WebhookURL != "" {
		notifiers = append(notifiers, actions.NewWebhook(c.WebhookURL))
	}
	return notifiers, nil
}

// Close stops the auto-executor, cancels pending removals and releases
// the store.
func (s *Services) Close() error {
	if s.Scheduler != nil {
		s.Scheduler.Stop()
	}
	s.Pool.Close()
	return s.Store.Close()
}
