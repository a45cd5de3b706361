package webui

import (
	"time"

	"github.com/mudler/LocalPlanner/core/planner"
	"github.com/mudler/LocalPlanner/core/scheduler"
	"github.com/mudler/LocalPlanner/core/state"
	"github.com/mudler/LocalPlanner/core/types"
)

type Config struct {
	Pool      *state.AgentPool
	Planner   *planner.Generator
	Responder *planner.Responder
	Scheduler *scheduler.Scheduler
	Profile   types.UserProfile
	ApiKeys   []string
	Location  *time.Location
	Now       func() time.Time
}

type Option func(*Config)

func WithPool(pool *state.AgentPool) Option {
	return func(c *Config) {
		c.Pool = pool
	}
}

func WithPlanner(g *planner.Generator) Option {
	return func(c *Config) {
		c.Planner = g
	}
}

func WithResponder(r *planner.Responder) Option {
	return func(c *Config) {
		c.Responder = r
	}
}

// WithScheduler exposes the auto-executor run history.
func WithScheduler(s *scheduler.Scheduler) Option {
	return func(c *Config) {
		c.Scheduler = s
	}
}

func WithProfile(p types.UserProfile) Option {
	return func(c *Config) {
		c.Profile = p
	}
}

func WithApiKeys(keys ...string) Option {
	return func(c *Config) {
		c.ApiKeys = keys
	}
}

// WithLocation sets the zone used to decide whether a deadline is past.
func WithLocation(loc *time.Location) Option {
	return func(c *Config) {
		c.Location = loc
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Config) {
		c.Now = now
	}
}

func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}

func NewConfig(opts ...Option) *Config {
	c := &Config{
		Profile:  types.DefaultUserProfile(),
		Location: time.Local,
		Now:      time.Now,
	}
	c.Apply(opts...)
	return c
}
