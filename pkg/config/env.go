// Package config reads the service configuration from LOCALPLANNER_*
// environment variables (a .env file is honoured) and builds the model
// backend, the store and the user profile from it.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/mudler/LocalPlanner/core/storage"
	"github.com/mudler/LocalPlanner/core/types"
	"github.com/mudler/LocalPlanner/pkg/llm"
	"gopkg.in/yaml.v3"
)

const (
	BackendOpenAI = "openai"
	BackendGemini = "gemini"
)

const (
	DefaultStore   = "file://./pool"
	DefaultAddress = ":3000"
	DefaultTimeout = "5m"
)

type Config struct {
	Backend      string
	Model        string
	ChatModel    string
	APIURL       string
	APIKey       string
	GeminiAPIKey string
	Timeout      string
	Store        string
	Address      string
	APIKeys      []string
	ProfilePath  string
	Schedule     string
	Notifiers    NotifierConfig
}

// NotifierConfig holds the channels auto-executed actions are delivered
// to. A channel is enabled by setting its credentials.
type NotifierConfig struct {
	SMTPServer     string
	SMTPUsername   string
	SMTPPassword   string
	SMTPFrom       string
	SMTPTo         []string
	SMTPInsecure   bool
	TelegramToken  string
	TelegramChatID int64
	SlackToken     string
	SlackChannel   string
	DiscordToken   string
	DiscordChannel string
	WebhookURL     string
}

// Load reads .env (when present) and then the environment. Variables
// already set in the environment win over .env entries.
func Load() Config {
	_ = godotenv.Load()

	c := Config{
		Backend:      strings.ToLower(os.Getenv("LOCALPLANNER_BACKEND")),
		Model:        os.Getenv("LOCALPLANNER_MODEL"),
		ChatModel:    os.Getenv("LOCALPLANNER_CHAT_MODEL"),
		APIURL:       os.Getenv("LOCALPLANNER_LLM_API_URL"),
		APIKey:       os.Getenv("LOCALPLANNER_LLM_API_KEY"),
		GeminiAPIKey: os.Getenv("LOCALPLANNER_GEMINI_API_KEY"),
		Timeout:      os.Getenv("LOCALPLANNER_TIMEOUT"),
		Store:        os.Getenv("LOCALPLANNER_STORE"),
		Address:      os.Getenv("LOCALPLANNER_ADDRESS"),
		ProfilePath:  os.Getenv("LOCALPLANNER_PROFILE"),
		Schedule:     os.Getenv("LOCALPLANNER_SCHEDULE"),
	}
	c.APIKeys = splitList(os.Getenv("LOCALPLANNER_API_KEYS"))
	c.Notifiers = NotifierConfig{
		SMTPServer:     os.Getenv("LOCALPLANNER_SMTP_SERVER"),
		SMTPUsername:   os.Getenv("LOCALPLANNER_SMTP_USERNAME"),
		SMTPPassword:   os.Getenv("LOCALPLANNER_SMTP_PASSWORD"),
		SMTPFrom:       os.Getenv("LOCALPLANNER_SMTP_FROM"),
		SMTPTo:         splitList(os.Getenv("LOCALPLANNER_SMTP_TO")),
		SMTPInsecure:   os.Getenv("LOCALPLANNER_SMTP_INSECURE") == "true",
		TelegramToken:  os.Getenv("LOCALPLANNER_TELEGRAM_TOKEN"),
		SlackToken:     os.Getenv("LOCALPLANNER_SLACK_TOKEN"),
		SlackChannel:   os.Getenv("LOCALPLANNER_SLACK_CHANNEL"),
		DiscordToken:   os.Getenv("LOCALPLANNER_DISCORD_TOKEN"),
		DiscordChannel: os.Getenv("LOCALPLANNER_DISCORD_CHANNEL"),
		WebhookURL:     os.Getenv("LOCALPLANNER_WEBHOOK_URL"),
	}
	if id := os.Getenv("LOCALPLANNER_TELEGRAM_CHAT_ID"); id != "" {
		// Validate reports a malformed id; zero disables the channel here.
		c.Notifiers.TelegramChatID, _ = strconv.ParseInt(id, 10, 64)
	}

	if c.Backend == "" {
		c.Backend = BackendOpenAI
		if c.GeminiAPIKey != "" && c.APIURL == "" {
			c.Backend = BackendGemini
		}
	}
	if c.Timeout == "" {
		c.Timeout = DefaultTimeout
	}
	if c.Store == "" {
		c.Store = DefaultStore
	}
	if c.Address == "" {
		c.Address = DefaultAddress
	}
	return c
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Validate reports settings the service cannot start without.
func (c Config) Validate() error {
	if _, err := time.ParseDuration(c.Timeout); err != nil {
		return fmt.Errorf("LOCALPLANNER_TIMEOUT: %w", err)
	}
	if c.Notifiers.TelegramToken != "" && c.Notifiers.TelegramChatID == 0 {
		return errors.New("LOCALPLANNER_TELEGRAM_CHAT_ID must be a numeric chat id")
	}
	switch c.Backend {
	case BackendOpenAI:
		if c.Model == "" {
			return errors.New("LOCALPLANNER_MODEL not set")
		}
		if c.APIURL == "" {
			return errors.New("LOCALPLANNER_LLM_API_URL not set")
		}
	case BackendGemini:
		if c.GeminiAPIKey == "" {
			return errors.New("LOCALPLANNER_GEMINI_API_KEY not set")
		}
	default:
		return fmt.Errorf("unknown LOCALPLANNER_BACKEND %q", c.Backend)
	}
	return nil
}

// NewModel builds the configured model backend.
func (c Config) NewModel(ctx context.Context) (llm.Model, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	switch c.Backend {
	case BackendGemini:
		return llm.NewGeminiModel(ctx, c.GeminiAPIKey, c.Model, c.ChatModel)
	default:
		client := llm.NewClient(c.APIKey, c.APIURL, c.Timeout)
		return llm.NewOpenAIModel(client, c.Model, c.ChatModel), nil
	}
}

func (c Config) OpenStore(ctx context.Context) (storage.Store, error) {
	return storage.Open(ctx, c.Store)
}

// Profile returns the user profile from LOCALPLANNER_PROFILE, or the
// built-in one when no file is configured.
func (c Config) Profile() (types.UserProfile, error) {
	if c.ProfilePath == "" {
		return types.DefaultUserProfile(), nil
	}
	return LoadProfile(c.ProfilePath)
}

// LoadProfile reads a YAML profile. Fields left out keep their built-in
// values.
func LoadProfile(path string) (types.UserProfile, error) {
	profile := types.DefaultUserProfile()
	raw, err := os.ReadFile(path)
	if err != nil {
		return profile, fmt.Errorf("read profile: %w", err)
	}
	if err := yaml.Unmarshal(raw, &profile); err != nil {
		return profile, fmt.Errorf("unmarshal profile: %w", err)
	}
	if _, err := time.LoadLocation(profile.Timezone); err != nil {
		return profile, fmt.Errorf("profile timezone %q: %w", profile.Timezone, err)
	}
	return profile, nil
}

// Location is the profile's time zone, falling back to the local one.
func Location(profile types.UserProfile) *time.Location {
	loc, err := time.LoadLocation(profile.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}
