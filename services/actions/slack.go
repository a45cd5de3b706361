package actions

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"
)

// Slack posts reminders to a channel.
type Slack struct {
	api     *slack.Client
	channel string
}

func NewSlack(token, channel string) (*Slack, error) {
	if token == "" || channel == "" {
		return nil, fmt.Errorf("slack notifier needs a token and a channel")
	}
	return &Slack{api: slack.New(token), channel: channel}, nil
}

func (s *Slack) Name() string { return "slack" }

func (s *Slack) Notify(ctx context.Context, n Notification) error {
	_, _, err := s.api.PostMessageContext(ctx, s.channel,
		slack.MsgOptionText(fmt.Sprintf("*%s*\n%s", n.Subject, n.Body), false),
	)
	return err
}
