package actions

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/mudler/LocalPlanner/pkg/xstrings"
)

const discordMaxMessageLength = 2000

// Discord posts reminders to a channel as a bot.
type Discord struct {
	session *discordgo.Session
	channel string
}

func NewDiscord(token, channel string) (*Discord, error) {
	if channel == "" {
		return nil, fmt.Errorf("discord notifier needs a channel")
	}
	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("error creating Discord session: %w", err)
	}
	return &Discord{session: dg, channel: channel}, nil
}

func (d *Discord) Name() string { return "discord" }

func (d *Discord) Notify(ctx context.Context, n Notification) error {
	content := xstrings.Truncate(fmt.Sprintf("**%s**\n%s", n.Subject, n.Body), discordMaxMessageLength)
	_, err := d.session.ChannelMessageSend(d.channel, content, discordgo.WithContext(ctx))
	return err
}
