package actions

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/mudler/LocalPlanner/pkg/xstrings"
)

const telegramMaxMessageLength = 4096

// Telegram sends reminders to a single chat through a bot.
type Telegram struct {
	bot    *bot.Bot
	chatID int64
}

func NewTelegram(token string, chatID int64) (*Telegram, error) {
	if chatID == 0 {
		return nil, fmt.Errorf("telegram notifier needs a chat id")
	}
	b, err := bot.New(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	return &Telegram{bot: b, chatID: chatID}, nil
}

func (t *Telegram) Name() string { return "telegram" }

func (t *Telegram) Notify(ctx context.Context, n Notification) error {
	_, err := t.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: t.chatID,
		Text:   xstrings.Truncate(n.Body, telegramMaxMessageLength),
	})
	return err
}
