// Package notify dispatches user-facing notifications outside the app
// itself. Dispatch is fire-and-forget: a failed notification is logged and
// dropped, never surfaced to the scheduler.
package notify

import (
	"go.uber.org/zap"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type Notifier interface {
	Notify(userID int64, title, body string)
}

// Noop is used when no notification channel is configured.
type Noop struct{}

func (Noop) Notify(int64, string, string) {}

// Telegram pushes reminder notifications through a bot chat. The user's
// chat ID doubles as the engine user ID, same convention as the rest of
// the product's telegram surface.
type Telegram struct {
	bot *tgbotapi.BotAPI
	log *zap.Logger
}

func NewTelegram(token string, log *zap.Logger) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return &Telegram{bot: bot, log: log}, nil
}

func (t *Telegram) Notify(userID int64, title, body string) {
	msg := tgbotapi.NewMessage(userID, title+"\n"+body)
	if _, err := t.bot.Send(msg); err != nil {
		t.log.Warn("notification dispatch failed",
			zap.Int64("user_id", userID), zap.Error(err))
	}
}
