package channel

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/agalitsyn/secret"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Joseda-hg/smarttodo/internal/model"
)

type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram sends reminders to a single chat through a bot.
type Telegram struct {
	api    telegramAPI
	chatID int64
	now    func() time.Time
}

func NewTelegram(token secret.String, chatID int64) (*Telegram, error) {
	if token.Unmask() == "" {
		return nil, errors.New("telegram: empty bot token")
	}
	if chatID == 0 {
		return nil, errors.New("telegram: chat id is required")
	}
	bot, err := tgbotapi.NewBotAPI(token.Unmask())
	if err != nil {
		return nil, fmt.Errorf("could not create telegram bot: %w", err)
	}
	return newTelegram(bot, chatID), nil
}

func newTelegram(api telegramAPI, chatID int64) *Telegram {
	return &Telegram{api: api, chatID: chatID, now: time.Now}
}

func (t *Telegram) Dispatch(ctx context.Context, task model.Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(t.chatID, ReminderText(task, t.now()))
	msg.DisableWebPagePreview = true
	if _, err := t.api.Send(msg); err != nil {
		return fmt.Errorf("telegram reminder for %s: %w", task.ID, err)
	}
	return nil
}
