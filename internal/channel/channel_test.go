package channel

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/agalitsyn/secret"
	"github.com/bwmarrin/discordgo"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Joseda-hg/smarttodo/internal/model"
)

var now = time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

type fakeTelegram struct {
	sent []tgbotapi.MessageConfig
	err  error
}

func (f *fakeTelegram) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if f.err != nil {
		return tgbotapi.Message{}, f.err
	}
	f.sent = append(f.sent, c.(tgbotapi.MessageConfig))
	return tgbotapi.Message{MessageID: len(f.sent)}, nil
}

type fakeDiscord struct {
	channel, content string
	err              error
}

func (f *fakeDiscord) ChannelMessageSend(channelID, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.channel, f.content = channelID, content
	return &discordgo.Message{ID: "m1"}, nil
}

func testTask() model.Task {
	due := now.Add(90 * time.Minute)
	return model.Task{
		ID:       "t1",
		Title:    "Submit report",
		Priority: model.PriorityHigh,
		DueDate:  &due,
		Category: "Work",
		Tags:     []string{"work", "urgent"},
	}
}

func TestReminderText(t *testing.T) {
	text := ReminderText(testTask(), now)
	assert.Contains(t, text, "⏰ Reminder: Submit report")
	assert.Contains(t, text, "(in 1h 30m)")
	assert.Contains(t, text, "Priority: High")
	assert.Contains(t, text, "Category: Work")
	assert.Contains(t, text, "Tags: work, urgent")

	past := now.Add(-5 * time.Minute)
	assert.Contains(t, ReminderText(model.Task{Title: "x", DueDate: &past}, now), "(5 min ago)")
	assert.Equal(t, "⏰ Reminder: bare", ReminderText(model.Task{Title: "bare"}, now))
}

func TestTelegramDispatch(t *testing.T) {
	api := &fakeTelegram{}
	tg := newTelegram(api, 42)
	tg.now = func() time.Time { return now }

	require.NoError(t, tg.Dispatch(context.Background(), testTask()))
	require.Len(t, api.sent, 1)
	assert.Equal(t, int64(42), api.sent[0].ChatID)
	assert.Contains(t, api.sent[0].Text, "Submit report")

	api.err = errors.New("bad gateway")
	err := tg.Dispatch(context.Background(), testTask())
	assert.ErrorIs(t, err, api.err)
}

func TestNewTelegramValidates(t *testing.T) {
	_, err := NewTelegram(secret.NewString(""), 1)
	assert.Error(t, err)
	_, err = NewTelegram(secret.NewString("token"), 0)
	assert.Error(t, err)
}

func TestDiscordDispatch(t *testing.T) {
	api := &fakeDiscord{}
	d := newDiscord(api, "chan-1")
	d.now = func() time.Time { return now }

	require.NoError(t, d.Dispatch(context.Background(), testTask()))
	assert.Equal(t, "chan-1", api.channel)
	assert.Contains(t, api.content, "Submit report")

	api.err = &discordgo.RESTError{Response: &http.Response{StatusCode: http.StatusForbidden}}
	err := d.Dispatch(context.Background(), testTask())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rejected")
}

func TestIsPermanent(t *testing.T) {
	assert.False(t, IsPermanent(errors.New("timeout")))
	assert.False(t, IsPermanent(&discordgo.RESTError{}))
	assert.False(t, IsPermanent(&discordgo.RESTError{Response: &http.Response{StatusCode: 502}}))
	assert.True(t, IsPermanent(&discordgo.RESTError{Response: &http.Response{StatusCode: 404}}))
}

func TestNewDiscordValidates(t *testing.T) {
	_, err := NewDiscord(secret.NewString(""), "c")
	assert.Error(t, err)
	_, err = NewDiscord(secret.NewString("token"), "")
	assert.Error(t, err)

	d, err := NewDiscord(secret.NewString("token"), "c")
	require.NoError(t, err)
	assert.NotNil(t, d)
}
