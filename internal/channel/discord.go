package channel

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/agalitsyn/secret"
	"github.com/bwmarrin/discordgo"

	"github.com/Joseda-hg/smarttodo/internal/model"
)

type discordAPI interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Discord posts reminders to one channel over the REST API. No gateway
// connection is opened.
type Discord struct {
	api       discordAPI
	channelID string
	now       func() time.Time
}

func NewDiscord(token secret.String, channelID string) (*Discord, error) {
	if token.Unmask() == "" {
		return nil, errors.New("discord: empty bot token")
	}
	if channelID == "" {
		return nil, errors.New("discord: channel id is required")
	}
	session, err := discordgo.New("Bot " + token.Unmask())
	if err != nil {
		return nil, fmt.Errorf("could not create discord session: %w", err)
	}
	return newDiscord(session, channelID), nil
}

func newDiscord(api discordAPI, channelID string) *Discord {
	return &Discord{api: api, channelID: channelID, now: time.Now}
}

func (d *Discord) Dispatch(ctx context.Context, task model.Task) error {
	_, err := d.api.ChannelMessageSend(d.channelID, ReminderText(task, d.now()), discordgo.WithContext(ctx))
	if err != nil {
		if IsPermanent(err) {
			return fmt.Errorf("discord rejected reminder for %s: %w", task.ID, err)
		}
		return fmt.Errorf("discord reminder for %s: %w", task.ID, err)
	}
	return nil
}

// IsPermanent reports whether Discord refused the request with a 4xx status.
// Retrying such a request within the reminder window cannot succeed.
func IsPermanent(err error) bool {
	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) || restErr.Response == nil {
		return false
	}
	code := restErr.Response.StatusCode
	return code >= http.StatusBadRequest && code < http.StatusInternalServerError
}
