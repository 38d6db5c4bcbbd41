package notify

import (
	"fmt"
	"sort"
	"time"

	"github.com/Joseda-hg/smarttodo/internal/model"
)

// Plan computes the reminders still ahead of now for open tasks with a due
// date. A task's own reminder offset wins; otherwise smart per-priority
// offsets apply when enabled, else the default offsets. One reminder is
// produced per offset and enabled channel.
func Plan(tasks []model.Task, settings model.NotificationSettings, now time.Time) []model.Reminder {
	reminders := []model.Reminder{}
	if !settings.Enabled {
		return reminders
	}

	channels := []model.Channel{}
	if settings.Browser {
		channels = append(channels, model.ChannelBrowser)
	}
	if settings.Email && settings.EmailAddress != "" {
		channels = append(channels, model.ChannelEmail)
	}

	for _, task := range tasks {
		if task.IsCompleted() || task.DueDate == nil {
			continue
		}
		for _, offset := range offsetsFor(task, settings) {
			at := task.DueDate.Add(-time.Duration(offset) * time.Minute)
			if at.Before(now) {
				continue
			}
			for _, channel := range channels {
				reminders = append(reminders, model.Reminder{
					ID:           fmt.Sprintf("%s-%d-%s", task.ID, offset, channel),
					TaskID:       task.ID,
					ReminderTime: at,
					Type:         channel,
				})
			}
		}
	}

	sort.SliceStable(reminders, func(i, j int) bool {
		return reminders[i].ReminderTime.Before(reminders[j].ReminderTime)
	})
	return reminders
}

func offsetsFor(task model.Task, settings model.NotificationSettings) []int {
	if task.ReminderTime != nil {
		return []int{*task.ReminderTime}
	}
	if settings.SmartReminders {
		if offsets, ok := settings.PriorityReminderTimes[task.Priority]; ok && len(offsets) > 0 {
			return offsets
		}
	}
	return settings.DefaultReminderTimes
}
