// Package channel delivers task reminders to chat services.
package channel

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/Joseda-hg/smarttodo/internal/model"
)

var title = cases.Title(language.English)

// ReminderText renders the plain text body shared by the chat channels.
func ReminderText(task model.Task, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "⏰ Reminder: %s\n", task.Title)
	if task.DueDate != nil {
		fmt.Fprintf(&b, "Due: %s (%s)\n", task.DueDate.Local().Format("Mon Jan 2 15:04"), relative(*task.DueDate, now))
	}
	if task.Priority != "" {
		fmt.Fprintf(&b, "Priority: %s\n", title.String(string(task.Priority)))
	}
	if task.Category != "" {
		fmt.Fprintf(&b, "Category: %s\n", task.Category)
	}
	if len(task.Tags) > 0 {
		fmt.Fprintf(&b, "Tags: %s\n", strings.Join(task.Tags, ", "))
	}
	return strings.TrimRight(b.String(), "\n")
}

func relative(due, now time.Time) string {
	d := due.Sub(now).Round(time.Minute)
	switch {
	case d == 0:
		return "now"
	case d > 0:
		return "in " + shortDuration(d)
	default:
		return shortDuration(-d) + " ago"
	}
}

func shortDuration(d time.Duration) string {
	if d < time.Hour {
		return fmt.Sprintf("%d min", int(d.Minutes()))
	}
	h := int(d.Hours())
	if m := int(d.Minutes()) % 60; m > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%dh", h)
}
