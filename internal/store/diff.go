package store

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Joseda-hg/smarttodo/internal/model"
)

// taskDiff lists the user-visible fields that differ between before and after.
func taskDiff(before, after model.Task) map[string]model.Change {
	changes := map[string]model.Change{}
	if before.Title != after.Title {
		changes["title"] = model.Change{From: before.Title, To: after.Title}
	}
	if before.Description != after.Description {
		changes["description"] = model.Change{From: before.Description, To: after.Description}
	}
	if before.Status != after.Status {
		changes["status"] = model.Change{From: before.Status, To: after.Status}
	}
	if before.Priority != after.Priority {
		changes["priority"] = model.Change{From: before.Priority, To: after.Priority}
	}
	if formatDue(before.DueDate) != formatDue(after.DueDate) {
		changes["dueDate"] = model.Change{From: formatDue(before.DueDate), To: formatDue(after.DueDate)}
	}
	if formatTags(before.Tags) != formatTags(after.Tags) {
		changes["tags"] = model.Change{From: formatTags(before.Tags), To: formatTags(after.Tags)}
	}
	if before.Category != after.Category {
		changes["category"] = model.Change{From: valueOrNone(before.Category), To: valueOrNone(after.Category)}
	}
	if formatMinutes(before.EstimatedTime) != formatMinutes(after.EstimatedTime) {
		changes["estimatedTime"] = model.Change{From: formatMinutes(before.EstimatedTime), To: formatMinutes(after.EstimatedTime)}
	}
	if formatMinutes(before.ActualTime) != formatMinutes(after.ActualTime) {
		changes["actualTime"] = model.Change{From: formatMinutes(before.ActualTime), To: formatMinutes(after.ActualTime)}
	}
	if formatMinutes(before.ReminderTime) != formatMinutes(after.ReminderTime) {
		changes["reminderTime"] = model.Change{From: formatMinutes(before.ReminderTime), To: formatMinutes(after.ReminderTime)}
	}
	if before.Color != after.Color {
		changes["color"] = model.Change{From: valueOrNone(before.Color), To: valueOrNone(after.Color)}
	}
	if len(changes) == 0 {
		return nil
	}
	return changes
}

func valueOrNone(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "none"
	}
	return trimmed
}

func formatDue(value *time.Time) string {
	if value == nil {
		return "none"
	}
	return value.Format(time.RFC3339)
}

func formatMinutes(value *int) string {
	if value == nil {
		return "none"
	}
	return fmt.Sprintf("%dm", *value)
}

func formatTags(tags []string) string {
	if len(tags) == 0 {
		return "none"
	}
	names := append([]string(nil), tags...)
	sort.Strings(names)
	return strings.Join(names, ",")
}

// normalizeTags trims, drops empties and removes case-insensitive duplicates,
// keeping the first spelling.
func normalizeTags(tags []string) []string {
	seen := make(map[string]struct{})
	result := make([]string, 0, len(tags))
	for _, tag := range tags {
		trimmed := strings.TrimSpace(tag)
		if trimmed == "" {
			continue
		}
		lower := strings.ToLower(trimmed)
		if _, ok := seen[lower]; ok {
			continue
		}
		seen[lower] = struct{}{}
		result = append(result, trimmed)
	}
	return result
}
