package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Joseda-hg/smarttodo/internal/model"
)

type tagCountEntry struct {
	Name  string
	Count int
}

// listRow is one line of a task pane: a task, or one of its subtasks when
// the task is expanded.
type listRow struct {
	Task    model.Task
	Subtask *model.SubTask
}

func formatTags(tags []string) string {
	if len(tags) == 0 {
		return "no tags"
	}
	return strings.Join(tags, ",")
}

func formatDue(due *time.Time) string {
	if due == nil {
		return "n/a"
	}
	if due.Hour() == 0 && due.Minute() == 0 {
		return due.Format("2006-01-02")
	}
	return due.Format("2006-01-02 15:04")
}

func formatTaskSummary(task model.Task, now time.Time) string {
	parts := []string{task.Title, string(task.Status), string(task.Priority)}
	if task.DueDate != nil {
		parts = append(parts, "due "+formatDue(task.DueDate))
	}
	if n := len(task.Subtasks); n > 0 {
		done := 0
		for _, sub := range task.Subtasks {
			if sub.Completed {
				done++
			}
		}
		parts = append(parts, fmt.Sprintf("%d/%d", done, n))
	}
	if len(task.Tags) > 0 {
		parts = append(parts, formatTags(task.Tags))
	}
	summary := strings.Join(parts, " | ")
	if !task.IsCompleted() && task.DueDate != nil && task.DueDate.Before(now) {
		summary = "! " + summary
	}
	return summary
}

func formatSubtask(sub model.SubTask) string {
	mark := " "
	if sub.Completed {
		mark = "x"
	}
	return fmt.Sprintf("[%s] %s", mark, sub.Title)
}

// sortOpen orders open tasks by priority, then by due date with undated
// tasks last, then by creation time.
func sortOpen(tasks []model.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		if a.Priority.Rank() != b.Priority.Rank() {
			return a.Priority.Rank() < b.Priority.Rank()
		}
		switch {
		case a.DueDate != nil && b.DueDate != nil && !a.DueDate.Equal(*b.DueDate):
			return a.DueDate.Before(*b.DueDate)
		case a.DueDate != nil && b.DueDate == nil:
			return true
		case a.DueDate == nil && b.DueDate != nil:
			return false
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
}

// buildRows flattens tasks into pane rows, listing the subtasks of every
// expanded task beneath it.
func buildRows(tasks []model.Task, expanded map[string]bool) []listRow {
	rows := make([]listRow, 0, len(tasks))
	for _, task := range tasks {
		rows = append(rows, listRow{Task: task})
		if !expanded[task.ID] {
			continue
		}
		for i := range task.Subtasks {
			sub := task.Subtasks[i]
			rows = append(rows, listRow{Task: task, Subtask: &sub})
		}
	}
	return rows
}

func countTags(tasks []model.Task) []tagCountEntry {
	counts := make(map[string]int)
	for _, task := range tasks {
		for _, tag := range task.Tags {
			counts[tag]++
		}
	}
	entries := make([]tagCountEntry, 0, len(counts))
	for name, count := range counts {
		entries = append(entries, tagCountEntry{Name: name, Count: count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count == entries[j].Count {
			return entries[i].Name < entries[j].Name
		}
		return entries[i].Count > entries[j].Count
	})
	return entries
}

func matchesQuery(task model.Task, query string) bool {
	if query == "" {
		return true
	}
	query = strings.ToLower(query)
	if strings.Contains(strings.ToLower(task.Title), query) ||
		strings.Contains(strings.ToLower(task.Description), query) ||
		strings.Contains(strings.ToLower(task.Category), query) {
		return true
	}
	for _, tag := range task.Tags {
		if strings.Contains(strings.ToLower(tag), query) {
			return true
		}
	}
	return false
}

func hasAllTags(task model.Task, tags []string) bool {
	for _, tag := range tags {
		if !task.HasTag(tag) {
			return false
		}
	}
	return true
}

func formatChanges(changes map[string]model.Change) string {
	if len(changes) == 0 {
		return ""
	}
	fields := make([]string, 0, len(changes))
	for field := range changes {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		change := changes[field]
		parts = append(parts, fmt.Sprintf("%s: %v -> %v", field, change.From, change.To))
	}
	return strings.Join(parts, "; ")
}
