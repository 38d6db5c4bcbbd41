// Package assist holds the keyword and rule based helpers behind the
// "smart" endpoints: task breakdown, deadline and schedule suggestions,
// insights and statistics. Everything here is pure.
package assist

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Joseda-hg/smarttodo/internal/model"
)

// MinutesPerSubtask is the estimate assigned to each suggested subtask.
const MinutesPerSubtask = 30

type BreakdownResult struct {
	Subtasks      []string `json:"subtasks"`
	EstimatedTime int      `json:"estimatedTime"`
	Suggestion    string   `json:"suggestion"`
}

var breakdownRules = []struct {
	keyword string
	steps   []string
}{
	{"project", []string{"Research and planning", "Design phase", "Implementation", "Testing", "Documentation"}},
	{"study", []string{"Read materials", "Take notes", "Create summary", "Practice problems", "Review"}},
	{"presentation", []string{"Research topic", "Create outline", "Design slides", "Practice delivery", "Prepare Q&A"}},
	{"report", []string{"Gather data", "Outline structure", "Write draft", "Review and edit", "Final formatting"}},
	{"exam", []string{"Review syllabus", "Study notes", "Practice questions", "Create cheat sheet", "Mock test"}},
}

var (
	writingSteps = []string{"Research and gather information", "Create outline or plan", "Complete first draft", "Review and revise"}
	genericSteps = []string{"Plan the approach", "Execute main tasks", "Review and finalize"}
)

// Breakdown splits a task into subtasks by the first keyword rule that
// matches the title or description.
func Breakdown(title, description string) BreakdownResult {
	combined := strings.ToLower(title + " " + description)

	steps := genericSteps
	matched := false
	for _, rule := range breakdownRules {
		if strings.Contains(combined, rule.keyword) {
			steps, matched = rule.steps, true
			break
		}
	}
	if !matched && (strings.Contains(combined, "write") || strings.Contains(combined, "create")) {
		steps = writingSteps
	}

	return BreakdownResult{
		Subtasks:      append([]string(nil), steps...),
		EstimatedTime: len(steps) * MinutesPerSubtask,
		Suggestion:    fmt.Sprintf("This task can be broken down into %d manageable steps.", len(steps)),
	}
}

type DeadlineSuggestion struct {
	Date       time.Time `json:"date"`
	Label      string    `json:"label"`
	Reason     string    `json:"reason"`
	Confidence int       `json:"confidence"`
}

// complexMinutes is the estimate above which deadlines are pushed back.
const complexMinutes = 240

// DeadlineSuggestions proposes two deadlines by priority tier. Tasks
// estimated over four hours get both pushed two days later.
func DeadlineSuggestions(priority model.Priority, estimatedMinutes int, now time.Time) []DeadlineSuggestion {
	day := 24 * time.Hour
	var suggestions []DeadlineSuggestion
	switch priority {
	case model.PriorityUrgent:
		suggestions = []DeadlineSuggestion{
			{now, "Today", "Urgent priority - immediate attention required", 95},
			{now.Add(4 * time.Hour), "In 4 hours", "Quick turnaround for urgent tasks", 90},
		}
	case model.PriorityHigh:
		suggestions = []DeadlineSuggestion{
			{now.Add(day), "Tomorrow", "High priority - schedule within 24 hours", 90},
			{now.Add(2 * day), "In 2 days", "Allows time for preparation", 85},
		}
	case model.PriorityLow:
		suggestions = []DeadlineSuggestion{
			{now.Add(7 * day), "Next week", "Low priority - can be scheduled flexibly", 75},
			{now.Add(14 * day), "In 2 weeks", "Extended timeline for low priority tasks", 70},
		}
	default:
		suggestions = []DeadlineSuggestion{
			{now.Add(3 * day), "In 3 days", "Balanced timeframe for medium priority", 85},
			{now.Add(7 * day), "Next week", "Comfortable timeline for planning", 80},
		}
	}

	if estimatedMinutes > complexMinutes {
		for i := range suggestions {
			suggestions[i].Reason += " (Complex task requires extra time)"
			suggestions[i].Date = suggestions[i].Date.Add(2 * day)
		}
	}
	return suggestions
}

type ScheduleSuggestion struct {
	Time   time.Time `json:"time"`
	Reason string    `json:"reason"`
	Score  int       `json:"score"`
}

// ScheduleSuggestions ranks start times from the task's priority and its
// study or work tags, returning the best three.
func ScheduleSuggestions(task model.Task, now time.Time) []ScheduleSuggestion {
	var suggestions []ScheduleSuggestion
	switch task.Priority {
	case model.PriorityUrgent:
		suggestions = append(suggestions, ScheduleSuggestion{now, "High priority task - schedule immediately", 100})
	case model.PriorityHigh:
		suggestions = append(suggestions, ScheduleSuggestion{now.Add(2 * time.Hour), "High priority - schedule within 2 hours", 90})
	default:
		suggestions = append(suggestions, ScheduleSuggestion{now.AddDate(0, 0, 1), "Normal priority - schedule for tomorrow", 70})
	}

	if task.HasTag("study") {
		suggestions = append(suggestions, ScheduleSuggestion{nextAt(now, 9), "Study tasks are best done in the morning when mind is fresh", 85})
	}
	if task.HasTag("work") {
		suggestions = append(suggestions, ScheduleSuggestion{nextAt(now, 10), "Work tasks fit best during standard working hours", 80})
	}

	sort.SliceStable(suggestions, func(i, j int) bool { return suggestions[i].Score > suggestions[j].Score })
	if len(suggestions) > 3 {
		suggestions = suggestions[:3]
	}
	return suggestions
}

// nextAt returns today at hour:00, or tomorrow when that has passed.
func nextAt(now time.Time, hour int) time.Time {
	y, m, d := now.Date()
	at := time.Date(y, m, d, hour, 0, 0, 0, now.Location())
	if at.Before(now) {
		at = at.AddDate(0, 0, 1)
	}
	return at
}
