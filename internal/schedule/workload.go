package schedule

import (
	"fmt"
	"time"

	"github.com/Joseda-hg/smarttodo/internal/model"
)

type Load string

const (
	LoadLow    Load = "low"
	LoadMedium Load = "medium"
	LoadHigh   Load = "high"
)

const (
	highLoadMinutes   = 6 * 60
	mediumLoadMinutes = 3 * 60
)

type DayLoad struct {
	Date    time.Time `json:"date"`
	Day     string    `json:"day"`
	Tasks   int       `json:"tasks"`
	Minutes int       `json:"minutes"`
	Load    Load      `json:"load"`
}

type Suggestion struct {
	Type     string         `json:"type"`
	Message  string         `json:"message"`
	Action   string         `json:"action"`
	Priority model.Priority `json:"priority"`
}

// WeeklyWorkload returns seven consecutive days starting at weekStart.
// Completed tasks do not count towards load.
func WeeklyWorkload(tasks []model.Task, weekStart time.Time) []DayLoad {
	open := make([]model.Task, 0, len(tasks))
	for _, task := range tasks {
		if !task.IsCompleted() {
			open = append(open, task)
		}
	}

	start := StartOfDay(weekStart)
	week := make([]DayLoad, 0, 7)
	for i := 0; i < 7; i++ {
		day := start.AddDate(0, 0, i)
		minutes := Workload(open, day)
		week = append(week, DayLoad{
			Date:    day,
			Day:     day.Weekday().String(),
			Tasks:   len(DueOn(open, day)),
			Minutes: minutes,
			Load:    loadFor(minutes),
		})
	}
	return week
}

// Balance suggests how to even out an overloaded week.
func Balance(week []DayLoad) []Suggestion {
	suggestions := []Suggestion{}
	if len(week) == 0 {
		return suggestions
	}

	lightest := week[0]
	for _, day := range week[1:] {
		if day.Minutes < lightest.Minutes {
			lightest = day
		}
	}

	for _, day := range week {
		if day.Load != LoadHigh {
			continue
		}
		suggestions = append(suggestions, Suggestion{
			Type:     "rebalance",
			Message:  fmt.Sprintf("%s is overloaded (%s). Consider moving a task to %s.", day.Day, formatMinutes(day.Minutes), lightest.Day),
			Action:   "redistribute",
			Priority: model.PriorityHigh,
		})
		suggestions = append(suggestions, Suggestion{
			Type:     "break",
			Message:  fmt.Sprintf("You have %s of work on %s. Schedule breaks every 90 minutes.", formatMinutes(day.Minutes), day.Day),
			Action:   "schedule_breaks",
			Priority: model.PriorityMedium,
		})
	}

	for _, day := range week {
		if day.Tasks >= 3 && day.Load != LoadHigh {
			suggestions = append(suggestions, Suggestion{
				Type:     "focus",
				Message:  fmt.Sprintf("Group similar tasks together on %s to improve focus.", day.Day),
				Action:   "batch_tasks",
				Priority: model.PriorityLow,
			})
		}
	}
	return suggestions
}

func loadFor(minutes int) Load {
	switch {
	case minutes >= highLoadMinutes:
		return LoadHigh
	case minutes >= mediumLoadMinutes:
		return LoadMedium
	default:
		return LoadLow
	}
}

func formatMinutes(minutes int) string {
	if minutes%60 == 0 {
		return fmt.Sprintf("%dh", minutes/60)
	}
	return fmt.Sprintf("%dh%02dm", minutes/60, minutes%60)
}
