// Package schedule holds pure scheduling heuristics over task lists. None of
// the functions modify their inputs.
package schedule

import (
	"math"
	"sort"
	"time"

	"github.com/Joseda-hg/smarttodo/internal/model"
)

const (
	DefaultEstimate = 30 // minutes
	BlockBuffer     = 5 * time.Minute
	DayStartHour    = 9
	FirstSlotHour   = 8
	LastSlotHour    = 20
	baseScore       = 100
	conflictPenalty = 20
)

type TimeBlock struct {
	TaskID   string         `json:"taskId"`
	Title    string         `json:"title"`
	Priority model.Priority `json:"priority"`
	Start    time.Time      `json:"startTime"`
	End      time.Time      `json:"endTime"`
}

type Conflict struct {
	First   string        `json:"taskId1"`
	Second  string        `json:"taskId2"`
	Overlap time.Duration `json:"overlap"`
}

// SameDay reports whether t falls on the calendar day of day, in day's location.
func SameDay(t, day time.Time) bool {
	t = t.In(day.Location())
	y1, m1, d1 := t.Date()
	y2, m2, d2 := day.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

func StartOfDay(day time.Time) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, day.Location())
}

// DueOn returns the tasks due on day, keeping input order.
func DueOn(tasks []model.Task, day time.Time) []model.Task {
	result := []model.Task{}
	for _, task := range tasks {
		if task.DueDate != nil && SameDay(*task.DueDate, day) {
			result = append(result, task)
		}
	}
	return result
}

// Workload is the sum of estimated minutes of tasks due on day.
func Workload(tasks []model.Task, day time.Time) int {
	total := 0
	for _, task := range DueOn(tasks, day) {
		total += task.Estimate(DefaultEstimate)
	}
	return total
}

// TimeBlocks lays the day's tasks out back to back from 09:00, most pressing
// priority first, with a buffer between blocks.
func TimeBlocks(tasks []model.Task, day time.Time) []TimeBlock {
	dayTasks := DueOn(tasks, day)
	sort.SliceStable(dayTasks, func(i, j int) bool {
		return dayTasks[i].Priority.Rank() < dayTasks[j].Priority.Rank()
	})

	blocks := make([]TimeBlock, 0, len(dayTasks))
	cursor := StartOfDay(day).Add(DayStartHour * time.Hour)
	for _, task := range dayTasks {
		end := cursor.Add(time.Duration(task.Estimate(DefaultEstimate)) * time.Minute)
		blocks = append(blocks, TimeBlock{
			TaskID:   task.ID,
			Title:    task.Title,
			Priority: task.Priority,
			Start:    cursor,
			End:      end,
		})
		cursor = end.Add(BlockBuffer)
	}
	return blocks
}

// FindTimeConflicts reports every pair of same-day tasks whose
// [due, due+estimate) intervals overlap.
func FindTimeConflicts(tasks []model.Task) []Conflict {
	conflicts := []Conflict{}
	for i := 0; i < len(tasks); i++ {
		a := tasks[i]
		if a.DueDate == nil {
			continue
		}
		for j := i + 1; j < len(tasks); j++ {
			b := tasks[j]
			if b.DueDate == nil || !SameDay(*b.DueDate, *a.DueDate) {
				continue
			}
			start1, end1 := interval(a)
			start2, end2 := interval(b)
			if start1.Before(end2) && start2.Before(end1) {
				conflicts = append(conflicts, Conflict{
					First:   a.ID,
					Second:  b.ID,
					Overlap: minTime(end1, end2).Sub(maxTime(start1, start2)),
				})
			}
		}
	}
	return conflicts
}

// SuggestOptimalTime tries each whole hour from 08:00 to 20:00 on day and
// returns the slot with the fewest conflicts. 09:00 wins unless some hour
// scores strictly better; among better hours the earliest wins.
func SuggestOptimalTime(task model.Task, tasks []model.Task, day time.Time) time.Time {
	others := make([]model.Task, 0, len(tasks))
	for _, existing := range tasks {
		if existing.ID != task.ID || task.ID == "" {
			others = append(others, existing)
		}
	}

	base := StartOfDay(day)
	score := func(hour int) int {
		candidate := task.Clone()
		at := base.Add(time.Duration(hour) * time.Hour)
		candidate.DueDate = &at
		trial := append(append([]model.Task(nil), others...), candidate)
		return baseScore - conflictPenalty*len(FindTimeConflicts(trial))
	}

	bestHour := DayStartHour
	bestScore := score(DayStartHour)
	for hour := FirstSlotHour; hour <= LastSlotHour; hour++ {
		if s := score(hour); s > bestScore {
			bestHour, bestScore = hour, s
		}
	}
	return base.Add(time.Duration(bestHour) * time.Hour)
}

// ProductivityScore is the percentage of tasks completed on day over tasks
// due on day, rounded; 0 when nothing was due.
func ProductivityScore(tasks []model.Task, day time.Time) int {
	due := len(DueOn(tasks, day))
	if due == 0 {
		return 0
	}
	completed := 0
	for _, task := range tasks {
		if task.CompletedAt != nil && SameDay(*task.CompletedAt, day) {
			completed++
		}
	}
	return int(math.Round(float64(completed) / float64(due) * 100))
}

func interval(task model.Task) (time.Time, time.Time) {
	start := *task.DueDate
	return start, start.Add(time.Duration(task.Estimate(DefaultEstimate)) * time.Minute)
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}
