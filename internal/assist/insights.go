package assist

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/Joseda-hg/smarttodo/internal/model"
	"github.com/Joseda-hg/smarttodo/internal/schedule"
)

type Insight struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

const (
	undatedThreshold    = 5
	completionThreshold = 0.8
)

// Insights flags overdue work, many undated tasks and a high completion rate.
func Insights(tasks []model.Task, now time.Time) []Insight {
	insights := []Insight{}

	overdue, undated, completed := 0, 0, 0
	for _, task := range tasks {
		if task.IsCompleted() {
			completed++
			continue
		}
		if task.DueDate == nil {
			undated++
		} else if task.DueDate.Before(now) {
			overdue++
		}
	}

	if overdue > 0 {
		insights = append(insights, Insight{
			Type:    "warning",
			Message: fmt.Sprintf("You have %d overdue task(s). Consider rescheduling or prioritizing them.", overdue),
		})
	}
	if undated > undatedThreshold {
		insights = append(insights, Insight{
			Type:    "suggestion",
			Message: fmt.Sprintf("%d tasks don't have due dates. Adding deadlines can improve completion rates.", undated),
		})
	}
	if len(tasks) > 0 {
		rate := float64(completed) / float64(len(tasks))
		if rate > completionThreshold {
			insights = append(insights, Insight{
				Type:    "tip",
				Message: fmt.Sprintf("Great job! You've completed %d%% of your tasks. Keep up the momentum!", int(rate*100)),
			})
		}
	}
	return insights
}

type Stats struct {
	Total                 int `json:"total"`
	Completed             int `json:"completed"`
	Pending               int `json:"pending"`
	InProgress            int `json:"inProgress"`
	Overdue               int `json:"overdue"`
	CompletionRate        int `json:"completionRate"`
	AverageCompletionTime int `json:"averageCompletionTime"` // minutes from creation to completion
	ProductivityScore     int `json:"productivityScore"`
}

func ComputeStats(tasks []model.Task, now time.Time) Stats {
	stats := Stats{Total: len(tasks)}
	var completionMinutes float64
	for _, task := range tasks {
		switch task.Status {
		case model.StatusCompleted:
			stats.Completed++
			if task.CompletedAt != nil {
				completionMinutes += task.CompletedAt.Sub(task.CreatedAt).Minutes()
			}
		case model.StatusInProgress:
			stats.InProgress++
		default:
			stats.Pending++
		}
		if !task.IsCompleted() && task.DueDate != nil && task.DueDate.Before(now) {
			stats.Overdue++
		}
	}
	if stats.Total > 0 {
		stats.CompletionRate = int(math.Round(float64(stats.Completed) / float64(stats.Total) * 100))
	}
	if stats.Completed > 0 {
		stats.AverageCompletionTime = int(math.Round(completionMinutes / float64(stats.Completed)))
	}
	stats.ProductivityScore = schedule.ProductivityScore(tasks, now)
	return stats
}

type DayPerformance struct {
	Day       string `json:"day"`
	Completed int    `json:"tasksCompleted"`
}

type CategoryPerformance struct {
	Category       string `json:"category"`
	CompletionRate int    `json:"completionRate"`
	AverageMinutes int    `json:"avgTime"`
}

type Patterns struct {
	BestDays   []DayPerformance      `json:"bestDays"`
	Categories []CategoryPerformance `json:"categoryPerformance"`
}

// ComputePatterns summarizes completions per weekday and completion rate per
// category, busiest weekday and best category first.
func ComputePatterns(tasks []model.Task) Patterns {
	byDay := map[time.Weekday]int{}
	type categoryTotals struct {
		total, completed, minutes, timed int
	}
	byCategory := map[string]*categoryTotals{}

	for _, task := range tasks {
		name := task.Category
		if name == "" {
			name = "Uncategorized"
		}
		totals := byCategory[name]
		if totals == nil {
			totals = &categoryTotals{}
			byCategory[name] = totals
		}
		totals.total++
		if !task.IsCompleted() {
			continue
		}
		totals.completed++
		if task.ActualTime != nil {
			totals.minutes += *task.ActualTime
			totals.timed++
		}
		if task.CompletedAt != nil {
			byDay[task.CompletedAt.Weekday()]++
		}
	}

	patterns := Patterns{BestDays: []DayPerformance{}, Categories: []CategoryPerformance{}}
	for day := time.Sunday; day <= time.Saturday; day++ {
		if n := byDay[day]; n > 0 {
			patterns.BestDays = append(patterns.BestDays, DayPerformance{Day: day.String(), Completed: n})
		}
	}
	sort.SliceStable(patterns.BestDays, func(i, j int) bool {
		return patterns.BestDays[i].Completed > patterns.BestDays[j].Completed
	})

	for name, totals := range byCategory {
		perf := CategoryPerformance{
			Category:       name,
			CompletionRate: int(math.Round(float64(totals.completed) / float64(totals.total) * 100)),
		}
		if totals.timed > 0 {
			perf.AverageMinutes = totals.minutes / totals.timed
		}
		patterns.Categories = append(patterns.Categories, perf)
	}
	sort.Slice(patterns.Categories, func(i, j int) bool {
		a, b := patterns.Categories[i], patterns.Categories[j]
		if a.CompletionRate != b.CompletionRate {
			return a.CompletionRate > b.CompletionRate
		}
		return a.Category < b.Category
	})
	return patterns
}
