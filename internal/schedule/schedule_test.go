package schedule

import (
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Joseda-hg/smarttodo/internal/model"
)

var day = time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)

func at(hour, minute int) *time.Time {
	t := day.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
	return &t
}

func task(id string, priority model.Priority, due *time.Time, estimate int) model.Task {
	tk := model.Task{ID: id, Title: id, Priority: priority, DueDate: due, Status: model.StatusPending}
	if estimate > 0 {
		tk.EstimatedTime = model.IntPtr(estimate)
	}
	return tk
}

func TestWorkloadSumsEstimatesWithDefault(t *testing.T) {
	nextDay := day.AddDate(0, 0, 1)
	tasks := []model.Task{
		task("a", model.PriorityLow, at(9, 0), 45),
		task("b", model.PriorityHigh, at(14, 0), 0),
		task("c", model.PriorityHigh, &nextDay, 120),
		task("d", model.PriorityHigh, nil, 60),
	}

	assert.Equal(t, 75, Workload(tasks, day))

	reversed := []model.Task{tasks[3], tasks[2], tasks[1], tasks[0]}
	assert.Equal(t, Workload(tasks, day), Workload(reversed, day))
}

func TestTimeBlocksOrderByPriorityWithBuffer(t *testing.T) {
	tasks := []model.Task{
		task("low", model.PriorityLow, at(7, 0), 0),
		task("urgent", model.PriorityUrgent, at(18, 0), 60),
		task("medium-1", model.PriorityMedium, at(12, 0), 15),
		task("medium-2", model.PriorityMedium, at(11, 0), 0),
	}

	blocks := TimeBlocks(tasks, day)
	require.Len(t, blocks, 4)

	ids := []string{blocks[0].TaskID, blocks[1].TaskID, blocks[2].TaskID, blocks[3].TaskID}
	assert.Equal(t, []string{"urgent", "medium-1", "medium-2", "low"}, ids)

	assert.Equal(t, *at(9, 0), blocks[0].Start)
	assert.Equal(t, *at(10, 0), blocks[0].End)
	assert.Equal(t, *at(10, 5), blocks[1].Start)
	assert.Equal(t, *at(10, 20), blocks[1].End)
	assert.Equal(t, *at(10, 25), blocks[2].Start)
	assert.Equal(t, *at(10, 55), blocks[2].End)
	assert.Equal(t, *at(11, 0), blocks[3].Start)
}

func TestFindTimeConflictsIsSymmetric(t *testing.T) {
	a := task("a", model.PriorityHigh, at(10, 0), 60)
	b := task("b", model.PriorityHigh, at(10, 30), 30)
	c := task("c", model.PriorityHigh, at(11, 0), 30)

	assert.Len(t, FindTimeConflicts([]model.Task{a, b}), 1)
	assert.Len(t, FindTimeConflicts([]model.Task{b, a}), 1)

	// Touching intervals do not overlap.
	assert.Empty(t, FindTimeConflicts([]model.Task{a, c}))
	assert.Empty(t, FindTimeConflicts([]model.Task{c, a}))

	conflict := FindTimeConflicts([]model.Task{a, b})[0]
	assert.Equal(t, 30*time.Minute, conflict.Overlap)
}

func TestFindTimeConflictsIgnoresOtherDaysAndUndated(t *testing.T) {
	nextDay := day.AddDate(0, 0, 1).Add(10 * time.Hour)
	tasks := []model.Task{
		task("a", model.PriorityHigh, at(10, 0), 60),
		task("b", model.PriorityHigh, &nextDay, 60),
		task("c", model.PriorityHigh, nil, 60),
	}
	assert.Empty(t, FindTimeConflicts(tasks))
}

func TestSuggestOptimalTimeDefaultsToNine(t *testing.T) {
	candidate := task("new", model.PriorityMedium, nil, 60)
	got := SuggestOptimalTime(candidate, nil, day)
	assert.Equal(t, *at(9, 0), got)
}

func TestSuggestOptimalTimeAvoidsBusyMorning(t *testing.T) {
	existing := []model.Task{
		task("a", model.PriorityHigh, at(8, 0), 240),
	}
	candidate := task("new", model.PriorityMedium, nil, 60)

	got := SuggestOptimalTime(candidate, existing, day)
	assert.Equal(t, *at(12, 0), got)
}

func TestSuggestOptimalTimeIgnoresItsOwnCurrentSlot(t *testing.T) {
	current := task("self", model.PriorityMedium, at(9, 0), 60)
	got := SuggestOptimalTime(current, []model.Task{current}, day)
	assert.Equal(t, *at(9, 0), got)
}

func TestProductivityScore(t *testing.T) {
	completedAt := day.Add(16 * time.Hour)
	done := task("a", model.PriorityHigh, at(10, 0), 0)
	done.Status = model.StatusCompleted
	done.CompletedAt = &completedAt

	tasks := []model.Task{
		done,
		task("b", model.PriorityHigh, at(11, 0), 0),
		task("c", model.PriorityHigh, at(12, 0), 0),
	}
	assert.Equal(t, 33, ProductivityScore(tasks, day))
	assert.Equal(t, 0, ProductivityScore(tasks, day.AddDate(0, 0, 5)))
}

func TestHeuristicsDoNotMutateInputs(t *testing.T) {
	tasks := []model.Task{
		task("low", model.PriorityLow, at(10, 0), 0),
		task("urgent", model.PriorityUrgent, at(10, 15), 60),
	}
	before := make([]model.Task, len(tasks))
	for i := range tasks {
		before[i] = tasks[i].Clone()
	}

	first := TimeBlocks(tasks, day)
	_ = FindTimeConflicts(tasks)
	_ = SuggestOptimalTime(tasks[0], tasks, day)
	_ = Workload(tasks, day)
	second := TimeBlocks(tasks, day)

	assert.True(t, reflect.DeepEqual(before, tasks))
	assert.Equal(t, first, second)
}

func TestWeeklyWorkloadAndBalance(t *testing.T) {
	monday := day
	tasks := []model.Task{
		task("a", model.PriorityHigh, at(9, 0), 240),
		task("b", model.PriorityHigh, at(13, 0), 180),
	}
	tuesday := monday.AddDate(0, 0, 1).Add(9 * time.Hour)
	for _, id := range []string{"c", "d", "e"} {
		tasks = append(tasks, task(id, model.PriorityLow, &tuesday, 20))
	}
	done := task("f", model.PriorityLow, &tuesday, 600)
	done.Status = model.StatusCompleted
	tasks = append(tasks, done)

	week := WeeklyWorkload(tasks, monday)
	require.Len(t, week, 7)
	assert.Equal(t, "Monday", week[0].Day)
	assert.Equal(t, 420, week[0].Minutes)
	assert.Equal(t, LoadHigh, week[0].Load)
	assert.Equal(t, 3, week[1].Tasks)
	assert.Equal(t, LoadLow, week[1].Load)

	suggestions := Balance(week)
	types := make([]string, 0, len(suggestions))
	for _, s := range suggestions {
		types = append(types, s.Type)
	}
	assert.Equal(t, []string{"rebalance", "break", "focus"}, types)
	assert.Contains(t, suggestions[0].Message, "Wednesday")
}
