package store

import (
	"context"
	"time"

	"github.com/Joseda-hg/smarttodo/internal/model"
)

// TaskPatch carries a partial update. Nil fields are left unchanged.
type TaskPatch struct {
	Title         *string                 `json:"title,omitempty"`
	Description   *string                 `json:"description,omitempty"`
	Status        *model.Status           `json:"status,omitempty"`
	Priority      *model.Priority         `json:"priority,omitempty"`
	DueDate       *time.Time              `json:"dueDate,omitempty"`
	ClearDueDate  bool                    `json:"clearDueDate,omitempty"`
	Tags          []string                `json:"tags,omitempty"`
	Category      *string                 `json:"category,omitempty"`
	EstimatedTime *int                    `json:"estimatedTime,omitempty"`
	ActualTime    *int                    `json:"actualTime,omitempty"`
	ReminderTime  *int                    `json:"reminderTime,omitempty"`
	Color         *string                 `json:"color,omitempty"`
	Recurring     *model.RecurringPattern `json:"recurring,omitempty"`
	Dependencies  []string                `json:"dependencies,omitempty"`
}

func (p TaskPatch) apply(task *model.Task) {
	if p.Title != nil {
		task.Title = *p.Title
	}
	if p.Description != nil {
		task.Description = *p.Description
	}
	if p.Priority != nil {
		task.Priority = *p.Priority
	}
	if p.ClearDueDate {
		task.DueDate = nil
	} else if p.DueDate != nil {
		task.DueDate = model.TimePtr(*p.DueDate)
	}
	if p.Tags != nil {
		task.Tags = normalizeTags(p.Tags)
	}
	if p.Category != nil {
		task.Category = *p.Category
	}
	if p.EstimatedTime != nil {
		task.EstimatedTime = model.IntPtr(*p.EstimatedTime)
	}
	if p.ActualTime != nil {
		task.ActualTime = model.IntPtr(*p.ActualTime)
	}
	if p.ReminderTime != nil {
		task.ReminderTime = model.IntPtr(*p.ReminderTime)
	}
	if p.Color != nil {
		task.Color = *p.Color
	}
	if p.Recurring != nil {
		rec := *p.Recurring
		task.Recurring = &rec
	}
	if p.Dependencies != nil {
		task.Dependencies = append([]string(nil), p.Dependencies...)
	}
}

// CreateTask commits a new task built from draft. Empty titles are accepted.
func (r *Repository) CreateTask(ctx context.Context, draft model.TaskDraft) model.Task {
	r.mu.Lock()
	now := r.now()
	task := r.taskFromDraft(draft, now)
	r.commitTasks(ctx, r.tasks.With(task))
	r.history.Add(ctx, task.ID, task.Title, model.ActionCreate, nil, nil)
	r.mu.Unlock()

	r.log.Logf("[DEBUG] store: created task %s", task.ID)
	r.emit([]Event{{Action: model.ActionCreate, Task: task.Clone()}})
	return task.Clone()
}

// UpdateTask applies patch to the task with id. It reports false when the
// task does not exist.
func (r *Repository) UpdateTask(ctx context.Context, id string, patch TaskPatch) (model.Task, bool) {
	return r.mutateTask(ctx, id, func(task *model.Task) bool {
		patch.apply(task)
		if patch.Status != nil {
			task.Status = *patch.Status
		}
		return true
	})
}

// ToggleTaskStatus flips a task between completed and pending. In-progress
// tasks become completed.
func (r *Repository) ToggleTaskStatus(ctx context.Context, id string) (model.Task, bool) {
	return r.mutateTask(ctx, id, func(task *model.Task) bool {
		if task.IsCompleted() {
			task.Status = model.StatusPending
		} else {
			task.Status = model.StatusCompleted
		}
		return true
	})
}

func (r *Repository) SetTaskStatus(ctx context.Context, id string, status model.Status) (model.Task, bool) {
	return r.mutateTask(ctx, id, func(task *model.Task) bool {
		task.Status = status
		return true
	})
}

func (r *Repository) ToggleSubtask(ctx context.Context, taskID, subtaskID string) (model.Task, bool) {
	return r.mutateTask(ctx, taskID, func(task *model.Task) bool {
		for i := range task.Subtasks {
			if task.Subtasks[i].ID == subtaskID {
				task.Subtasks[i].Completed = !task.Subtasks[i].Completed
				return true
			}
		}
		return false
	})
}

func (r *Repository) AddSubtask(ctx context.Context, taskID, title string) (model.Task, bool) {
	return r.mutateTask(ctx, taskID, func(task *model.Task) bool {
		task.Subtasks = append(task.Subtasks, model.SubTask{
			ID:        r.newID(),
			Title:     title,
			CreatedAt: r.now(),
		})
		return true
	})
}

func (r *Repository) DeleteSubtask(ctx context.Context, taskID, subtaskID string) (model.Task, bool) {
	return r.mutateTask(ctx, taskID, func(task *model.Task) bool {
		kept := make([]model.SubTask, 0, len(task.Subtasks))
		for _, sub := range task.Subtasks {
			if sub.ID != subtaskID {
				kept = append(kept, sub)
			}
		}
		if len(kept) == len(task.Subtasks) {
			return false
		}
		task.Subtasks = kept
		return true
	})
}

// DeleteTask removes the task and its subtasks. It reports false when the
// task does not exist.
func (r *Repository) DeleteTask(ctx context.Context, id string) bool {
	r.mu.Lock()
	before, ok := r.tasks.Get(id)
	if !ok {
		r.mu.Unlock()
		return false
	}
	r.commitTasks(ctx, r.tasks.Without(id))
	r.history.Add(ctx, before.ID, before.Title, model.ActionDelete, nil, &before)
	r.mu.Unlock()

	r.log.Logf("[DEBUG] store: deleted task %s", id)
	r.emit([]Event{{Action: model.ActionDelete, Task: before}})
	return true
}

// mutateTask runs fn on a copy of the task, stamps timestamps, spawns the next
// occurrence of a recurring task on completion, and commits. fn returning
// false aborts without any change.
func (r *Repository) mutateTask(ctx context.Context, id string, fn func(*model.Task) bool) (model.Task, bool) {
	r.mu.Lock()
	before, ok := r.tasks.Get(id)
	if !ok {
		r.mu.Unlock()
		return model.Task{}, false
	}

	now := r.now()
	after := before.Clone()
	if !fn(&after) {
		r.mu.Unlock()
		return model.Task{}, false
	}
	r.stamp(&after, before, now)

	events := []Event{}
	action := model.ActionUpdate
	completed := !before.IsCompleted() && after.IsCompleted()
	if completed {
		action = model.ActionComplete
	}

	var spawned *model.Task
	if completed {
		if occurrence, ok := r.nextOccurrence(after, now); ok {
			after.Recurring.SpawnedID = occurrence.ID
			spawned = &occurrence
		}
	}

	next := r.tasks.With(after)
	if spawned != nil {
		next = next.With(*spawned)
	}

	r.commitTasks(ctx, next)
	r.history.Add(ctx, after.ID, after.Title, action, taskDiff(before, after), &before)
	events = append(events, Event{Action: action, Task: after.Clone()})
	if spawned != nil {
		r.history.Add(ctx, spawned.ID, spawned.Title, model.ActionCreate, nil, nil)
		events = append(events, Event{Action: model.ActionCreate, Task: spawned.Clone()})
	}
	r.mu.Unlock()

	r.emit(events)
	return after.Clone(), true
}

// stamp keeps UpdatedAt monotonic and CompletedAt in step with Status.
func (r *Repository) stamp(after *model.Task, before model.Task, now time.Time) {
	if now.Before(before.UpdatedAt) {
		now = before.UpdatedAt
	}
	after.UpdatedAt = now
	switch {
	case after.IsCompleted() && after.CompletedAt == nil:
		after.CompletedAt = model.TimePtr(now)
	case !after.IsCompleted():
		after.CompletedAt = nil
	}
}

// nextOccurrence builds the follow-up of a completed recurring task. Tasks
// without a due date, past their end date or that already spawned a
// follow-up do not recur.
func (r *Repository) nextOccurrence(task model.Task, now time.Time) (model.Task, bool) {
	if task.Recurring == nil || task.DueDate == nil || task.Recurring.SpawnedID != "" {
		return model.Task{}, false
	}
	due := task.Recurring.Next(*task.DueDate)
	if end := task.Recurring.EndDate; end != nil && due.After(*end) {
		return model.Task{}, false
	}

	next := task.Clone()
	next.ID = r.newID()
	next.Status = model.StatusPending
	next.DueDate = &due
	next.CreatedAt = now
	next.UpdatedAt = now
	next.CompletedAt = nil
	next.ActualTime = nil
	next.Recurring.SpawnedID = ""
	for i := range next.Subtasks {
		next.Subtasks[i].ID = r.newID()
		next.Subtasks[i].Completed = false
		next.Subtasks[i].CreatedAt = now
	}
	return next, true
}

func (r *Repository) taskFromDraft(draft model.TaskDraft, now time.Time) model.Task {
	status := draft.Status
	if !status.Valid() {
		status = model.StatusPending
	}
	priority := draft.Priority
	if !priority.Valid() {
		priority = r.prefs.DefaultPriority
		if !priority.Valid() {
			priority = model.PriorityMedium
		}
	}

	task := model.Task{
		ID:          r.newID(),
		Title:       draft.Title,
		Description: draft.Description,
		Status:      status,
		Priority:    priority,
		CreatedAt:   now,
		UpdatedAt:   now,
		Tags:        normalizeTags(draft.Tags),
		Category:    draft.Category,
		Subtasks:    make([]model.SubTask, 0, len(draft.Subtasks)),
		Color:       draft.Color,
		AISuggested: draft.AISuggested,
	}
	if draft.DueDate != nil {
		task.DueDate = model.TimePtr(*draft.DueDate)
	}
	if draft.EstimatedTime != nil {
		task.EstimatedTime = model.IntPtr(*draft.EstimatedTime)
	}
	if draft.ReminderTime != nil {
		task.ReminderTime = model.IntPtr(*draft.ReminderTime)
	}
	if draft.Recurring != nil {
		rec := *draft.Recurring
		task.Recurring = &rec
	}
	if draft.Dependencies != nil {
		task.Dependencies = append([]string(nil), draft.Dependencies...)
	}
	for _, title := range draft.Subtasks {
		task.Subtasks = append(task.Subtasks, model.SubTask{ID: r.newID(), Title: title, CreatedAt: now})
	}
	if status == model.StatusCompleted {
		task.CompletedAt = model.TimePtr(now)
	}
	return task
}
