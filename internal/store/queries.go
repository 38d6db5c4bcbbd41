package store

import (
	"time"

	"github.com/Joseda-hg/smarttodo/internal/model"
)

func (r *Repository) Task(id string) (model.Task, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tasks.Get(id)
}

// Tasks returns copies of every task in insertion order.
func (r *Repository) Tasks() []model.Task {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tasks.Tasks()
}

// Snapshot returns the current task collection.
func (r *Repository) Snapshot() model.Collection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tasks.Clone()
}

func (r *Repository) TasksByCategory(category string) []model.Task {
	return r.filter(func(task model.Task) bool { return task.Category == category })
}

// TasksByTag matches tags exactly.
func (r *Repository) TasksByTag(tag string) []model.Task {
	return r.filter(func(task model.Task) bool { return task.HasTag(tag) })
}

// OverdueTasks returns open tasks due strictly before now.
func (r *Repository) OverdueTasks(now time.Time) []model.Task {
	return r.filter(func(task model.Task) bool {
		return !task.IsCompleted() && task.DueDate != nil && task.DueDate.Before(now)
	})
}

// UpcomingTasks returns open tasks due in [now, now+days].
func (r *Repository) UpcomingTasks(now time.Time, days int) []model.Task {
	limit := now.AddDate(0, 0, days)
	return r.filter(func(task model.Task) bool {
		if task.IsCompleted() || task.DueDate == nil {
			return false
		}
		return !task.DueDate.Before(now) && !task.DueDate.After(limit)
	})
}

func (r *Repository) Categories() []model.Category {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]model.Category{}, r.categories...)
}

func (r *Repository) Templates() []model.TaskTemplate {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]model.TaskTemplate{}, r.templates...)
}

func (r *Repository) Template(id string) (model.TaskTemplate, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, template := range r.templates {
		if template.ID == id {
			return template, true
		}
	}
	return model.TaskTemplate{}, false
}

func (r *Repository) Preferences() model.UserPreferences {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return clonePreferences(r.prefs)
}

func (r *Repository) filter(keep func(model.Task) bool) []model.Task {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := []model.Task{}
	for _, task := range r.tasks.Tasks() {
		if keep(task) {
			result = append(result, task)
		}
	}
	return result
}
