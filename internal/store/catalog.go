package store

import (
	"context"

	"github.com/Joseda-hg/smarttodo/internal/model"
)

func (r *Repository) CreateCategory(ctx context.Context, name, color, icon string) model.Category {
	r.mu.Lock()
	defer r.mu.Unlock()

	category := model.Category{ID: r.newID(), Name: name, Color: color, Icon: icon}
	r.categories = append(append([]model.Category(nil), r.categories...), category)
	r.persistLocked(ctx)
	return category
}

func (r *Repository) UpdateCategory(ctx context.Context, category model.Category) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.categories {
		if r.categories[i].ID == category.ID {
			next := append([]model.Category(nil), r.categories...)
			next[i] = category
			r.categories = next
			r.persistLocked(ctx)
			return true
		}
	}
	return false
}

// DeleteCategory removes a category. Tasks keep their dangling reference
// unless cascade is set, in which case tasks referencing the category by id
// or name have it cleared as one undoable update.
func (r *Repository) DeleteCategory(ctx context.Context, id string, cascade bool) bool {
	r.mu.Lock()

	index := -1
	for i, category := range r.categories {
		if category.ID == id {
			index = i
			break
		}
	}
	if index < 0 {
		r.mu.Unlock()
		return false
	}
	removed := r.categories[index]
	next := make([]model.Category, 0, len(r.categories)-1)
	next = append(next, r.categories[:index]...)
	r.categories = append(next, r.categories[index+1:]...)

	if !cascade {
		r.persistLocked(ctx)
		r.mu.Unlock()
		return true
	}

	now := r.now()
	tasks := r.tasks
	var events []Event
	var changed []model.Task
	for _, task := range r.tasks.Tasks() {
		if task.Category == "" || (task.Category != removed.ID && task.Category != removed.Name) {
			continue
		}
		before := task.Clone()
		task.Category = ""
		r.stamp(&task, before, now)
		tasks = tasks.With(task)
		changed = append(changed, before)
		events = append(events, Event{Action: model.ActionUpdate, Task: task.Clone()})
	}

	if len(changed) == 0 {
		r.persistLocked(ctx)
		r.mu.Unlock()
		return true
	}

	r.commitTasks(ctx, tasks)
	for _, before := range changed {
		after, _ := tasks.Get(before.ID)
		r.history.Add(ctx, before.ID, before.Title, model.ActionUpdate, taskDiff(before, after), &before)
	}
	r.mu.Unlock()

	r.emit(events)
	return true
}

func (r *Repository) CreateTemplate(ctx context.Context, name, description string, drafts []model.TaskDraft) model.TaskTemplate {
	r.mu.Lock()
	defer r.mu.Unlock()

	template := model.TaskTemplate{
		ID:          r.newID(),
		Name:        name,
		Description: description,
		Tasks:       append([]model.TaskDraft(nil), drafts...),
	}
	r.templates = append(append([]model.TaskTemplate(nil), r.templates...), template)
	r.persistLocked(ctx)
	return template
}

func (r *Repository) DeleteTemplate(ctx context.Context, id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := make([]model.TaskTemplate, 0, len(r.templates))
	for _, template := range r.templates {
		if template.ID != id {
			next = append(next, template)
		}
	}
	if len(next) == len(r.templates) {
		return false
	}
	r.templates = next
	r.persistLocked(ctx)
	return true
}

// InstantiateTemplate creates one task per draft of the template as a single
// undoable step.
func (r *Repository) InstantiateTemplate(ctx context.Context, id string) ([]model.Task, bool) {
	r.mu.Lock()

	var template model.TaskTemplate
	found := false
	for _, candidate := range r.templates {
		if candidate.ID == id {
			template, found = candidate, true
			break
		}
	}
	if !found {
		r.mu.Unlock()
		return nil, false
	}

	now := r.now()
	next := r.tasks
	created := make([]model.Task, 0, len(template.Tasks))
	for _, draft := range template.Tasks {
		task := r.taskFromDraft(draft, now)
		next = next.With(task)
		created = append(created, task)
	}
	r.commitTasks(ctx, next)

	events := make([]Event, 0, len(created))
	for _, task := range created {
		r.history.Add(ctx, task.ID, task.Title, model.ActionCreate, nil, nil)
		events = append(events, Event{Action: model.ActionCreate, Task: task.Clone()})
	}
	r.mu.Unlock()

	r.log.Logf("[INFO] store: instantiated template %q into %d tasks", template.Name, len(created))
	r.emit(events)
	return created, true
}

// UpdatePreferences applies fn to a copy of the preferences and stores the result.
func (r *Repository) UpdatePreferences(ctx context.Context, fn func(*model.UserPreferences)) model.UserPreferences {
	r.mu.Lock()
	defer r.mu.Unlock()

	prefs := clonePreferences(r.prefs)
	fn(&prefs)
	r.prefs = prefs
	r.persistLocked(ctx)
	return clonePreferences(prefs)
}

func clonePreferences(p model.UserPreferences) model.UserPreferences {
	out := p
	out.Notifications.DefaultReminderTimes = append([]int(nil), p.Notifications.DefaultReminderTimes...)
	if p.Notifications.PriorityReminderTimes != nil {
		out.Notifications.PriorityReminderTimes = make(map[model.Priority][]int, len(p.Notifications.PriorityReminderTimes))
		for priority, offsets := range p.Notifications.PriorityReminderTimes {
			out.Notifications.PriorityReminderTimes[priority] = append([]int(nil), offsets...)
		}
	}
	return out
}
