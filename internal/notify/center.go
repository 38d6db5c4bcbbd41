// Package notify is the in-app notification path: a session-scoped
// notification center, a monitor that scans for overdue and upcoming tasks,
// and reminder planning from notification settings.
package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/Joseda-hg/smarttodo/internal/model"
)

// DefaultLimit bounds how many notifications a Center keeps.
const DefaultLimit = 100

// Center holds notifications in memory, newest first. Nothing is persisted.
type Center struct {
	mu    sync.RWMutex
	items []model.Notification
	limit int
	now   func() time.Time
	newID func() string
	log   lgr.L
}

type Option func(*Center)

func WithClock(now func() time.Time) Option {
	return func(c *Center) { c.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(c *Center) { c.newID = newID }
}

func WithLogger(logger lgr.L) Option {
	return func(c *Center) { c.log = logger }
}

func WithLimit(limit int) Option {
	return func(c *Center) {
		if limit > 0 {
			c.limit = limit
		}
	}
}

func NewCenter(opts ...Option) *Center {
	c := &Center{
		limit: DefaultLimit,
		now:   time.Now,
		newID: uuid.NewString,
		log:   lgr.NoOp,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Push stores n with a fresh id and timestamp and returns the stored value.
func (c *Center) Push(n model.Notification) model.Notification {
	n.ID = c.newID()
	n.CreatedAt = c.now()
	n.Read = false

	c.mu.Lock()
	c.items = append([]model.Notification{n}, c.items...)
	if len(c.items) > c.limit {
		c.items = c.items[:c.limit]
	}
	c.mu.Unlock()

	c.log.Logf("[DEBUG] notify: %s notification %q", n.Type, n.Title)
	return n
}

func (c *Center) List() []model.Notification {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]model.Notification{}, c.items...)
}

func (c *Center) Unread() []model.Notification {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := []model.Notification{}
	for _, n := range c.items {
		if !n.Read {
			result = append(result, n)
		}
	}
	return result
}

func (c *Center) MarkRead(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.items {
		if c.items[i].ID == id {
			c.items[i].Read = true
			return true
		}
	}
	return false
}

func (c *Center) MarkAllRead() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.items {
		c.items[i].Read = true
	}
}

func (c *Center) Remove(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.items {
		if c.items[i].ID == id {
			c.items = append(c.items[:i:i], c.items[i+1:]...)
			return true
		}
	}
	return false
}

func (c *Center) Clear() {
	c.mu.Lock()
	c.items = nil
	c.mu.Unlock()
}

// Completed records a completion notification for task.
func (c *Center) Completed(task model.Task) model.Notification {
	return c.Push(model.Notification{
		TaskID:   task.ID,
		Title:    "Task completed",
		Message:  fmt.Sprintf("Nice work! %q is done.", task.Title),
		Type:     model.NotificationCompletion,
		Priority: task.Priority,
	})
}

// Dispatch records an in-app reminder for task. It lets the center act as a
// reminder channel next to e-mail and chat.
func (c *Center) Dispatch(_ context.Context, task model.Task) error {
	message := fmt.Sprintf("%s priority task %q is due now.", priorityLabel(task.Priority), task.Title)
	if task.DueDate != nil {
		message = fmt.Sprintf("%s priority task %q is due at %s.", priorityLabel(task.Priority), task.Title, task.DueDate.Format("Jan 2 15:04"))
	}
	c.Push(model.Notification{
		TaskID:   task.ID,
		Title:    "Task reminder",
		Message:  message,
		Type:     model.NotificationReminder,
		Priority: task.Priority,
	})
	return nil
}

// Warn records a failed reminder delivery so the user sees it without the
// failure interrupting anything else.
func (c *Center) Warn(_ context.Context, task model.Task, err error) {
	c.Push(model.Notification{
		TaskID:   task.ID,
		Title:    "Reminder not delivered",
		Message:  fmt.Sprintf("Could not send the reminder for %q: %v", task.Title, err),
		Type:     model.NotificationCustom,
		Priority: task.Priority,
	})
}

func priorityLabel(p model.Priority) string {
	return cases.Title(language.English).String(string(p))
}
