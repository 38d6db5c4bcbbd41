package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"

	"github.com/Joseda-hg/smarttodo/internal/model"
)

const (
	DefaultOverdueInterval  = 5 * time.Minute
	DefaultUpcomingInterval = time.Minute
	DefaultUpcomingWithin   = time.Hour
)

type TaskSource interface {
	Tasks() []model.Task
}

// Monitor runs the overdue and upcoming scans. Each scan keeps its own set of
// already-notified task ids, so a task can be announced once as upcoming and
// once more as overdue.
type Monitor struct {
	source TaskSource
	center *Center
	log    lgr.L
	now    func() time.Time

	OverdueInterval  time.Duration
	UpcomingInterval time.Duration
	UpcomingWithin   time.Duration
	// Settings, when set, turns both scans off while notifications are disabled.
	Settings func() model.NotificationSettings

	mu           sync.Mutex
	overdueSeen  map[string]struct{}
	upcomingSeen map[string]struct{}
}

func NewMonitor(source TaskSource, center *Center, logger lgr.L) *Monitor {
	if logger == nil {
		logger = lgr.NoOp
	}
	return &Monitor{
		source:           source,
		center:           center,
		log:              logger,
		now:              time.Now,
		OverdueInterval:  DefaultOverdueInterval,
		UpcomingInterval: DefaultUpcomingInterval,
		UpcomingWithin:   DefaultUpcomingWithin,
		overdueSeen:      make(map[string]struct{}),
		upcomingSeen:     make(map[string]struct{}),
	}
}

// ScanOverdue notifies about open tasks whose due date has passed.
func (m *Monitor) ScanOverdue(now time.Time) []model.Notification {
	created := []model.Notification{}
	if !m.enabled() {
		return created
	}
	for _, task := range m.source.Tasks() {
		if task.IsCompleted() || task.DueDate == nil || !task.DueDate.Before(now) {
			continue
		}
		if !m.markOnce(m.overdueSeen, task.ID) {
			continue
		}
		created = append(created, m.center.Push(model.Notification{
			TaskID:   task.ID,
			Title:    "Task overdue",
			Message:  fmt.Sprintf("%s priority task %q was due %s.", priorityLabel(task.Priority), task.Title, task.DueDate.Format("Jan 2 15:04")),
			Type:     model.NotificationOverdue,
			Priority: task.Priority,
		}))
	}
	return created
}

// ScanUpcoming notifies about open tasks due within the configured horizon.
func (m *Monitor) ScanUpcoming(now time.Time) []model.Notification {
	limit := now.Add(m.UpcomingWithin)
	created := []model.Notification{}
	if !m.enabled() {
		return created
	}
	for _, task := range m.source.Tasks() {
		if task.IsCompleted() || task.DueDate == nil {
			continue
		}
		if task.DueDate.Before(now) || task.DueDate.After(limit) {
			continue
		}
		if !m.markOnce(m.upcomingSeen, task.ID) {
			continue
		}
		minutes := int(task.DueDate.Sub(now).Round(time.Minute) / time.Minute)
		created = append(created, m.center.Push(model.Notification{
			TaskID:   task.ID,
			Title:    "Task due soon",
			Message:  fmt.Sprintf("%q is due in %d minutes.", task.Title, minutes),
			Type:     model.NotificationUpcoming,
			Priority: task.Priority,
		}))
	}
	return created
}

// Run drives both scans on independent tickers until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	overdue := time.NewTicker(m.OverdueInterval)
	defer overdue.Stop()
	upcoming := time.NewTicker(m.UpcomingInterval)
	defer upcoming.Stop()

	m.ScanOverdue(m.now())
	m.ScanUpcoming(m.now())

	for {
		select {
		case <-ctx.Done():
			return
		case <-overdue.C:
			if n := m.ScanOverdue(m.now()); len(n) > 0 {
				m.log.Logf("[INFO] notify: %d overdue tasks", len(n))
			}
		case <-upcoming.C:
			if n := m.ScanUpcoming(m.now()); len(n) > 0 {
				m.log.Logf("[INFO] notify: %d upcoming tasks", len(n))
			}
		}
	}
}

func (m *Monitor) enabled() bool {
	return m.Settings == nil || m.Settings().Enabled
}

func (m *Monitor) markOnce(seen map[string]struct{}, id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := seen[id]; ok {
		return false
	}
	seen[id] = struct{}{}
	return true
}
