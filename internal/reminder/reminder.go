// Package reminder dispatches one reminder per task when its due time comes
// around. It polls the task list on a ticker and remembers which tasks were
// already reminded in a persisted sent-set.
package reminder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"

	"github.com/Joseda-hg/smarttodo/internal/model"
	"github.com/Joseda-hg/smarttodo/internal/storage"
)

const (
	DefaultInterval = time.Minute
	DefaultWindow   = time.Minute
)

// Dispatcher delivers a reminder for a task over some channel.
type Dispatcher interface {
	Dispatch(ctx context.Context, task model.Task) error
}

type DispatcherFunc func(ctx context.Context, task model.Task) error

func (f DispatcherFunc) Dispatch(ctx context.Context, task model.Task) error {
	return f(ctx, task)
}

// Multi fans a reminder out to several channels and fails if any of them
// fails. A channel that already delivered for a task is skipped when the
// reminder is retried, so only the failed channels are called again.
type Multi struct {
	channels []Dispatcher

	mu        sync.Mutex
	delivered map[string]map[int]struct{}
}

func NewMulti(channels ...Dispatcher) *Multi {
	return &Multi{channels: channels, delivered: make(map[string]map[int]struct{})}
}

func (m *Multi) Len() int {
	return len(m.channels)
}

func (m *Multi) Dispatch(ctx context.Context, task model.Task) error {
	var errs []error
	for i, d := range m.channels {
		if m.done(task.ID, i) {
			continue
		}
		if err := d.Dispatch(ctx, task); err != nil {
			errs = append(errs, err)
			continue
		}
		m.mark(task.ID, i)
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	m.mu.Lock()
	delete(m.delivered, task.ID)
	m.mu.Unlock()
	return nil
}

func (m *Multi) done(taskID string, channel int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.delivered[taskID][channel]
	return ok
}

func (m *Multi) mark(taskID string, channel int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.delivered[taskID] == nil {
		m.delivered[taskID] = make(map[int]struct{})
	}
	m.delivered[taskID][channel] = struct{}{}
}

// Warner surfaces a failed dispatch to the user without blocking.
type Warner interface {
	Warn(ctx context.Context, task model.Task, err error)
}

type WarnerFunc func(ctx context.Context, task model.Task, err error)

func (f WarnerFunc) Warn(ctx context.Context, task model.Task, err error) {
	f(ctx, task, err)
}

// TaskSource is the read side of the repository the scheduler scans.
type TaskSource interface {
	Tasks() []model.Task
}

type sentRecord struct {
	TaskID    string    `json:"taskId"`
	Timestamp time.Time `json:"timestamp"`
}

type Scheduler struct {
	source     TaskSource
	dispatcher Dispatcher
	kv         storage.KV
	warner     Warner
	log        lgr.L
	now        func() time.Time
	interval   time.Duration
	window     time.Duration
	settings   func() model.NotificationSettings
	ticks      sync.WaitGroup

	mu       sync.Mutex
	sent     map[string]time.Time
	inFlight map[string]struct{}
}

type Option func(*Scheduler)

func WithInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithWindow sets the half-width of the dispatch window around a due time.
func WithWindow(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.window = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

func WithWarner(w Warner) Option {
	return func(s *Scheduler) { s.warner = w }
}

func WithLogger(logger lgr.L) Option {
	return func(s *Scheduler) { s.log = logger }
}

// WithSettings makes every tick consult the user's notification settings.
// Nothing is dispatched while notifications are disabled.
func WithSettings(settings func() model.NotificationSettings) Option {
	return func(s *Scheduler) { s.settings = settings }
}

func New(source TaskSource, dispatcher Dispatcher, kv storage.KV, opts ...Option) *Scheduler {
	s := &Scheduler{
		source:     source,
		dispatcher: dispatcher,
		kv:         kv,
		log:        lgr.NoOp,
		now:        time.Now,
		interval:   DefaultInterval,
		window:     DefaultWindow,
		sent:       make(map[string]time.Time),
		inFlight:   make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load restores the sent-set. A missing key means nothing was sent yet.
func (s *Scheduler) Load(ctx context.Context) error {
	data, err := s.kv.Get(ctx, storage.KeySentReminders)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read sent reminders: %w", err)
	}

	var records []sentRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("parse sent reminders: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, record := range records {
		s.sent[record.TaskID] = record.Timestamp
	}
	return nil
}

// Run ticks until ctx is cancelled. Each tick runs on its own goroutine so a
// slow dispatch never delays the next scan; the in-flight set keeps a task
// from being dispatched twice concurrently. Run returns after the last tick
// has finished.
func (s *Scheduler) Run(ctx context.Context) {
	s.log.Logf("[INFO] reminder: scheduler started, interval %v, window ±%v", s.interval, s.window)
	defer s.ticks.Wait()

	s.startTick(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Logf("[INFO] reminder: scheduler stopped")
			return
		case <-ticker.C:
			s.startTick(ctx)
		}
	}
}

func (s *Scheduler) startTick(ctx context.Context) {
	s.ticks.Add(1)
	go func() {
		defer s.ticks.Done()
		s.Tick(ctx, s.now())
	}()
}

// Tick dispatches reminders for open tasks due within the window around now
// and waits for the dispatches it started. It returns how many succeeded.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) int {
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		delivered int
	)

	if s.settings != nil && !s.settings().Enabled {
		return 0
	}

	for _, task := range s.source.Tasks() {
		if !s.due(task, now) || !s.claim(task.ID) {
			continue
		}

		wg.Add(1)
		go func(task model.Task) {
			defer wg.Done()
			if s.deliver(ctx, task, now) {
				mu.Lock()
				delivered++
				mu.Unlock()
			}
		}(task)
	}
	wg.Wait()
	return delivered
}

// Sent reports whether a reminder for taskID was already delivered.
func (s *Scheduler) Sent(taskID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sent[taskID]
	return ok
}

func (s *Scheduler) due(task model.Task, now time.Time) bool {
	if task.IsCompleted() || task.DueDate == nil {
		return false
	}
	delta := task.DueDate.Sub(now)
	if delta < 0 {
		delta = -delta
	}
	return delta <= s.window
}

// claim marks taskID in flight unless it was already sent or is in flight.
func (s *Scheduler) claim(taskID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sent[taskID]; ok {
		return false
	}
	if _, ok := s.inFlight[taskID]; ok {
		return false
	}
	s.inFlight[taskID] = struct{}{}
	return true
}

func (s *Scheduler) deliver(ctx context.Context, task model.Task, now time.Time) bool {
	err := s.dispatcher.Dispatch(ctx, task)

	if err != nil {
		s.mu.Lock()
		delete(s.inFlight, task.ID)
		s.mu.Unlock()

		s.log.Logf("[WARN] reminder: dispatch for task %s failed: %v", task.ID, err)
		if s.warner != nil {
			s.warner.Warn(ctx, task, err)
		}
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, task.ID)
	s.sent[task.ID] = now
	s.log.Logf("[INFO] reminder: sent reminder for task %s %q", task.ID, task.Title)
	s.persistLocked(ctx)
	return true
}

func (s *Scheduler) persistLocked(ctx context.Context) {
	records := make([]sentRecord, 0, len(s.sent))
	for id, at := range s.sent {
		records = append(records, sentRecord{TaskID: id, Timestamp: at})
	}
	sort.Slice(records, func(i, j int) bool { return records[i].TaskID < records[j].TaskID })

	payload, err := json.Marshal(records)
	if err != nil {
		s.log.Logf("[WARN] reminder: encode sent reminders: %v", err)
		return
	}
	if err := s.kv.Put(ctx, storage.KeySentReminders, payload); err != nil {
		s.log.Logf("[WARN] reminder: persist sent reminders: %v", err)
	}
}
